package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	loyaltyapp "github.com/fleetrent/backend/internal/application/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
)

// memberListQuery holds the pagination query parameters for member listing
type memberListQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// LoyaltyProgramHandler handles loyalty program API endpoints
type LoyaltyProgramHandler struct {
	BaseHandler
	programService    *loyaltyapp.ProgramService
	statisticsService *loyaltyapp.StatisticsService
	enrollmentService *loyaltyapp.EnrollmentService
}

// NewLoyaltyProgramHandler creates a new LoyaltyProgramHandler
func NewLoyaltyProgramHandler(
	programService *loyaltyapp.ProgramService,
	statisticsService *loyaltyapp.StatisticsService,
	enrollmentService *loyaltyapp.EnrollmentService,
) *LoyaltyProgramHandler {
	return &LoyaltyProgramHandler{
		programService:    programService,
		statisticsService: statisticsService,
		enrollmentService: enrollmentService,
	}
}

// Create godoc
// @ID           createLoyaltyProgram
// @Summary      Create loyalty program
// @Description  Create a new loyalty program with its tier ladder and redemption rules
// @Tags         loyalty
// @Accept       json
// @Produce      json
// @Param        request body loyaltyapp.CreateProgramRequest true "Program definition"
// @Success      201 {object} dto.Response{data=loyaltyapp.ProgramResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/programs [post]
func (h *LoyaltyProgramHandler) Create(c *gin.Context) {
	var req loyaltyapp.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	program, err := h.programService.CreateProgram(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, program)
}

// List godoc
// @ID           listLoyaltyPrograms
// @Summary      List loyalty programs
// @Tags         loyalty
// @Produce      json
// @Param        active_only query bool false "Only active programs"
// @Param        search query string false "Name search"
// @Success      200 {object} dto.Response{data=[]loyaltyapp.ProgramResponse}
// @Security     BearerAuth
// @Router       /loyalty/programs [get]
func (h *LoyaltyProgramHandler) List(c *gin.Context) {
	var filter loyaltyapp.ProgramListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	programs, total, err := h.programService.ListPrograms(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, programs, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getLoyaltyProgram
// @Summary      Get loyalty program
// @Tags         loyalty
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Success      200 {object} dto.Response{data=loyaltyapp.ProgramResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/programs/{id} [get]
func (h *LoyaltyProgramHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID format")
		return
	}

	program, err := h.programService.GetProgram(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, program)
}

// Update godoc
// @ID           updateLoyaltyProgram
// @Summary      Update loyalty program
// @Description  Update program details, earn rate, tiers or redemption rules
// @Tags         loyalty
// @Accept       json
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Param        request body loyaltyapp.UpdateProgramRequest true "Fields to update"
// @Success      200 {object} dto.Response{data=loyaltyapp.ProgramResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/programs/{id} [put]
func (h *LoyaltyProgramHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID format")
		return
	}

	var req loyaltyapp.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	program, err := h.programService.UpdateProgram(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, program)
}

// Deactivate godoc
// @ID           deactivateLoyaltyProgram
// @Summary      Deactivate loyalty program
// @Description  Retire a program. Memberships and history stay queryable; no new earns are accepted.
// @Tags         loyalty
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/programs/{id}/deactivate [post]
func (h *LoyaltyProgramHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID format")
		return
	}

	if err := h.programService.DeactivateProgram(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Statistics godoc
// @ID           loyaltyProgramStatistics
// @Summary      Program statistics
// @Description  Aggregate member counts, point totals and redemption rate for a program
// @Tags         loyalty
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Success      200 {object} dto.Response{data=loyaltyapp.StatsResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/programs/{id}/statistics [get]
func (h *LoyaltyProgramHandler) Statistics(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID format")
		return
	}

	stats, err := h.statisticsService.ProgramStatistics(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// Members godoc
// @ID           loyaltyProgramMembers
// @Summary      List program members
// @Tags         loyalty
// @Produce      json
// @Param        id path string true "Program ID" format(uuid)
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]loyaltyapp.MemberResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/programs/{id}/members [get]
func (h *LoyaltyProgramHandler) Members(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID format")
		return
	}

	var query memberListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := shared.DefaultFilter()
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}

	members, total, err := h.enrollmentService.ListMembers(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, members, total, filter.Page, filter.PageSize)
}
