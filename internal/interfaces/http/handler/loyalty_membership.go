package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	loyaltyapp "github.com/fleetrent/backend/internal/application/loyalty"
	"github.com/fleetrent/backend/internal/domain/loyalty"
)

// LoyaltyMembershipHandler handles membership, ledger and redemption endpoints.
// Customers operate on their own memberships only; admins are unrestricted.
type LoyaltyMembershipHandler struct {
	BaseHandler
	enrollmentService *loyaltyapp.EnrollmentService
	ledgerService     *loyaltyapp.LedgerService
	redemptionService *loyaltyapp.RedemptionService
}

// NewLoyaltyMembershipHandler creates a new LoyaltyMembershipHandler
func NewLoyaltyMembershipHandler(
	enrollmentService *loyaltyapp.EnrollmentService,
	ledgerService *loyaltyapp.LedgerService,
	redemptionService *loyaltyapp.RedemptionService,
) *LoyaltyMembershipHandler {
	return &LoyaltyMembershipHandler{
		enrollmentService: enrollmentService,
		ledgerService:     ledgerService,
		redemptionService: redemptionService,
	}
}

// Enroll godoc
// @ID           enrollMembership
// @Summary      Enroll a customer into a program
// @Tags         loyalty
// @Accept       json
// @Produce      json
// @Param        request body loyaltyapp.EnrollRequest true "Enrollment"
// @Success      201 {object} dto.Response{data=loyaltyapp.MembershipResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/memberships [post]
func (h *LoyaltyMembershipHandler) Enroll(c *gin.Context) {
	var req loyaltyapp.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if !h.canActFor(c, req.CustomerID) {
		h.Forbidden(c, "Cannot enroll another customer")
		return
	}

	membership, err := h.enrollmentService.Enroll(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, membership)
}

// Lookup godoc
// @ID           lookupMembership
// @Summary      Look up a customer's membership in a program
// @Tags         loyalty
// @Produce      json
// @Param        customer_id query string true "Customer ID" format(uuid)
// @Param        program_id query string true "Program ID" format(uuid)
// @Success      200 {object} dto.Response{data=loyaltyapp.MembershipResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/memberships/lookup [get]
func (h *LoyaltyMembershipHandler) Lookup(c *gin.Context) {
	customerID, err := uuid.Parse(c.Query("customer_id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}
	programID, err := uuid.Parse(c.Query("program_id"))
	if err != nil {
		h.BadRequest(c, "Invalid program ID format")
		return
	}

	if !h.canActFor(c, customerID) {
		h.Forbidden(c, "Cannot view another customer's membership")
		return
	}

	membership, err := h.enrollmentService.GetMembership(c.Request.Context(), customerID, programID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, membership)
}

// ApplyTransaction godoc
// @ID           applyPointTransaction
// @Summary      Post a point transaction against a membership
// @Description  Appends an EARN, REDEEM, EXPIRE or BONUS entry to the membership's ledger.
// @Description  Customers may only redeem their own points; other types require the admin role.
// @Tags         loyalty
// @Accept       json
// @Produce      json
// @Param        id path string true "Membership ID" format(uuid)
// @Param        request body loyaltyapp.ApplyTransactionRequest true "Transaction"
// @Success      201 {object} dto.Response{data=loyaltyapp.TransactionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/memberships/{id}/transactions [post]
func (h *LoyaltyMembershipHandler) ApplyTransaction(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid membership ID format")
		return
	}

	var req loyaltyapp.ApplyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if !isAdmin(c) {
		if req.Type != string(loyalty.PointTransactionTypeRedeem) {
			h.Forbidden(c, "Only redemptions may be requested by customers")
			return
		}
		if !h.ownsMembership(c, membershipID) {
			h.Forbidden(c, "Cannot redeem against another customer's membership")
			return
		}
	}

	transaction, err := h.ledgerService.ApplyTransaction(c.Request.Context(), membershipID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, transaction)
}

// MembershipTransactions godoc
// @ID           listMembershipTransactions
// @Summary      List a membership's point transactions
// @Tags         loyalty
// @Produce      json
// @Param        id path string true "Membership ID" format(uuid)
// @Param        type query string false "Transaction type" Enums(EARN, REDEEM, EXPIRE, BONUS)
// @Success      200 {object} dto.Response{data=[]loyaltyapp.TransactionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/memberships/{id}/transactions [get]
func (h *LoyaltyMembershipHandler) MembershipTransactions(c *gin.Context) {
	membershipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid membership ID format")
		return
	}

	if !isAdmin(c) && !h.ownsMembership(c, membershipID) {
		h.Forbidden(c, "Cannot view another customer's transactions")
		return
	}

	var filter loyaltyapp.TransactionListFilter
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

	transactions, total, err := h.ledgerService.ListMembershipTransactions(c.Request.Context(), membershipID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, transactions, total, filter.Page, filter.PageSize)
}

// CustomerTransactions godoc
// @ID           listCustomerTransactions
// @Summary      List a customer's point transactions across all programs
// @Tags         loyalty
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        type query string false "Transaction type" Enums(EARN, REDEEM, EXPIRE, BONUS)
// @Param        program_id query string false "Program ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]loyaltyapp.TransactionResponse}
// @Security     BearerAuth
// @Router       /loyalty/customers/{id}/transactions [get]
func (h *LoyaltyMembershipHandler) CustomerTransactions(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	if !h.canActFor(c, customerID) {
		h.Forbidden(c, "Cannot view another customer's transactions")
		return
	}

	var filter loyaltyapp.TransactionListFilter
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

	transactions, total, err := h.ledgerService.ListTransactions(c.Request.Context(), customerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, transactions, total, filter.Page, filter.PageSize)
}

// CheckRedemption godoc
// @ID           checkRedemption
// @Summary      Check whether a redemption is currently possible
// @Description  Pure evaluation: never mutates state. Returns the verdict with a
// @Description  reason when the redemption is not eligible.
// @Tags         loyalty
// @Accept       json
// @Produce      json
// @Param        request body loyaltyapp.RedemptionCheckRequest true "Redemption to evaluate"
// @Success      200 {object} dto.Response{data=loyaltyapp.RedemptionCheckResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /loyalty/redemptions/check [post]
func (h *LoyaltyMembershipHandler) CheckRedemption(c *gin.Context) {
	var req loyaltyapp.RedemptionCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if !h.canActFor(c, req.CustomerID) {
		h.Forbidden(c, "Cannot check another customer's redemption")
		return
	}

	verdict, err := h.redemptionService.CanRedeem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, verdict)
}

// canActFor reports whether the caller may act on the given customer's data
func (h *LoyaltyMembershipHandler) canActFor(c *gin.Context, customerID uuid.UUID) bool {
	if isAdmin(c) {
		return true
	}
	callerID, err := getUserID(c)
	if err != nil {
		return false
	}
	return callerID == customerID
}

// ownsMembership reports whether the caller is the customer on the membership
func (h *LoyaltyMembershipHandler) ownsMembership(c *gin.Context, membershipID uuid.UUID) bool {
	callerID, err := getUserID(c)
	if err != nil {
		return false
	}
	membership, err := h.enrollmentService.GetMembershipByID(c.Request.Context(), membershipID)
	if err != nil {
		return false
	}
	return membership.CustomerID == callerID
}
