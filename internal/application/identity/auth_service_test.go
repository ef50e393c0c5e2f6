package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/fleetrent/backend/internal/infrastructure/auth"
	"github.com/fleetrent/backend/internal/infrastructure/config"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter shared.Filter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "fleetrent-test",
		MaxRefreshCount:        5,
	})
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()

	newUser := func(t *testing.T) *identity.User {
		t.Helper()
		u, err := identity.NewUser("jamie", "s3cret-pass", identity.RoleCustomer)
		require.NoError(t, err)
		return u
	}

	t.Run("returns tokens on valid credentials", func(t *testing.T) {
		user := newUser(t)
		repo := new(MockUserRepository)
		repo.On("FindByUsername", ctx, "jamie").Return(user, nil)
		repo.On("Save", ctx, user).Return(nil)

		svc := NewAuthService(repo, newTestJWT(), nil, zap.NewNop())
		result, err := svc.Login(ctx, "jamie", "s3cret-pass")
		require.NoError(t, err)

		assert.NotEmpty(t, result.TokenPair.AccessToken)
		assert.Equal(t, "jamie", result.User.Username)
		assert.Equal(t, "customer", result.User.Role)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		user := newUser(t)
		repo := new(MockUserRepository)
		repo.On("FindByUsername", ctx, "jamie").Return(user, nil)

		svc := NewAuthService(repo, newTestJWT(), nil, zap.NewNop())
		_, err := svc.Login(ctx, "jamie", "wrong-pass")
		require.Error(t, err)

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "UNAUTHORIZED", de.Code)
	})

	t.Run("rejects unknown user with the same error", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByUsername", ctx, "ghost").Return(nil, shared.ErrNotFound)

		svc := NewAuthService(repo, newTestJWT(), nil, zap.NewNop())
		_, err := svc.Login(ctx, "ghost", "whatever-pass")
		require.Error(t, err)

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "UNAUTHORIZED", de.Code)
	})

	t.Run("rejects deactivated account", func(t *testing.T) {
		user := newUser(t)
		user.Deactivate()
		repo := new(MockUserRepository)
		repo.On("FindByUsername", ctx, "jamie").Return(user, nil)

		svc := NewAuthService(repo, newTestJWT(), nil, zap.NewNop())
		_, err := svc.Login(ctx, "jamie", "s3cret-pass")
		require.Error(t, err)
	})
}

func TestAuthServiceRefresh(t *testing.T) {
	ctx := context.Background()
	jwtSvc := newTestJWT()

	user, err := identity.NewUser("jamie", "s3cret-pass", identity.RoleCustomer)
	require.NoError(t, err)

	pair, err := jwtSvc.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: user.ID, Username: user.Username, Role: string(user.Role),
	})
	require.NoError(t, err)

	t.Run("rotates tokens for an active user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByID", ctx, user.ID).Return(user, nil)

		svc := NewAuthService(repo, jwtSvc, nil, zap.NewNop())
		refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
	})

	t.Run("rejects an access token", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepository), jwtSvc, nil, zap.NewNop())
		_, err := svc.Refresh(ctx, pair.AccessToken)
		require.Error(t, err)
	})
}

func TestAuthServiceLogout(t *testing.T) {
	ctx := context.Background()
	jwtSvc := newTestJWT()
	blacklist := auth.NewInMemoryTokenBlacklist()

	pair, err := jwtSvc.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: uuid.New(), Username: "jamie", Role: "customer",
	})
	require.NoError(t, err)
	claims, err := jwtSvc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	svc := NewAuthService(new(MockUserRepository), jwtSvc, blacklist, zap.NewNop())
	require.NoError(t, svc.Logout(ctx, claims))

	revoked, err := blacklist.IsBlacklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthServiceGetCurrentUser(t *testing.T) {
	ctx := context.Background()

	user, err := identity.NewUser("jamie", "s3cret-pass", identity.RoleCustomer)
	require.NoError(t, err)
	user.SetDisplayName("Jamie Doe")

	repo := new(MockUserRepository)
	repo.On("FindByID", ctx, user.ID).Return(user, nil)

	svc := NewAuthService(repo, newTestJWT(), nil, zap.NewNop())
	info, err := svc.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jamie Doe", info.DisplayName)
}
