package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taptone-api/internal/domain"
	googleinfra "github.com/taptone-api/internal/infrastructure/google"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	args := m.Called(ctx, refreshToken)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}
func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByGoogleSub(ctx context.Context, sub string) (*domain.User, error) {
	args := m.Called(ctx, sub)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

type mockGoogleVerifier struct{ mock.Mock }

func (m *mockGoogleVerifier) Verify(ctx context.Context, token string) (*googleinfra.Payload, error) {
	args := m.Called(ctx, token)
	if p, _ := args.Get(0).(*googleinfra.Payload); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func newTestService(ss *mockSessionStore, us *mockUserStore, jwt *mockJWTSigner, gv *mockGoogleVerifier) Service {
	deps := ServiceDeps{
		SessionRepo:     ss,
		UserRepo:        us,
		JWTProvider:     jwt,
		RefreshTokenDur: 30 * 24 * time.Hour,
	}
	if gv != nil {
		deps.GoogleVerifier = gv
	}
	return NewService(deps)
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID:       "u1",
		Email:        "alice@example.com",
		PasswordHash: hash(t, "password123"),
		Role:         domain.RoleUser,
		Enable:       true,
	}, nil)
	ss := &mockSessionStore{}
	ss.On("Put", mock.Anything, mock.Anything).Return(nil)
	jwt := &mockJWTSigner{}
	jwt.On("Sign", "u1", domain.RoleUser, mock.Anything).Return("signed-jwt", nil)

	svc := newTestService(ss, us, jwt, nil)
	result, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "password123"})

	require.NoError(t, err)
	assert.Equal(t, "signed-jwt", result.Bearer)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "u1", result.Session.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID:       "u1",
		PasswordHash: hash(t, "password123"),
		Enable:       true,
	}, nil)

	svc := newTestService(&mockSessionStore{}, us, &mockJWTSigner{}, nil)
	_, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "wrong"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_DisabledAccount(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID:       "u1",
		PasswordHash: hash(t, "password123"),
		Enable:       false,
	}, nil)

	svc := newTestService(&mockSessionStore{}, us, &mockJWTSigner{}, nil)
	_, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "password123"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

// --- Google login ---

func TestLoginWithGoogle_CreatesAccountOnFirstContact(t *testing.T) {
	gv := &mockGoogleVerifier{}
	gv.On("Verify", mock.Anything, "id-token").Return(&googleinfra.Payload{
		Sub:           "google-sub-1",
		Email:         "bob@example.com",
		EmailVerified: true,
		FirstName:     "Bob",
	}, nil)
	us := &mockUserStore{}
	us.On("GetByGoogleSub", mock.Anything, "google-sub-1").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "bob@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.GoogleSub == "google-sub-1" && u.AuthProvider == "google" && u.EmailConfirmed
	})).Return(nil)
	ss := &mockSessionStore{}
	ss.On("Put", mock.Anything, mock.Anything).Return(nil)
	jwt := &mockJWTSigner{}
	jwt.On("Sign", mock.Anything, domain.RoleUser, mock.Anything).Return("signed-jwt", nil)

	svc := newTestService(ss, us, jwt, gv)
	result, err := svc.LoginWithGoogle(context.Background(), GoogleLoginRequest{IDToken: "id-token"})

	require.NoError(t, err)
	assert.Equal(t, "signed-jwt", result.Bearer)
	us.AssertExpectations(t)
}

func TestLoginWithGoogle_LinksExistingLocalAccount(t *testing.T) {
	gv := &mockGoogleVerifier{}
	gv.On("Verify", mock.Anything, "id-token").Return(&googleinfra.Payload{
		Sub:           "google-sub-1",
		Email:         "alice@example.com",
		EmailVerified: true,
	}, nil)
	us := &mockUserStore{}
	us.On("GetByGoogleSub", mock.Anything, "google-sub-1").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID: "u1", Email: "alice@example.com", Role: domain.RoleUser, Enable: true,
	}, nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{"google_sub": "google-sub-1"}).Return(nil)
	ss := &mockSessionStore{}
	ss.On("Put", mock.Anything, mock.Anything).Return(nil)
	jwt := &mockJWTSigner{}
	jwt.On("Sign", "u1", domain.RoleUser, mock.Anything).Return("signed-jwt", nil)

	svc := newTestService(ss, us, jwt, gv)
	_, err := svc.LoginWithGoogle(context.Background(), GoogleLoginRequest{IDToken: "id-token"})

	require.NoError(t, err)
	us.AssertExpectations(t)
}

func TestLoginWithGoogle_NotConfigured(t *testing.T) {
	svc := newTestService(&mockSessionStore{}, &mockUserStore{}, &mockJWTSigner{}, nil)
	_, err := svc.LoginWithGoogle(context.Background(), GoogleLoginRequest{IDToken: "id-token"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- Refresh ---

func TestRefresh_RotatesToken(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(&domain.Session{
		SessionID:        "sess1",
		UserID:           "u1",
		Enable:           true,
		RefreshToken:     "old-token",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	ss.On("RotateRefreshToken", mock.Anything, "sess1", mock.Anything, mock.Anything).Return(nil)
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: domain.RoleUser}, nil)
	jwt := &mockJWTSigner{}
	jwt.On("Sign", "u1", domain.RoleUser, "sess1").Return("new-jwt", nil)

	svc := newTestService(ss, us, jwt, nil)
	bearer, newToken, err := svc.Refresh(context.Background(), "old-token")

	require.NoError(t, err)
	assert.Equal(t, "new-jwt", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "old-token", newToken)
	ss.AssertExpectations(t)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("GetByRefreshToken", mock.Anything, "stale").Return(&domain.Session{
		SessionID:        "sess1",
		Enable:           true,
		RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}, nil)

	svc := newTestService(ss, &mockUserStore{}, &mockJWTSigner{}, nil)
	_, _, err := svc.Refresh(context.Background(), "stale")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
