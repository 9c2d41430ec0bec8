package session

import (
	"context"
	"fmt"
	"time"

	"github.com/taptone-api/internal/domain"
	googleinfra "github.com/taptone-api/internal/infrastructure/google"
	"github.com/taptone-api/internal/pkg/id"
	pkgtoken "github.com/taptone-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	LoginWithGoogle(ctx context.Context, req GoogleLoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleSub(ctx context.Context, sub string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type jwtSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*googleinfra.Payload, error)
}

type service struct {
	repo            sessionStore
	users           userStore
	jwtProvider     jwtSigner
	google          googleVerifier
	refreshTokenDur time.Duration
}

type ServiceDeps struct {
	SessionRepo     sessionStore
	UserRepo        userStore
	JWTProvider     jwtSigner
	GoogleVerifier  googleVerifier
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:            deps.SessionRepo,
		users:           deps.UserRepo,
		jwtProvider:     deps.JWTProvider,
		google:          deps.GoogleVerifier,
		refreshTokenDur: deps.RefreshTokenDur,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return s.open(ctx, u)
}

// LoginWithGoogle verifies the Google ID token and signs the user in,
// creating the account on first contact. A local account with the same
// email is linked to the Google subject rather than duplicated.
func (s *service) LoginWithGoogle(ctx context.Context, req GoogleLoginRequest) (*LoginResult, error) {
	if s.google == nil {
		return nil, fmt.Errorf("google sign-in is not configured: %w", domain.ErrBadRequest)
	}
	payload, err := s.google.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, fmt.Errorf("google token rejected: %w", domain.ErrUnauthorized)
	}
	if !payload.EmailVerified {
		return nil, fmt.Errorf("google email not verified: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.GetByGoogleSub(ctx, payload.Sub)
	if err != nil {
		u, err = s.linkOrCreate(ctx, payload)
		if err != nil {
			return nil, err
		}
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	return s.open(ctx, u)
}

func (s *service) linkOrCreate(ctx context.Context, payload *googleinfra.Payload) (*domain.User, error) {
	if existing, err := s.users.GetByEmail(ctx, payload.Email); err == nil {
		if err := s.users.Update(ctx, existing.UserID, map[string]interface{}{
			"google_sub": payload.Sub,
		}); err != nil {
			return nil, err
		}
		existing.GoogleSub = payload.Sub
		return existing, nil
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:         id.New(),
		Email:          payload.Email,
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Role:           domain.RoleUser,
		AuthProvider:   "google",
		GoogleSub:      payload.Sub,
		EmailConfirmed: true,
		Enable:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) open(ctx context.Context, u *domain.User) (*LoginResult, error) {
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.repo.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session closed: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}

// Refresh rotates the refresh token: the presented token dies with the
// rotation, so a replayed token fails the lookup on its next use.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.repo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("refresh token: %w", domain.ErrUnauthorized)
	}
	if !sess.Enable || sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().Add(s.refreshTokenDur).Unix()
	if err := s.repo.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return "", "", err
	}
	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return "", "", err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}
