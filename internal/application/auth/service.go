package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/taptone-api/internal/domain"
	"github.com/taptone-api/internal/pkg/id"
	pkgtoken "github.com/taptone-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// Verification record types stored under one user.
const (
	verTypeOTP   = "otp"
	verTypeEmail = "email"
	verTypePhone = "phone"
)

const (
	otpTTL        = 15 * time.Minute
	emailTokenTTL = 24 * time.Hour
)

type PasswordRecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ValidateOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type Service interface {
	RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest) error
	ValidateOTP(ctx context.Context, req ValidateOTPRequest) (bearer, refreshToken string, session *domain.Session, err error)
	ChangePassword(ctx context.Context, userID, newPassword string) error
	RequestEmailConfirmation(ctx context.Context, userID string) error
	ValidateEmailToken(ctx context.Context, userID, token string) error
	RequestPhoneConfirmation(ctx context.Context, userID string) error
	ValidatePhoneOTP(ctx context.Context, userID, otp string) error
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.UserVerification) error
	Get(ctx context.Context, userID, verType string) (*domain.UserVerification, error)
	Delete(ctx context.Context, userID, verType string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type jwtSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

type service struct {
	verifications   verificationStore
	users           userStore
	sessions        sessionStore
	mailer          mailer
	sms             smsSender
	jwtProvider     jwtSigner
	refreshTokenDur time.Duration
	logger          *slog.Logger
}

type ServiceDeps struct {
	VerificationRepo verificationStore
	UserRepo         userStore
	SessionRepo      sessionStore
	Mailer           mailer
	SMSSender        smsSender
	JWTProvider      jwtSigner
	RefreshTokenDur  time.Duration
	Logger           *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		verifications:   deps.VerificationRepo,
		users:           deps.UserRepo,
		sessions:        deps.SessionRepo,
		mailer:          deps.Mailer,
		sms:             deps.SMSSender,
		jwtProvider:     deps.JWTProvider,
		refreshTokenDur: deps.RefreshTokenDur,
		logger:          logger,
	}
}

func (s *service) RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest) error {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	otp, err := newOTP()
	if err != nil {
		return err
	}
	v := &domain.UserVerification{
		UserID:    u.UserID,
		Type:      verTypeOTP,
		Code:      otp,
		ExpiresAt: time.Now().Add(otpTTL).Unix(),
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return err
	}
	return s.mailer.SendEmail(u.Email, "Password Recovery OTP", "Your OTP: "+otp)
}

// ValidateOTP burns the OTP and opens a session so the user can set a new
// password while signed in.
func (s *service) ValidateOTP(ctx context.Context, req ValidateOTPRequest) (string, string, *domain.Session, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", "", nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err := s.consume(ctx, u.UserID, verTypeOTP, req.OTP); err != nil {
		return "", "", nil, err
	}
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", nil, err
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
	if err := s.sessions.Put(ctx, sess); err != nil {
		return "", "", nil, err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return "", "", nil, err
	}
	sess.User = u
	return bearer, refreshToken, sess, nil
}

func (s *service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)})
}

func (s *service) RequestEmailConfirmation(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	tok, err := newEmailToken()
	if err != nil {
		return err
	}
	v := &domain.UserVerification{
		UserID:    userID,
		Type:      verTypeEmail,
		Code:      tok,
		ExpiresAt: time.Now().Add(emailTokenTTL).Unix(),
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return err
	}
	return s.mailer.SendEmail(u.Email, "Confirm your email", "Token: "+tok)
}

func (s *service) ValidateEmailToken(ctx context.Context, userID, token string) error {
	if err := s.consume(ctx, userID, verTypeEmail, token); err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"email_confirmed": true})
}

func (s *service) RequestPhoneConfirmation(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.Phone == nil {
		return fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
	}
	otp, err := newOTP()
	if err != nil {
		return err
	}
	v := &domain.UserVerification{
		UserID:    userID,
		Type:      verTypePhone,
		Code:      otp,
		ExpiresAt: time.Now().Add(otpTTL).Unix(),
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return err
	}
	return s.sms.SendSMS(ctx, *u.Phone, "Your confirmation code: "+otp)
}

func (s *service) ValidatePhoneOTP(ctx context.Context, userID, otp string) error {
	if err := s.consume(ctx, userID, verTypePhone, otp); err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"phone_confirmed": true})
}

// consume checks one verification record and deletes it on success.
func (s *service) consume(ctx context.Context, userID, verType, code string) error {
	v, err := s.verifications.Get(ctx, userID, verType)
	if err != nil {
		return fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	if v.Code != code {
		return fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}
	if v.ExpiresAt < time.Now().Unix() {
		return fmt.Errorf("code expired: %w", domain.ErrUnauthorized)
	}
	if err := s.verifications.Delete(ctx, userID, verType); err != nil {
		s.logger.Warn("failed to delete verification record",
			"user_id", userID, "type", verType, "error", err)
	}
	return nil
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func newEmailToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
