package user

import (
	"context"
	"fmt"
	"time"

	"github.com/taptone-api/internal/domain"
	"github.com/taptone-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmail        = "email"
	fieldPhone        = "phone"
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldPasswordHash = "password_hash"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type sessionStore interface {
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type service struct {
	repo     userStore
	sessions sessionStore
}

type ServiceDeps struct {
	UserRepo    userStore
	SessionRepo sessionStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		sessions: deps.SessionRepo,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         domain.RoleUser,
		AuthProvider: "local",
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Email != nil && *req.Email != u.Email {
		if _, err := s.repo.GetByEmail(ctx, *req.Email); err == nil {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		updates[fieldEmail] = *req.Email
		u.Email = *req.Email
		// A changed address has not been confirmed yet.
		updates["email_confirmed"] = false
		u.EmailConfirmed = false
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
		u.Phone = req.Phone
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
		u.LastName = *req.LastName
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password does not match: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

// Delete disables the account and closes every open session. Rows are kept;
// nothing in the store is ever physically removed for users.
func (s *service) Delete(ctx context.Context, userID string) error {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	return s.sessions.SoftDeleteByUser(ctx, userID)
}
