package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UserID         string    `json:"id" dynamodbav:"user_id"`
	Email          string    `json:"email" dynamodbav:"email"`
	Phone          *string   `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash   string    `json:"-" dynamodbav:"password_hash"`
	FirstName      string    `json:"first_name" dynamodbav:"first_name"`
	LastName       string    `json:"last_name" dynamodbav:"last_name"`
	Role           string    `json:"role" dynamodbav:"role"`
	AuthProvider   string    `json:"auth_provider,omitempty" dynamodbav:"auth_provider"` // "local" | "google"
	GoogleSub      string    `json:"-" dynamodbav:"google_sub,omitempty"` // absent for local accounts, keeps google_sub-index sparse
	EmailConfirmed bool      `json:"email_confirmed" dynamodbav:"email_confirmed"`
	PhoneConfirmed bool      `json:"phone_confirmed" dynamodbav:"phone_confirmed"`
	Enable         bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     *string `json:"phone"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}
