package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"
	RoleManager  Role = "manager"
	RoleHR       Role = "hr"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleSecurity: true,
	RoleManager:  true,
	RoleHR:       true,
}

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, validRoles[r]
}

func IsValidRole(role Role) bool {
	return validRoles[role]
}

type User struct {
	ID           int64     `json:"_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserInfo is the identity shape returned by the API, without the
// password hash.
type UserInfo struct {
	ID       int64  `json:"_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

func (r *CreateUserRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *CreateUserRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if r.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if r.Role == "" {
		return fmt.Errorf("%w: role is required", ErrValidation)
	}
	if !validRoles[r.Role] {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, r.Role)
	}
	return nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *LoginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	return nil
}

// LoginResult carries the authenticated identity together with its
// freshly issued token.
type LoginResult struct {
	ID       int64  `json:"_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Token    string `json:"token"`
}
