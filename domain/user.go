package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Role gates what an actor may do.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// UserStatus tells whether a member may borrow.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserInactive
}

// User represents a library member or administrator.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	Avatar       string     `json:"avatar,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == UserActive
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Normalize trims text fields and fills defaults for new records.
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Status == "" {
		u.Status = UserActive
	}
}

// Validate checks the fields required for a member record.
func (u *User) Validate() error {
	switch {
	case u == nil:
		return ErrInvalidPayload
	case u.Name == "":
		return NewError(ErrCodeInvalid, "name is required")
	case !ValidEmail(u.Email):
		return NewError(ErrCodeInvalid, "please provide a valid email")
	case !u.Role.Valid():
		return NewError(ErrCodeInvalid, "role must be either 'user' or 'admin'")
	case !u.Status.Valid():
		return NewError(ErrCodeInvalid, "status must be either 'active' or 'inactive'")
	}
	return nil
}

// MemberView is a user listing row with the number of open loans.
type MemberView struct {
	User
	BorrowedBooks int `json:"borrowedBooks"`
}

// UserPatch carries a field-level member update; nil fields are left alone.
type UserPatch struct {
	Name     *string     `json:"name"`
	Email    *string     `json:"email"`
	Password *string     `json:"password"`
	Role     *Role       `json:"role"`
	Status   *UserStatus `json:"status"`
	Avatar   *string     `json:"avatar"`
}

// TouchesPrivileges reports whether the patch changes role or status.
func (p UserPatch) TouchesPrivileges() bool {
	return p.Role != nil || p.Status != nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare address.
func ValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

const MinPasswordLength = 6
