package transport

import (
	"github.com/fastygo/library/domain"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// BookRequest is used for both create and update; absent fields are nil.
type BookRequest = domain.BookPatch

// ToBook builds a new catalog entry from a create request.
func ToBook(req BookRequest) *domain.Book {
	book := &domain.Book{}
	req.Apply(book)
	return book
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Avatar   string `json:"avatar"`
}

// UserRequest is a field-level member update.
type UserRequest = domain.UserPatch

type BorrowRequest struct {
	BookID string `json:"bookId"`
	UserID string `json:"userId"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// Decode unmarshals a JSON body into dst.
func Decode(body []byte, dst interface{}) error {
	if len(body) == 0 {
		return domain.ErrInvalidPayload
	}
	if err := JSON.Unmarshal(body, dst); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	return nil
}
