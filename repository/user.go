package repository

import (
	"context"

	"github.com/fastygo/library/domain"
)

type UserFilter struct {
	Role   domain.Role
	Status domain.UserStatus
	Search string
	Page   domain.PageRequest
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.MemberView, int, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
