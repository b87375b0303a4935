package membership

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/pkg/logger"
	"github.com/fastygo/library/pkg/password"
	"github.com/fastygo/library/repository"
)

// NewMember is the input for creating an account.
type NewMember struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	Status   domain.UserStatus
	Avatar   string
}

// Query is a member listing request.
type Query struct {
	Role   domain.Role
	Status domain.UserStatus
	Search string
	Page   domain.PageRequest
}

type UseCase struct {
	store  repository.Store
	clock  clock.Clock
	logger *zap.Logger
}

func New(store repository.Store, clk clock.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:  store,
		clock:  clock.OrSystem(clk),
		logger: logger,
	}
}

// Get returns a member to itself or to an admin.
func (uc *UseCase) Get(ctx context.Context, id string, actor domain.Actor) (*domain.User, error) {
	if err := actor.RequireSelfOrAdmin(id); err != nil {
		return nil, err
	}
	return uc.store.Users().GetByID(ctx, id)
}

func (uc *UseCase) GetByEmail(ctx context.Context, email string, actor domain.Actor) (*domain.User, error) {
	user, err := uc.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireSelfOrAdmin(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UseCase) List(ctx context.Context, query Query, actor domain.Actor) (domain.Page[domain.MemberView], error) {
	if err := actor.RequireAdmin(); err != nil {
		return domain.Page[domain.MemberView]{}, err
	}
	if query.Role != "" && !query.Role.Valid() {
		return domain.Page[domain.MemberView]{}, domain.Errorf(domain.ErrCodeInvalid, "unknown role %q", query.Role)
	}
	if query.Status != "" && !query.Status.Valid() {
		return domain.Page[domain.MemberView]{}, domain.Errorf(domain.ErrCodeInvalid, "unknown user status %q", query.Status)
	}
	filter := repository.UserFilter{
		Role:   query.Role,
		Status: query.Status,
		Search: query.Search,
		Page:   query.Page.Normalize(),
	}
	members, total, err := uc.store.Users().List(ctx, filter)
	if err != nil {
		return domain.Page[domain.MemberView]{}, err
	}
	return domain.NewPage(members, total, filter.Page), nil
}

// Create is the administrative account creation.
func (uc *UseCase) Create(ctx context.Context, input NewMember, actor domain.Actor) (*domain.User, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return uc.Register(ctx, input)
}

// Register creates an account without an acting identity. It backs
// self-service sign-up and demo seeding.
func (uc *UseCase) Register(ctx context.Context, input NewMember) (*domain.User, error) {
	now := uc.clock.Now()
	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Role:      input.Role,
		Status:    input.Status,
		Avatar:    strings.TrimSpace(input.Avatar),
		CreatedAt: now,
		UpdatedAt: now,
	}
	user.Normalize()
	if err := user.Validate(); err != nil {
		return nil, err
	}
	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := uc.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Info("user created",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// Update applies a field-level patch. Members may edit themselves but only
// admins may change role or status.
func (uc *UseCase) Update(ctx context.Context, id string, patch domain.UserPatch, actor domain.Actor) (*domain.User, error) {
	if err := actor.RequireSelfOrAdmin(id); err != nil {
		return nil, err
	}
	if patch.TouchesPrivileges() && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	var user *domain.User
	err := uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		user, err = repos.Users().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			user.Name = *patch.Name
		}
		if patch.Email != nil {
			user.Email = *patch.Email
		}
		if patch.Avatar != nil {
			user.Avatar = strings.TrimSpace(*patch.Avatar)
		}
		if patch.Role != nil {
			user.Role = *patch.Role
		}
		if patch.Status != nil {
			user.Status = *patch.Status
		}
		user.Normalize()
		if err := user.Validate(); err != nil {
			return err
		}
		if patch.Password != nil {
			hash, err := password.Hash(*patch.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}
		user.UpdatedAt = uc.clock.Now()
		return repos.Users().Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Info("user updated",
		zap.String("user_id", id),
		zap.String("actor_id", actor.ID),
	)
	return user, nil
}

// Delete removes a member with no open loan.
func (uc *UseCase) Delete(ctx context.Context, id string, actor domain.Actor) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("user_id", id))

	err := uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Users().GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		open, err := repos.Loans().CountOpenByUser(ctx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrUserHasLoans
		}
		return repos.Users().Delete(ctx, id)
	})
	if err != nil {
		log.Debug("user delete rejected", zap.Error(err))
		return err
	}

	log.Info("user deleted")
	return nil
}
