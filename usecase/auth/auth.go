package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/pkg/logger"
	"github.com/fastygo/library/pkg/password"
	"github.com/fastygo/library/pkg/token"
	"github.com/fastygo/library/repository"
	"github.com/fastygo/library/usecase/membership"
)

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, input membership.NewMember) (*domain.User, error)
}

// Credentials is a login attempt. Role, when set, must match the account.
type Credentials struct {
	Email    string
	Password string
	Role     domain.Role
}

// Login is a successful authentication.
type Login struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

type UseCase struct {
	users     repository.UserRepository
	registrar Registrar
	sessions  repository.SessionRepository
	tokens    *token.Manager
	clock     clock.Clock
	logger    *zap.Logger
}

// New wires the auth flows. sessions may be nil, in which case tokens are
// stateless and Logout is a no-op.
func New(users repository.UserRepository, registrar Registrar, sessions repository.SessionRepository, tokens *token.Manager, clk clock.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:     users,
		registrar: registrar,
		sessions:  sessions,
		tokens:    tokens,
		clock:     clock.OrSystem(clk),
		logger:    logger,
	}
}

// Register is self-service sign-up. Any role other than admin becomes user.
func (uc *UseCase) Register(ctx context.Context, input membership.NewMember) (*domain.User, error) {
	if input.Role != domain.RoleAdmin {
		input.Role = domain.RoleUser
	}
	input.Status = domain.UserActive
	return uc.registrar.Register(ctx, input)
}

func (uc *UseCase) Login(ctx context.Context, creds Credentials) (*Login, error) {
	log := logger.WithRequestID(ctx, uc.logger)

	user, err := uc.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredential
		}
		return nil, err
	}
	if err := password.Compare(user.PasswordHash, creds.Password); err != nil {
		log.Debug("login rejected", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	if creds.Role != "" && user.Role != creds.Role {
		return nil, domain.Errorf(domain.ErrCodeUnauthorized, "invalid account type, you are not registered as %s", creds.Role)
	}
	if !user.IsActive() {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "account is inactive, please contact an administrator")
	}

	actor := domain.Actor{ID: user.ID, Role: user.Role}
	sessionID := ""
	if uc.sessions != nil {
		now := uc.clock.Now()
		session := &domain.Session{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Role:      user.Role,
			CreatedAt: now,
			ExpiresAt: now.Add(uc.tokens.TTL()),
		}
		if err := uc.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
		sessionID = session.ID
	}

	signed, expiresAt, err := uc.tokens.Issue(actor, sessionID)
	if err != nil {
		return nil, err
	}

	log.Info("user logged in", zap.String("user_id", user.ID), zap.String("session_id", sessionID))
	return &Login{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a bearer token to an actor, checking that its
// session is still live when sessions are enabled.
func (uc *UseCase) Authenticate(ctx context.Context, raw string) (domain.Actor, *token.Claims, error) {
	claims, err := uc.tokens.Parse(raw)
	if err != nil {
		return domain.Actor{}, nil, err
	}
	if uc.sessions == nil || claims.SessionID == "" {
		return claims.Actor(), claims, nil
	}

	session, err := uc.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Actor{}, nil, domain.NewError(domain.ErrCodeUnauthorized, "session revoked")
		}
		return domain.Actor{}, nil, err
	}
	if session.IsExpired(uc.clock.Now()) || session.UserID != claims.UserID {
		_ = uc.sessions.Delete(ctx, session.ID)
		return domain.Actor{}, nil, domain.NewError(domain.ErrCodeUnauthorized, "session expired")
	}
	return session.Actor(), claims, nil
}

// Logout revokes the session behind a token.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	if uc.sessions == nil || sessionID == "" {
		return nil
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Info("session revoked", zap.String("session_id", sessionID))
	return nil
}

// Me returns the profile of the authenticated actor.
func (uc *UseCase) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if actor.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.users.GetByID(ctx, actor.ID)
}
