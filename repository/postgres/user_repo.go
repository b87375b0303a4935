package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/repository"
)

const usersEmailKey = "users_email_key"

var userColumns = []interface{}{
	"id", "name", "email", "password_hash", "role", "status", "avatar", "created_at", "updated_at",
}

const userSelect = `
	SELECT id, name, email, password_hash, role, status, avatar, created_at, updated_at
	FROM users
`

type userRepository struct {
	q querier
}

func newUserRepository(q querier) repository.UserRepository {
	return &userRepository{q: q}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, userSelect+`WHERE id = $1`, id))
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, userSelect+`WHERE id = $1 FOR UPDATE`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, userSelect+`WHERE email = $1`, domain.NormalizeEmail(email)))
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.MemberView, int, error) {
	countSQL, countArgs, err := buildUserCountQuery(filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := countRows(ctx, r.q, countSQL, countArgs)
	if err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := buildUserListQuery(filter)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.q.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var members []domain.MemberView
	for rows.Next() {
		var (
			member       domain.MemberView
			role, status string
		)
		if err := rows.Scan(
			&member.ID,
			&member.Name,
			&member.Email,
			&member.PasswordHash,
			&role,
			&status,
			&member.Avatar,
			&member.CreatedAt,
			&member.UpdatedAt,
			&member.BorrowedBooks,
		); err != nil {
			return nil, 0, err
		}
		member.Role = domain.Role(role)
		member.Status = domain.UserStatus(status)
		members = append(members, member)
	}
	return members, total, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.q, `SELECT COUNT(*) FROM users`, nil)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (id, name, email, password_hash, role, status, avatar, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()), COALESCE($8, NOW()))
	RETURNING created_at, updated_at
	`

	if err := r.q.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		string(user.Status),
		user.Avatar,
		nullTime(user.CreatedAt),
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if uniqueViolationOn(err, usersEmailKey) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE users
	SET name = $2,
		email = $3,
		password_hash = $4,
		role = $5,
		status = $6,
		avatar = $7,
		updated_at = COALESCE($8, NOW())
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.q.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		string(user.Status),
		user.Avatar,
		nullTime(user.UpdatedAt),
	).Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		if uniqueViolationOn(err, usersEmailKey) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		user         domain.User
		role, status string
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&status,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	user.Role = domain.Role(role)
	user.Status = domain.UserStatus(status)
	return &user, nil
}
