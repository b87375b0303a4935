package boltdb

import (
	"cmp"
	"context"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/library/domain"
	boltInfra "github.com/fastygo/library/internal/infrastructure/boltdb"
	"github.com/fastygo/library/repository"
)

// userRecord persists the password hash the domain type hides from JSON.
type userRecord struct {
	domain.User
	PasswordHash string `json:"password_hash"`
	Seq          uint64 `json:"seq"`
}

func newUserRecord(user domain.User, seq uint64) userRecord {
	return userRecord{User: user, PasswordHash: user.PasswordHash, Seq: seq}
}

func (r userRecord) user() domain.User {
	u := r.User
	u.PasswordHash = r.PasswordHash
	return u
}

type userRepository struct {
	run runner
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := r.run.view(func(tx *bolt.Tx) error {
		rec, err := loadUser(tx, id)
		if err != nil {
			return err
		}
		u := rec.user()
		user = &u
		return nil
	})
	return user, err
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var id string
	if err := r.run.view(func(tx *bolt.Tx) error {
		raw := tx.Bucket(boltInfra.BucketUsersByEmail).Get([]byte(domain.NormalizeEmail(email)))
		if raw == nil {
			return domain.ErrUserNotFound
		}
		id = string(raw)
		return nil
	}); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.MemberView, int, error) {
	var (
		matched []userRecord
		open    = make(map[string]int)
	)
	err := r.run.view(func(tx *bolt.Tx) error {
		if err := tx.Bucket(boltInfra.BucketUsers).ForEach(func(_, v []byte) error {
			var rec userRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if userMatches(rec.User, filter) {
				matched = append(matched, rec)
			}
			return nil
		}); err != nil {
			return err
		}
		return forEachLoan(tx, func(rec loanRecord) error {
			if rec.Status.IsOpen() {
				open[rec.UserID]++
			}
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}

	slices.SortStableFunc(matched, func(a, b userRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Seq, a.Seq)
	})

	window := paginate(matched, filter.Page)
	members := make([]domain.MemberView, 0, len(window))
	for _, rec := range window {
		members = append(members, domain.MemberView{User: rec.user(), BorrowedBooks: open[rec.ID]})
	}
	return members, len(matched), nil
}

func (r *userRepository) Count(_ context.Context) (int, error) {
	var n int
	err := r.run.view(func(tx *bolt.Tx) error {
		return tx.Bucket(boltInfra.BucketUsers).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n, err
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	user.Email = domain.NormalizeEmail(user.Email)
	return r.run.update(func(tx *bolt.Tx) error {
		if tx.Bucket(boltInfra.BucketUsers).Get([]byte(user.ID)) != nil {
			return domain.Errorf(domain.ErrCodeConflict, "user %s already exists", user.ID)
		}
		if tx.Bucket(boltInfra.BucketUsersByEmail).Get([]byte(user.Email)) != nil {
			return domain.ErrDuplicateEmail
		}
		seq, err := nextSeq(tx, boltInfra.BucketUsers)
		if err != nil {
			return err
		}
		stamp(&user.CreatedAt, &user.UpdatedAt)
		if err := put(tx, boltInfra.BucketUsers, user.ID, newUserRecord(*user, seq)); err != nil {
			return err
		}
		return tx.Bucket(boltInfra.BucketUsersByEmail).Put([]byte(user.Email), []byte(user.ID))
	})
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	user.Email = domain.NormalizeEmail(user.Email)
	return r.run.update(func(tx *bolt.Tx) error {
		rec, err := loadUser(tx, user.ID)
		if err != nil {
			return err
		}
		index := tx.Bucket(boltInfra.BucketUsersByEmail)
		if user.Email != rec.Email {
			if index.Get([]byte(user.Email)) != nil {
				return domain.ErrDuplicateEmail
			}
			if err := index.Delete([]byte(rec.Email)); err != nil {
				return err
			}
			if err := index.Put([]byte(user.Email), []byte(user.ID)); err != nil {
				return err
			}
		}
		if user.UpdatedAt.IsZero() {
			user.UpdatedAt = time.Now().UTC()
		}
		updated := *user
		updated.CreatedAt = rec.CreatedAt
		return put(tx, boltInfra.BucketUsers, user.ID, newUserRecord(updated, rec.Seq))
	})
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	return r.run.update(func(tx *bolt.Tx) error {
		rec, err := loadUser(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(boltInfra.BucketUsersByEmail).Delete([]byte(rec.Email)); err != nil {
			return err
		}
		return tx.Bucket(boltInfra.BucketUsers).Delete([]byte(id))
	})
}

func loadUser(tx *bolt.Tx, id string) (*userRecord, error) {
	var rec userRecord
	found, err := get(tx, boltInfra.BucketUsers, id, &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrUserNotFound
	}
	return &rec, nil
}

func userMatches(user domain.User, filter repository.UserFilter) bool {
	if filter.Role != "" && user.Role != filter.Role {
		return false
	}
	if filter.Status != "" && user.Status != filter.Status {
		return false
	}
	if filter.Search != "" &&
		!containsFold(user.Name, filter.Search) &&
		!containsFold(user.Email, filter.Search) {
		return false
	}
	return true
}
