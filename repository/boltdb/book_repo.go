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

type bookRecord struct {
	domain.Book
	Seq uint64 `json:"seq"`
}

type bookRepository struct {
	run runner
}

func (r *bookRepository) GetByID(_ context.Context, id string) (*domain.Book, error) {
	var book *domain.Book
	err := r.run.view(func(tx *bolt.Tx) error {
		rec, err := loadBook(tx, id)
		if err != nil {
			return err
		}
		book = &rec.Book
		return nil
	})
	return book, err
}

func (r *bookRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Book, error) {
	return r.GetByID(ctx, id)
}

func (r *bookRepository) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	var id string
	if err := r.run.view(func(tx *bolt.Tx) error {
		raw := tx.Bucket(boltInfra.BucketBooksByISBN).Get([]byte(isbn))
		if raw == nil {
			return domain.ErrBookNotFound
		}
		id = string(raw)
		return nil
	}); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *bookRepository) List(_ context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	var matched []bookRecord
	err := r.run.view(func(tx *bolt.Tx) error {
		return tx.Bucket(boltInfra.BucketBooks).ForEach(func(_, v []byte) error {
			var rec bookRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if bookMatches(rec.Book, filter) {
				matched = append(matched, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}

	sortBooks(matched, filter.Sort.OrDefault())
	window := paginate(matched, filter.Page)
	books := make([]domain.Book, 0, len(window))
	for _, rec := range window {
		books = append(books, rec.Book)
	}
	return books, len(matched), nil
}

func (r *bookRepository) CountByStatus(_ context.Context) (map[domain.BookStatus]int, error) {
	counts := make(map[domain.BookStatus]int)
	err := r.run.view(func(tx *bolt.Tx) error {
		return tx.Bucket(boltInfra.BucketBooks).ForEach(func(_, v []byte) error {
			var rec bookRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			counts[rec.Status]++
			return nil
		})
	})
	return counts, err
}

func (r *bookRepository) Create(_ context.Context, book *domain.Book) error {
	if book == nil || book.ID == "" {
		return domain.ErrInvalidPayload
	}
	return r.run.update(func(tx *bolt.Tx) error {
		if tx.Bucket(boltInfra.BucketBooks).Get([]byte(book.ID)) != nil {
			return domain.Errorf(domain.ErrCodeConflict, "book %s already exists", book.ID)
		}
		if tx.Bucket(boltInfra.BucketBooksByISBN).Get([]byte(book.ISBN)) != nil {
			return domain.ErrDuplicateISBN
		}
		seq, err := nextSeq(tx, boltInfra.BucketBooks)
		if err != nil {
			return err
		}
		stamp(&book.CreatedAt, &book.UpdatedAt)
		if err := put(tx, boltInfra.BucketBooks, book.ID, bookRecord{Book: *book, Seq: seq}); err != nil {
			return err
		}
		return tx.Bucket(boltInfra.BucketBooksByISBN).Put([]byte(book.ISBN), []byte(book.ID))
	})
}

func (r *bookRepository) Update(_ context.Context, book *domain.Book) error {
	if book == nil {
		return domain.ErrInvalidPayload
	}
	return r.run.update(func(tx *bolt.Tx) error {
		rec, err := loadBook(tx, book.ID)
		if err != nil {
			return err
		}
		index := tx.Bucket(boltInfra.BucketBooksByISBN)
		if book.ISBN != rec.ISBN {
			if index.Get([]byte(book.ISBN)) != nil {
				return domain.ErrDuplicateISBN
			}
			if err := index.Delete([]byte(rec.ISBN)); err != nil {
				return err
			}
			if err := index.Put([]byte(book.ISBN), []byte(book.ID)); err != nil {
				return err
			}
		}
		if book.UpdatedAt.IsZero() {
			book.UpdatedAt = time.Now().UTC()
		}
		updated := *book
		updated.Status = rec.Status
		updated.CreatedAt = rec.CreatedAt
		return put(tx, boltInfra.BucketBooks, book.ID, bookRecord{Book: updated, Seq: rec.Seq})
	})
}

func (r *bookRepository) SetStatus(_ context.Context, id string, status domain.BookStatus, at time.Time) error {
	return r.run.update(func(tx *bolt.Tx) error {
		rec, err := loadBook(tx, id)
		if err != nil {
			return err
		}
		rec.Status = status
		rec.UpdatedAt = at
		if at.IsZero() {
			rec.UpdatedAt = time.Now().UTC()
		}
		return put(tx, boltInfra.BucketBooks, id, rec)
	})
}

func (r *bookRepository) Delete(_ context.Context, id string) error {
	return r.run.update(func(tx *bolt.Tx) error {
		rec, err := loadBook(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(boltInfra.BucketBooksByISBN).Delete([]byte(rec.ISBN)); err != nil {
			return err
		}
		return tx.Bucket(boltInfra.BucketBooks).Delete([]byte(id))
	})
}

func loadBook(tx *bolt.Tx, id string) (*bookRecord, error) {
	var rec bookRecord
	found, err := get(tx, boltInfra.BucketBooks, id, &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrBookNotFound
	}
	return &rec, nil
}

func bookMatches(book domain.Book, filter repository.BookFilter) bool {
	if filter.Status != "" && book.Status != filter.Status {
		return false
	}
	if filter.Category != "" && book.Category != filter.Category {
		return false
	}
	if filter.Search != "" &&
		!containsFold(book.Title, filter.Search) &&
		!containsFold(book.Author, filter.Search) &&
		!containsFold(book.ISBN, filter.Search) {
		return false
	}
	return true
}

func sortBooks(records []bookRecord, spec repository.SortSpec) {
	slices.SortStableFunc(records, func(a, b bookRecord) int {
		var c int
		switch spec.Field {
		case repository.SortTitle:
			c = cmp.Compare(a.Title, b.Title)
		case repository.SortAuthor:
			c = cmp.Compare(a.Author, b.Author)
		case repository.SortISBN:
			c = cmp.Compare(a.ISBN, b.ISBN)
		case repository.SortCategory:
			c = cmp.Compare(a.Category, b.Category)
		case repository.SortPublishedYear:
			c = cmp.Compare(a.PublishedYear, b.PublishedYear)
		case repository.SortStatus:
			c = cmp.Compare(a.Status, b.Status)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.Seq, b.Seq)
		}
		if spec.Desc {
			return -c
		}
		return c
	})
}

func stamp(createdAt, updatedAt *time.Time) {
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}
