package catalog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/pkg/clock"
	"github.com/fastygo/library/pkg/logger"
	"github.com/fastygo/library/repository"
)

// Query is a catalog listing request as received from a caller.
type Query struct {
	Status   domain.BookStatus
	Category string
	Search   string
	// Sort is "field:dir", e.g. "title:asc".
	Sort string
	Page domain.PageRequest
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

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Book, error) {
	return uc.store.Books().GetByID(ctx, id)
}

func (uc *UseCase) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return uc.store.Books().GetByISBN(ctx, isbn)
}

func (uc *UseCase) List(ctx context.Context, query Query) (domain.Page[domain.Book], error) {
	if query.Status != "" && !query.Status.Valid() {
		return domain.Page[domain.Book]{}, domain.Errorf(domain.ErrCodeInvalid, "unknown book status %q", query.Status)
	}
	filter := repository.BookFilter{
		Status:   query.Status,
		Category: query.Category,
		Search:   query.Search,
		Sort:     repository.ParseBookSort(query.Sort),
		Page:     query.Page.Normalize(),
	}
	books, total, err := uc.store.Books().List(ctx, filter)
	if err != nil {
		return domain.Page[domain.Book]{}, err
	}
	return domain.NewPage(books, total, filter.Page), nil
}

// Create adds a book to the catalog. New books are always available.
func (uc *UseCase) Create(ctx context.Context, book *domain.Book, actor domain.Actor) (*domain.Book, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.ErrInvalidPayload
	}

	now := uc.clock.Now()
	book.ID = uuid.NewString()
	book.Status = domain.BookAvailable
	book.CreatedAt = now
	book.UpdatedAt = now
	book.Normalize()
	if err := book.Validate(); err != nil {
		return nil, err
	}
	if err := uc.store.Books().Create(ctx, book); err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Info("book created",
		zap.String("book_id", book.ID),
		zap.String("isbn", book.ISBN),
	)
	return book, nil
}

// Update applies a field-level patch. Status is owned by the loan ledger and
// cannot be changed here.
func (uc *UseCase) Update(ctx context.Context, id string, patch domain.BookPatch, actor domain.Actor) (*domain.Book, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	var book *domain.Book
	err := uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		book, err = repos.Books().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(book)
		book.Normalize()
		if err := book.Validate(); err != nil {
			return err
		}
		book.UpdatedAt = uc.clock.Now()
		return repos.Books().Update(ctx, book)
	})
	if err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Info("book updated", zap.String("book_id", id))
	return book, nil
}

// Delete removes a book that has no open loan. Past loans keep referencing
// the deleted id.
func (uc *UseCase) Delete(ctx context.Context, id string, actor domain.Actor) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("book_id", id))

	err := uc.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Books().GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		open, err := repos.Loans().CountOpenByBook(ctx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrBookHasLoans
		}
		return repos.Books().Delete(ctx, id)
	})
	if err != nil {
		log.Debug("book delete rejected", zap.Error(err))
		return err
	}

	log.Info("book deleted")
	return nil
}
