package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/repository"
)

const booksISBNKey = "books_isbn_key"

var bookColumns = []interface{}{
	"id", "title", "author", "isbn", "category", "description", "published_year",
	"publisher", "pages", "language", "cover_image", "status", "created_at", "updated_at",
}

const bookSelect = `
	SELECT id, title, author, isbn, category, description, published_year,
		publisher, pages, language, cover_image, status, created_at, updated_at
	FROM books
`

type bookRepository struct {
	q querier
}

func newBookRepository(q querier) repository.BookRepository {
	return &bookRepository{q: q}
}

func (r *bookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	return scanBook(r.q.QueryRow(ctx, bookSelect+`WHERE id = $1`, id))
}

func (r *bookRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Book, error) {
	return scanBook(r.q.QueryRow(ctx, bookSelect+`WHERE id = $1 FOR UPDATE`, id))
}

func (r *bookRepository) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return scanBook(r.q.QueryRow(ctx, bookSelect+`WHERE isbn = $1`, isbn))
}

func (r *bookRepository) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	countSQL, countArgs, err := buildBookCountQuery(filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := countRows(ctx, r.q, countSQL, countArgs)
	if err != nil {
		return nil, 0, err
	}

	listSQL, listArgs, err := buildBookListQuery(filter)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.q.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, *book)
	}
	return books, total, rows.Err()
}

func (r *bookRepository) CountByStatus(ctx context.Context) (map[domain.BookStatus]int, error) {
	rows, err := r.q.Query(ctx, `SELECT status, COUNT(*) FROM books GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.BookStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.BookStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	if book == nil || book.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO books (id, title, author, isbn, category, description, published_year,
		publisher, pages, language, cover_image, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, NOW()), COALESCE($13, NOW()))
	RETURNING created_at, updated_at
	`

	if err := r.q.QueryRow(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.ISBN,
		book.Category,
		book.Description,
		book.PublishedYear,
		book.Publisher,
		book.Pages,
		book.Language,
		book.CoverImage,
		string(book.Status),
		nullTime(book.CreatedAt),
	).Scan(&book.CreatedAt, &book.UpdatedAt); err != nil {
		if uniqueViolationOn(err, booksISBNKey) {
			return domain.ErrDuplicateISBN
		}
		return err
	}
	return nil
}

func (r *bookRepository) Update(ctx context.Context, book *domain.Book) error {
	if book == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE books
	SET title = $2,
		author = $3,
		isbn = $4,
		category = $5,
		description = $6,
		published_year = $7,
		publisher = $8,
		pages = $9,
		language = $10,
		cover_image = $11,
		updated_at = COALESCE($12, NOW())
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.q.QueryRow(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.ISBN,
		book.Category,
		book.Description,
		book.PublishedYear,
		book.Publisher,
		book.Pages,
		book.Language,
		book.CoverImage,
		nullTime(book.UpdatedAt),
	).Scan(&book.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrBookNotFound
		}
		if uniqueViolationOn(err, booksISBNKey) {
			return domain.ErrDuplicateISBN
		}
		return err
	}
	return nil
}

func (r *bookRepository) SetStatus(ctx context.Context, id string, status domain.BookStatus, at time.Time) error {
	const query = `UPDATE books SET status = $2, updated_at = COALESCE($3, NOW()) WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, string(status), nullTime(at))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func scanBook(row scanner) (*domain.Book, error) {
	var (
		book   domain.Book
		status string
	)
	if err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Category,
		&book.Description,
		&book.PublishedYear,
		&book.Publisher,
		&book.Pages,
		&book.Language,
		&book.CoverImage,
		&status,
		&book.CreatedAt,
		&book.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	book.Status = domain.BookStatus(status)
	return &book, nil
}
