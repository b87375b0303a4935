// Package seed loads the demo accounts and sample catalog.
package seed

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/repository"
	"github.com/fastygo/library/usecase/catalog"
	"github.com/fastygo/library/usecase/membership"
)

// Account is a demo login.
type Account struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

var DemoAccounts = []Account{
	{Name: "Admin User", Email: "admin@example.com", Password: "admin123", Role: domain.RoleAdmin},
	{Name: "Regular User", Email: "user@example.com", Password: "user123", Role: domain.RoleUser},
}

func year(y int) *int       { return &y }
func text(s string) *string { return &s }

var SampleBooks = []domain.BookPatch{
	{
		Title: text("To Kill a Mockingbird"), Author: text("Harper Lee"), ISBN: text("9780061120084"),
		Category:      text("Fiction"),
		Description:   text("The unforgettable novel of a childhood in a sleepy Southern town and the crisis of conscience that rocked it."),
		PublishedYear: year(1960), Publisher: text("HarperCollins"), Pages: year(336),
		CoverImage: text("https://images-na.ssl-images-amazon.com/images/I/71FxgtFKcQL.jpg"),
	},
	{
		Title: text("1984"), Author: text("George Orwell"), ISBN: text("9780451524935"),
		Category:      text("Science Fiction"),
		Description:   text("A dystopian novel set in a totalitarian society."),
		PublishedYear: year(1949), Publisher: text("Signet Classic"), Pages: year(328),
		CoverImage: text("https://images-na.ssl-images-amazon.com/images/I/71kxa1-0mfL.jpg"),
	},
	{
		Title: text("The Great Gatsby"), Author: text("F. Scott Fitzgerald"), ISBN: text("9780743273565"),
		Category:      text("Fiction"),
		Description:   text("A portrait of the Jazz Age in all of its decadence and excess."),
		PublishedYear: year(1925), Publisher: text("Scribner"), Pages: year(180),
		CoverImage: text("https://images-na.ssl-images-amazon.com/images/I/71FTb9X6wsL.jpg"),
	},
	{
		Title: text("Pride and Prejudice"), Author: text("Jane Austen"), ISBN: text("9780141439518"),
		Category:      text("Romance"),
		Description:   text("A romantic novel of manners."),
		PublishedYear: year(1813), Publisher: text("Penguin Classics"), Pages: year(480),
		CoverImage: text("https://images-na.ssl-images-amazon.com/images/I/71Q1tPupKjL.jpg"),
	},
	{
		Title: text("The Catcher in the Rye"), Author: text("J.D. Salinger"), ISBN: text("9780316769488"),
		Category:      text("Fiction"),
		Description:   text("The story of a teenage boy dealing with alienation."),
		PublishedYear: year(1951), Publisher: text("Little, Brown and Company"), Pages: year(277),
		CoverImage: text("https://images-na.ssl-images-amazon.com/images/I/81OthjkJBuL.jpg"),
	},
}

// Result counts what a run created.
type Result struct {
	Users int
	Books int
}

type Seeder struct {
	store   repository.Store
	members *membership.UseCase
	catalog *catalog.UseCase
	logger  *zap.Logger
}

func New(store repository.Store, members *membership.UseCase, books *catalog.UseCase, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{store: store, members: members, catalog: books, logger: logger}
}

// Run creates missing demo accounts, and the sample books when the catalog
// is empty. Running it again creates nothing.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	for _, acc := range DemoAccounts {
		_, err := s.store.Users().GetByEmail(ctx, acc.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return res, err
		}
		if _, err := s.members.Register(ctx, membership.NewMember{
			Name:     acc.Name,
			Email:    acc.Email,
			Password: acc.Password,
			Role:     acc.Role,
		}); err != nil {
			return res, err
		}
		res.Users++
	}

	_, total, err := s.store.Books().List(ctx, repository.BookFilter{Page: domain.PageRequest{Page: 1, Limit: 1}})
	if err != nil {
		return res, err
	}
	if total == 0 {
		for _, patch := range SampleBooks {
			book := &domain.Book{}
			patch.Apply(book)
			if _, err := s.catalog.Create(ctx, book, domain.SystemActor); err != nil {
				return res, err
			}
			res.Books++
		}
	}

	s.logger.Info("demo data seeded", zap.Int("users", res.Users), zap.Int("books", res.Books))
	return res, nil
}
