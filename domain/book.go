package domain

import (
	"strings"
	"time"
)

// BookStatus is the availability of a catalog entry.
type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookBorrowed  BookStatus = "borrowed"
)

func (s BookStatus) Valid() bool {
	return s == BookAvailable || s == BookBorrowed
}

const DefaultLanguage = "English"

// Book is a catalog entry. Only the loan ledger changes Status.
type Book struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	ISBN          string     `json:"isbn"`
	Category      string     `json:"category"`
	Description   string     `json:"description,omitempty"`
	PublishedYear int        `json:"publishedYear,omitempty"`
	Publisher     string     `json:"publisher,omitempty"`
	Pages         int        `json:"pages,omitempty"`
	Language      string     `json:"language"`
	CoverImage    string     `json:"coverImage,omitempty"`
	Status        BookStatus `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (b *Book) IsAvailable() bool {
	return b != nil && b.Status == BookAvailable
}

// Normalize trims text fields and fills defaults for new records.
func (b *Book) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Category = strings.TrimSpace(b.Category)
	if b.Language == "" {
		b.Language = DefaultLanguage
	}
	if b.Status == "" {
		b.Status = BookAvailable
	}
}

// Validate checks the fields required for a catalog entry.
func (b *Book) Validate() error {
	switch {
	case b == nil:
		return ErrInvalidPayload
	case b.Title == "":
		return NewError(ErrCodeInvalid, "title is required")
	case b.Author == "":
		return NewError(ErrCodeInvalid, "author is required")
	case b.ISBN == "":
		return NewError(ErrCodeInvalid, "isbn is required")
	case b.Category == "":
		return NewError(ErrCodeInvalid, "category is required")
	case b.PublishedYear < 0 || b.Pages < 0:
		return NewError(ErrCodeInvalid, "publishedYear and pages must not be negative")
	case !b.Status.Valid():
		return Errorf(ErrCodeInvalid, "unknown book status %q", b.Status)
	}
	return nil
}

// BookPatch carries a field-level catalog update; nil fields are left alone.
type BookPatch struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	ISBN          *string `json:"isbn"`
	Category      *string `json:"category"`
	Description   *string `json:"description"`
	PublishedYear *int    `json:"publishedYear"`
	Publisher     *string `json:"publisher"`
	Pages         *int    `json:"pages"`
	Language      *string `json:"language"`
	CoverImage    *string `json:"coverImage"`
}

// Apply copies the set fields onto b.
func (p BookPatch) Apply(b *Book) {
	setString(&b.Title, p.Title)
	setString(&b.Author, p.Author)
	setString(&b.ISBN, p.ISBN)
	setString(&b.Category, p.Category)
	setString(&b.Description, p.Description)
	setString(&b.Publisher, p.Publisher)
	setString(&b.Language, p.Language)
	setString(&b.CoverImage, p.CoverImage)
	if p.PublishedYear != nil {
		b.PublishedYear = *p.PublishedYear
	}
	if p.Pages != nil {
		b.Pages = *p.Pages
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
