package repository

import "strings"

// SortSpec is a whitelisted ordering for book listings.
type SortSpec struct {
	Field string
	Desc  bool
}

// Book sort fields accepted by ParseBookSort.
const (
	SortCreatedAt     = "createdAt"
	SortTitle         = "title"
	SortAuthor        = "author"
	SortISBN          = "isbn"
	SortCategory      = "category"
	SortPublishedYear = "publishedYear"
	SortStatus        = "status"
)

var bookSortFields = map[string]string{
	"createdat":      SortCreatedAt,
	"created_at":     SortCreatedAt,
	"title":          SortTitle,
	"author":         SortAuthor,
	"isbn":           SortISBN,
	"category":       SortCategory,
	"publishedyear":  SortPublishedYear,
	"published_year": SortPublishedYear,
	"status":         SortStatus,
}

// DefaultBookSort lists the newest books first.
var DefaultBookSort = SortSpec{Field: SortCreatedAt, Desc: true}

// ParseBookSort reads "field:dir" (dir is asc or desc, default asc). Unknown
// fields fall back to DefaultBookSort.
func ParseBookSort(raw string) SortSpec {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultBookSort
	}
	field, dir, _ := strings.Cut(raw, ":")
	canonical, ok := bookSortFields[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return DefaultBookSort
	}
	return SortSpec{
		Field: canonical,
		Desc:  strings.EqualFold(strings.TrimSpace(dir), "desc"),
	}
}

func (s SortSpec) OrDefault() SortSpec {
	if s.Field == "" {
		return DefaultBookSort
	}
	return s
}
