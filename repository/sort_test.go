package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBookSort(t *testing.T) {
	cases := map[string]SortSpec{
		"":                   DefaultBookSort,
		"title":              {Field: SortTitle},
		"title:desc":         {Field: SortTitle, Desc: true},
		"publishedYear:DESC": {Field: SortPublishedYear, Desc: true},
		"created_at:asc":     {Field: SortCreatedAt},
		"password:desc":      DefaultBookSort,
		"; DROP TABLE books": DefaultBookSort,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseBookSort(raw), "sort %q", raw)
	}
}
