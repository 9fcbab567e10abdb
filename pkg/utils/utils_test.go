package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name            string
		query           string
		expectedPage    int
		expectedPerPage int
	}{
		{name: "defaults", query: "", expectedPage: 1, expectedPerPage: 20},
		{name: "explicit values", query: "page=3&per_page=50", expectedPage: 3, expectedPerPage: 50},
		{name: "per_page clamped", query: "per_page=5000", expectedPage: 1, expectedPerPage: 100},
		{name: "garbage ignored", query: "page=abc&per_page=-2", expectedPage: 1, expectedPerPage: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			page, perPage := ParsePagination(values)
			assert.Equal(t, tt.expectedPage, page)
			assert.Equal(t, tt.expectedPerPage, perPage)
		})
	}
}

func TestParseDate(t *testing.T) {
	if _, ok := ParseDate(""); ok {
		t.Fatal("empty string must not parse")
	}

	parsed, ok := ParseDate("2024-06-15")
	assert.True(t, ok)
	assert.Equal(t, 2024, parsed.Year())

	parsed, ok = ParseDate("2024-06-15T10:30:00Z")
	assert.True(t, ok)
	assert.Equal(t, 10, parsed.Hour())

	_, ok = ParseDate("15/06/2024")
	assert.False(t, ok)
}
