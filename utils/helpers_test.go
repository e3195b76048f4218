package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"www.Example.com", "example.com"},
		{"https://www.trendyol.com/urun/123?x=1", "trendyol.com"},
		{"shop.example.com:8080", "shop.example.com"},
		{"example.com.", "example.com"},
		{"n11.com/path", "n11.com"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeDomain(tc.input))
		})
	}
}

func TestSiteNameFromDomain(t *testing.T) {
	assert.Equal(t, "Trendyol", SiteNameFromDomain("www.trendyol.com"))
	assert.Equal(t, "Localhost", SiteNameFromDomain("localhost"))
}

func TestUniqueInt64s(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, UniqueInt64s([]int64{3, 1, 3, 2, 1}))
}
