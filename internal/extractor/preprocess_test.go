package extractor

import (
	"testing"

	"PriceTracker/internal/models"

	"github.com/stretchr/testify/assert"
)

func off() *bool {
	b := false
	return &b
}

func TestPreprocess(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		rules    models.PreprocessingRules
		expected string
	}{
		{"Defaults trim and collapse", "  Hello \n  World  ", models.PreprocessingRules{}, "Hello World"},
		{"Trim disabled", "  a  b ", models.PreprocessingRules{Trim: off()}, " a b "},
		{"Collapse disabled", " a  b ", models.PreprocessingRules{NormalizeWhitespace: off()}, "a  b"},
		{"Lowercase", "KIRMIZI Renk", models.PreprocessingRules{Lowercase: true}, "kirmizi renk"},
		{"Uppercase", "abc", models.PreprocessingRules{Uppercase: true}, "ABC"},
		{"Title case", "hello world", models.PreprocessingRules{TitleCase: true}, "Hello World"},
		{"Lowercase beats uppercase", "AbC", models.PreprocessingRules{Lowercase: true, Uppercase: true}, "abc"},
		{"Remove chars", "SKU-12/34", models.PreprocessingRules{RemoveChars: "-/"}, "SKU1234"},
		{"Replacements in order", "a", models.PreprocessingRules{Replacements: []models.Replacement{{Old: "a", New: "b"}, {Old: "b", New: "c"}}}, "c"},
		{"Numbers only", "Fiyat: 1.234,56 TL", models.PreprocessingRules{NumbersOnly: true}, "1.234,56"},
		{"Text only", "Hello, World! 42", models.PreprocessingRules{TextOnly: true}, "Hello World 42"},
		{"Remove then replace", "1 adet", models.PreprocessingRules{RemoveChars: " ", Replacements: []models.Replacement{{Old: "adet", New: " pcs"}}}, "1 pcs"},
		{"Empty", "", models.PreprocessingRules{Uppercase: true}, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Preprocess(tc.input, tc.rules))
		})
	}
}
