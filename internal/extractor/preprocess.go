package extractor

import (
	"regexp"
	"strings"

	"PriceTracker/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	notNumeric    = regexp.MustCompile(`[^\d.,]`)
	notAlnum      = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// Preprocess runs the enabled pipeline steps in their fixed order: trim, case,
// whitespace collapse, character removal, replacements, numeric-only, alnum-only.
func Preprocess(value string, rules models.PreprocessingRules) string {
	if value == "" {
		return value
	}
	out := value

	if rules.TrimEnabled() {
		out = strings.TrimSpace(out)
	}

	switch {
	case rules.Lowercase:
		out = strings.ToLower(out)
	case rules.Uppercase:
		out = strings.ToUpper(out)
	case rules.TitleCase:
		out = cases.Title(language.Und).String(out)
	}

	if rules.NormalizeWhitespaceEnabled() {
		out = whitespaceRun.ReplaceAllString(out, " ")
	}

	for _, r := range rules.RemoveChars {
		out = strings.ReplaceAll(out, string(r), "")
	}

	for _, rep := range rules.Replacements {
		if rep.Old == "" {
			continue
		}
		out = strings.ReplaceAll(out, rep.Old, rep.New)
	}

	if rules.NumbersOnly {
		out = notNumeric.ReplaceAllString(out, "")
	}
	if rules.TextOnly {
		out = notAlnum.ReplaceAllString(out, "")
	}
	return out
}
