package extractor

import (
	"strings"
	"unicode"
)

// Negative phrases are checked first: "stokta yok" contains "stokta".
var (
	outOfStockPhrases = []string{
		"stokta yok", "tükendi", "mevcut değil", "kargo yok",
		"out of stock", "sold out", "unavailable", "not available",
	}
	inStockPhrases = []string{
		"stokta", "mevcut", "var", "hazır", "kargo var",
		"in stock", "available", "ready",
	}
	outOfStockClasses = []string{"out-of-stock", "sold-out", "unavailable"}
	inStockClasses    = []string{"in-stock", "available"}
)

var (
	positiveWords = []string{"true", "1", "yes", "var", "evet", "mevcut", "active"}
	negativeWords = []string{"false", "0", "no", "yok", "hayır", "inactive"}
)

var currencyCodes = map[string]string{
	"₺":   "TRY",
	"tl":  "TRY",
	"try": "TRY",
	"$":   "USD",
	"usd": "USD",
	"€":   "EUR",
	"eur": "EUR",
	"£":   "GBP",
	"gbp": "GBP",
}

// DefaultCurrency is reported when no currency can be recognised.
const DefaultCurrency = "TRY"

func boolPtr(b bool) *bool { return &b }

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// StockFromText classifies availability text; nil means inconclusive.
func StockFromText(text string) *bool {
	lower := strings.ToLower(text)
	if containsAny(lower, outOfStockPhrases) {
		return boolPtr(false)
	}
	if containsAny(lower, inStockPhrases) {
		return boolPtr(true)
	}
	return nil
}

// StockFromClasses classifies an element's class attribute.
func StockFromClasses(class string) *bool {
	lower := strings.ToLower(class)
	if containsAny(lower, outOfStockClasses) {
		return boolPtr(false)
	}
	if containsAny(lower, inStockClasses) {
		return boolPtr(true)
	}
	return nil
}

// ParseBool matches value against the positive then the negative lexicon.
// Ambiguous input yields nil.
func ParseBool(value string) *bool {
	lower := strings.ToLower(value)
	if containsAny(lower, positiveWords) {
		return boolPtr(true)
	}
	if containsAny(lower, negativeWords) {
		return boolPtr(false)
	}
	return nil
}

// NormalizeCurrency maps a symbol or code to a three-letter code. An exact
// match is tried first, then a symbol or code inside the text.
func NormalizeCurrency(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if code, ok := currencyCodes[lower]; ok {
		return code
	}
	for _, sym := range []string{"₺", "€", "£", "$"} {
		if strings.Contains(lower, sym) {
			return currencyCodes[sym]
		}
	}
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if code, ok := currencyCodes[w]; ok {
			return code
		}
	}
	return DefaultCurrency
}
