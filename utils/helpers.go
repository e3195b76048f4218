package utils

import (
	"net"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeDomain lower-cases a host or URL and strips scheme, port and a leading "www.".
func NormalizeDomain(hostOrURL string) string {
	s := strings.ToLower(strings.TrimSpace(hostOrURL))
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Host
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.TrimSuffix(s, ".")
	return strings.TrimPrefix(s, "www.")
}

// SiteNameFromDomain derives a display name from the first label of a domain.
func SiteNameFromDomain(domain string) string {
	label := NormalizeDomain(domain)
	if i := strings.Index(label, "."); i > 0 {
		label = label[:i]
	}
	return cases.Title(language.Und).String(label)
}

// UniqueInt64s returns ids without duplicates, keeping first occurrence order.
func UniqueInt64s(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
