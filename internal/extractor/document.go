package extractor

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var (
	ErrEmptyContent = errors.New("empty content")
	ErrNotMarkup    = errors.New("content is not markup")
)

// AttrText selects the element text instead of an attribute.
const AttrText = "text"

// Document is parsed page content ready for selector queries.
type Document struct {
	doc *goquery.Document
}

// Parse parses raw page content. It fails only when the content cannot be
// treated as markup at all.
func Parse(content []byte) (*Document, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyContent
	}
	if bytes.IndexByte(content, '<') < 0 {
		return nil, ErrNotMarkup
	}
	// Stray bytes from a mislabelled charset must not sink the whole page.
	if !utf8.Valid(content) {
		content = bytes.ToValidUTF8(content, []byte("\uFFFD"))
	}
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMarkup, err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// ContentHash is the hex SHA-256 of the raw fetched bytes.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

var selectorCache sync.Map

func compile(selector string) (cascadia.Selector, error) {
	if cached, ok := selectorCache.Load(selector); ok {
		return cached.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	selectorCache.Store(selector, sel)
	return sel, nil
}

// First returns the first element matching selector in document order.
func (d *Document) First(selector string) (*goquery.Selection, bool, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, false, err
	}
	found := d.doc.FindMatcher(sel)
	if found.Length() == 0 {
		return nil, false, nil
	}
	return found.First(), true, nil
}

// Raw reads the text (attribute "text" or "") or the named attribute of the
// first element matching selector. A missing element or an empty value is
// reported as not found, never as an error.
func (d *Document) Raw(selector, attribute string) (string, bool, error) {
	el, ok, err := d.First(selector)
	if err != nil || !ok {
		return "", false, err
	}
	if attribute == "" || attribute == AttrText {
		text := strings.TrimSpace(el.Text())
		return text, text != "", nil
	}
	value, exists := el.Attr(attribute)
	if !exists || strings.TrimSpace(value) == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Title returns the text of the page <title>.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}
