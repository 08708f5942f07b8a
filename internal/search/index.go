// Package search provides a small, deterministic, concurrency-safe in-memory
// index over a pending approval queue:
//
//   - No logging in the library (callers decide how/what to log)
//   - Accent- and case-insensitive matching ("dinh" finds "Đình")
//   - Immutable after construction (safe for concurrent use)
//   - Results keep queue order
//
// A document matches when every query token is a prefix of one of its tokens.
// Indexed text is the document code, partner name and code, creator, note,
// and product names and codes.
package search

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
)

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minPrefixRunes int
	stopwords      map[string]struct{}
}

func defaultConfig() config {
	return config{minPrefixRunes: 2}
}

// WithMinPrefixRunes sets how long a query token must be before it matches
// as a prefix; shorter tokens must match a whole token.
func WithMinPrefixRunes(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.minPrefixRunes = n
		}
	}
}

// WithStopwords drops the given words from queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = Fold(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type entry struct {
	doc    domain.Document
	tokens map[string]struct{}
}

// Index is a read-only search index over documents.
type Index struct {
	cfg     config
	entries []entry
}

// NewIndex indexes docs in the given order.
func NewIndex(docs []domain.Document, opts ...Option) *Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	entries := make([]entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, entry{doc: d, tokens: tokenize(documentText(d), nil)})
	}
	return &Index{cfg: cfg, entries: entries}
}

// Len returns the number of indexed documents.
func (i *Index) Len() int { return len(i.entries) }

// Filter returns the documents matching q in index order. A blank query, or
// one made only of stopwords, returns every document.
func (i *Index) Filter(q string) []domain.Document {
	out := make([]domain.Document, 0, len(i.entries))
	terms := queryTerms(q, i.cfg.stopwords)
	for _, e := range i.entries {
		if len(terms) == 0 || i.matches(terms, e.tokens) {
			out = append(out, e.doc)
		}
	}
	return out
}

func (i *Index) matches(terms []string, tokens map[string]struct{}) bool {
	for _, t := range terms {
		if _, ok := tokens[t]; ok {
			continue
		}
		if utf8.RuneCountInString(t) < i.cfg.minPrefixRunes || !hasPrefixToken(tokens, t) {
			return false
		}
	}
	return true
}

// Filter is a one-shot NewIndex(docs, opts...).Filter(q).
func Filter(docs []domain.Document, q string, opts ...Option) []domain.Document {
	return NewIndex(docs, opts...).Filter(q)
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips combining marks. The Vietnamese đ has no
// decomposition and is mapped to d explicitly.
func Fold(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	return strings.NewReplacer("đ", "d").Replace(out)
}

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(Fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

// queryTerms returns the distinct query tokens in input order.
func queryTerms(q string, stop map[string]struct{}) []string {
	words := wordRE.FindAllString(Fold(q), -1)
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func hasPrefixToken(tokens map[string]struct{}, prefix string) bool {
	for tok := range tokens {
		if strings.HasPrefix(tok, prefix) {
			return true
		}
	}
	return false
}

func documentText(d domain.Document) string {
	var b strings.Builder
	for _, s := range []string{d.Code, d.Partner.Name, d.Partner.Code, d.CreatedBy, d.Note} {
		b.WriteString(s)
		b.WriteByte(' ')
	}
	for _, it := range d.Items {
		b.WriteString(it.ProductName)
		b.WriteByte(' ')
		b.WriteString(it.ProductCode)
		b.WriteByte(' ')
	}
	return b.String()
}
