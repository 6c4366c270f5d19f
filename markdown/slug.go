package markdown

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug converts heading text into an anchor id: punctuation is dropped,
// whitespace becomes '-', and the result is lower-cased unless maintainCase.
func Slug(s string, maintainCase, removeAccents bool) string {
	if removeAccents {
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if stripped, _, err := transform.String(t, s); err == nil {
			s = stripped
		}
	}
	if !maintainCase {
		s = strings.ToLower(s)
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}
	return b.String()
}

// slugIDs implements parser.IDs with GitHub-style de-duplication:
// "intro", "intro-1", "intro-2".
type slugIDs struct {
	used          map[string]bool
	maintainCase  bool
	removeAccents bool
}

func newSlugIDs(maintainCase, removeAccents bool) *slugIDs {
	return &slugIDs{
		used:          make(map[string]bool),
		maintainCase:  maintainCase,
		removeAccents: removeAccents,
	}
}

func (s *slugIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	base := Slug(string(value), s.maintainCase, s.removeAccents)
	if base == "" {
		base = "heading"
	}
	id := base
	for i := 1; s.used[id]; i++ {
		id = base + "-" + strconv.Itoa(i)
	}
	s.used[id] = true
	return []byte(id)
}

func (s *slugIDs) Put(value []byte) {
	s.used[string(value)] = true
}
