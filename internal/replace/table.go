// Package replace applies word/phrase replacement and joiner rules to
// recognized transcript text.
package replace

import (
	"sort"
	"strings"
	"unicode"
)

// Table is the immutable replacement rule set built once from configuration.
type Table struct {
	words   map[string]string
	phrases []phraseRule
	joiners map[string]struct{}
}

// phraseRule is a multi-word pattern matched against cleaned token windows.
type phraseRule struct {
	tokens      []string
	replacement string
}

// NewTable compiles replacement rules. Phrase patterns are ordered
// longest-match-first so a phrase is never partially consumed by a shorter
// phrase or a word rule.
func NewTable(words map[string]string, phrases map[string]string, joiners []string) *Table {
	t := &Table{
		words:   make(map[string]string, len(words)),
		joiners: make(map[string]struct{}, len(joiners)),
	}

	for pattern, replacement := range words {
		key := strings.ToLower(strings.TrimSpace(pattern))
		if key == "" {
			continue
		}
		t.words[key] = replacement
	}

	for pattern, replacement := range phrases {
		tokens := strings.Fields(strings.ToLower(pattern))
		if len(tokens) == 0 {
			continue
		}
		t.phrases = append(t.phrases, phraseRule{tokens: tokens, replacement: replacement})
	}
	sort.Slice(t.phrases, func(i, j int) bool {
		if len(t.phrases[i].tokens) != len(t.phrases[j].tokens) {
			return len(t.phrases[i].tokens) > len(t.phrases[j].tokens)
		}
		return strings.Join(t.phrases[i].tokens, " ") < strings.Join(t.phrases[j].tokens, " ")
	})

	for _, joiner := range joiners {
		joiner = strings.TrimSpace(joiner)
		if joiner == "" {
			continue
		}
		t.joiners[joiner] = struct{}{}
	}

	return t
}

// IsJoiner reports whether a token glues to its neighbors without spaces.
func (t *Table) IsJoiner(token string) bool {
	_, ok := t.joiners[token]
	return ok
}

// cleanToken produces the lowercase, punctuation-stripped view used for rule
// matching. Tokens that match a word rule verbatim keep their punctuation so
// symbol patterns remain addressable.
func (t *Table) cleanToken(token string) string {
	lowered := strings.ToLower(strings.TrimSpace(token))
	if lowered == "" {
		return ""
	}
	if _, ok := t.words[lowered]; ok {
		return lowered
	}

	var b strings.Builder
	for _, r := range lowered {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
