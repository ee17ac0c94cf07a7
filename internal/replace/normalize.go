package replace

import "strings"

// Normalize applies the table's phrase rules (longest match first), then word
// rules, then joins the result honoring joiner spacing. Tokens that match no
// rule pass through verbatim, which keeps the function idempotent: a second
// pass over output with no further matches returns it unchanged.
func (t *Table) Normalize(raw string) string {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return ""
	}

	cleaned := make([]string, len(tokens))
	for i, token := range tokens {
		cleaned[i] = t.cleanToken(token)
	}

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if replacement, width, ok := t.matchPhrase(cleaned, i); ok {
			out = append(out, replacement)
			i += width
			continue
		}
		if replacement, ok := t.words[cleaned[i]]; ok {
			out = append(out, replacement)
			i++
			continue
		}
		out = append(out, tokens[i])
		i++
	}

	return t.join(out)
}

// matchPhrase tries every phrase rule at position i; rules are pre-sorted
// longest first so the widest window wins.
func (t *Table) matchPhrase(cleaned []string, i int) (string, int, bool) {
	for _, rule := range t.phrases {
		n := len(rule.tokens)
		if i+n > len(cleaned) {
			continue
		}
		match := true
		for j, want := range rule.tokens {
			if cleaned[i+j] != want {
				match = false
				break
			}
		}
		if match {
			return rule.replacement, n, true
		}
	}
	return "", 0, false
}

// join inserts a single space between tokens except adjacent to joiners.
func (t *Table) join(tokens []string) string {
	var b strings.Builder
	for i, token := range tokens {
		if i > 0 && !t.IsJoiner(token) && !t.IsJoiner(tokens[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteString(token)
	}
	return b.String()
}
