package config

import (
	"fmt"
	"strings"
	"unicode"
)

// parseArgv splits a configured command string (clipboard, typist, chord,
// indicator) into an argv slice. The grammar is intentionally small:
// whitespace separates arguments, single or double quotes group them, and a
// backslash escapes the next rune even inside quotes. A leading '#' marks
// the whole value as a comment. No shell is involved; the argv is executed
// directly.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv []string
		arg  []rune
		open rune
	)
	runes := []rune(input)

	emit := func() {
		if len(arg) > 0 {
			argv = append(argv, string(arg))
			arg = arg[:0]
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\':
			i++
			if i == len(runes) {
				return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
			}
			arg = append(arg, runes[i])
		case open != 0:
			if r == open {
				open = 0
			} else {
				arg = append(arg, r)
			}
		case r == '\'' || r == '"':
			open = r
		case unicode.IsSpace(r):
			emit()
		default:
			arg = append(arg, r)
		}
	}
	if open != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}

	emit()
	return argv, nil
}

// mustParseArgv backs the built-in defaults, which are known to parse.
func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
