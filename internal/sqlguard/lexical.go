package sqlguard

import (
	"fmt"
	"strings"
	"unicode"
)

var writeKeywords = map[string]struct{}{
	"insert": {}, "update": {}, "delete": {}, "merge": {}, "upsert": {},
	"drop": {}, "create": {}, "alter": {}, "truncate": {}, "rename": {},
	"grant": {}, "revoke": {}, "copy": {}, "attach": {}, "detach": {},
	"install": {}, "load": {}, "pragma": {}, "call": {}, "set": {},
	"into": {}, "export": {}, "import": {}, "vacuum": {}, "checkpoint": {},
}

// checkLexical tokenizes sql with comments and quoted text removed. The
// statement must start with SELECT or WITH, contain no further statement
// separators and no data-changing keyword.
func checkLexical(sql string) error {
	words, separators := scanWords(sql)
	if len(words) == 0 {
		return ErrEmpty
	}
	if separators > 0 {
		return ErrMultipleStatements
	}
	switch words[0] {
	case "select", "with":
	default:
		return fmt.Errorf("%w: got %s", ErrNotReadOnly, strings.ToUpper(words[0]))
	}
	for _, word := range words[1:] {
		if _, bad := writeKeywords[word]; bad {
			return fmt.Errorf("%w: contains %s", ErrNotReadOnly, strings.ToUpper(word))
		}
	}
	return nil
}

// scanWords returns the lower-cased bare words of sql and the number of
// semicolons outside comments and quotes.
func scanWords(sql string) ([]string, int) {
	var (
		words      []string
		separators int
		current    strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			words = append(words, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			flush()
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			flush()
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i++
		case r == '\'' || r == '"' || r == '`':
			flush()
			quote := r
			for i++; i < len(runes); i++ {
				if runes[i] == quote {
					if i+1 < len(runes) && runes[i+1] == quote {
						i++
						continue
					}
					break
				}
			}
		case r == ';':
			flush()
			separators++
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words, separators
}
