package graph

import (
	"unicode"
	"unicode/utf8"

	"github.com/vanshika/graphbind/internal/binder"
)

// Placeholders lists the $name placeholders of a query in order of first
// appearance. Text inside quoted literals and backtick identifiers is skipped.
func Placeholders(query string) []string {
	var (
		names []string
		seen  = make(map[string]struct{})
		quote rune
	)

	for i := 0; i < len(query); {
		r, size := utf8.DecodeRuneInString(query[i:])

		if quote != 0 {
			if r == '\\' && quote != '`' {
				i += size
				if i < len(query) {
					_, next := utf8.DecodeRuneInString(query[i:])
					i += next
				}
				continue
			}
			if r == quote {
				quote = 0
			}
			i += size
			continue
		}

		switch r {
		case '\'', '"', '`':
			quote = r
			i += size
			continue
		case '$':
			start := i + size
			end := start
			for end < len(query) {
				c, n := utf8.DecodeRuneInString(query[end:])
				if !isNameRune(c) {
					break
				}
				end += n
			}
			if end > start {
				name := query[start:end]
				if _, ok := seen[name]; !ok {
					seen[name] = struct{}{}
					names = append(names, name)
				}
			}
			i = end
			continue
		}
		i += size
	}
	return names
}

// CheckParameters returns an UnknownParameterError for the first placeholder
// in query that has no entry in params.
func CheckParameters(query string, params binder.ParameterSet) error {
	for _, name := range Placeholders(query) {
		if _, ok := params.Lookup(name); !ok {
			return &UnknownParameterError{Name: name}
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
