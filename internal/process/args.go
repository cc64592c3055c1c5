package process

import (
	"errors"
	"strings"
)

// ParseArgs splits a command-line style string into arguments.
// Handles single and double quotes and backslash escapes.
func ParseArgs(s string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	started := false
	quoteChar := rune(0)

	runes := []rune(strings.TrimSpace(s))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				started = true
				quoteChar = r
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case (r == ' ' || r == '\t') && !inQuote:
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		case r == '\\' && i+1 < len(runes):
			i++
			current.WriteRune(runes[i])
			started = true
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if inQuote {
		return nil, errors.New("unclosed quote in arguments")
	}
	if started {
		args = append(args, current.String())
	}

	return args, nil
}
