package learner

import (
	"strings"
	"unicode"
)

// separators are the characters a log line is split on.
const separators = ` /,.:"(){}[]`

// Tokenize splits a raw log line into tokens. Empty and purely numeric
// tokens are dropped.
func Tokenize(line string) []string {
	fields := strings.FieldsFunc(line, isSeparator)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if IsNumeric(field) {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// IsNumeric reports whether s consists only of decimal digits (in any
// script). The empty string counts as numeric.
func IsNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isSeparator(r rune) bool {
	return strings.ContainsRune(separators, r)
}
