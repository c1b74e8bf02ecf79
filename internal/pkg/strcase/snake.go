// Package strcase converts Go identifiers to the snake_case names used in
// validation error fields and JSON payloads.
package strcase

import (
	"strings"
	"unicode"
)

// Words splits an identifier at case changes, keeping initialisms whole:
// "PhoneNumber" -> [Phone Number], "UserID" -> [User ID], "HTTPServer" -> [HTTP Server].
// Underscores, dashes and spaces also separate words.
func Words(s string) []string {
	var (
		words []string
		start = -1
	)
	runes := []rune(s)

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}

		prev := runes[i-1]
		switch {
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		}
	}
	flush(len(runes))

	return words
}

// ToLowerSnake joins Words in lower case with underscores.
func ToLowerSnake(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}
