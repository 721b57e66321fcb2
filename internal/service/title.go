package service

import (
	"strings"
	"unicode"
)

const titleWords = 6

// isTitleSpace also treats the ASCII file/group/record/unit separators as
// whitespace.
func isTitleSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// GenerateTitle derives a conversation title from the first message
func GenerateTitle(text string) string {
	words := strings.FieldsFunc(text, isTitleSpace)
	if len(words) <= titleWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:titleWords], " ") + "..."
}
