package chunker

import "unicode/utf8"

// Len measures chunk content in characters. Budgets (chunk size, overlap)
// are character counts, so multi-byte runes count once.
func Len(text string) int {
	return utf8.RuneCountInString(text)
}
