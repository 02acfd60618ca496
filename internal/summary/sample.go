// Package summary produces bottom-up section summaries and a document summary.
package summary

// Sample returns the head and tail of content. When the whole content fits
// in headChars+tailChars it is returned as head with an empty tail, so no
// text is sent twice. Budgets count characters, not bytes.
func Sample(content string, headChars, tailChars int) (string, string) {
	runes := []rune(content)
	if len(runes) <= headChars+tailChars {
		return content, ""
	}
	return string(runes[:headChars]), string(runes[len(runes)-tailChars:])
}
