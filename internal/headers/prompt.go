package headers

import (
	"fmt"
	"strings"

	"github.com/dgallion1/regrag/internal/doctree"
)

const classificationPrompt = `You are reviewing the headings extracted from a regulatory document that was converted from PDF to markdown. The conversion often assigns the wrong markdown level to headings.

Use section numbering to decide the correct level: "1.0 Overview" is a top-level section, "1.1 Eligibility" sits one level below it, "1.1.1 Income" one level below that. Unnumbered document titles sit above every numbered section. Lists such as "Contents" or "Appendices" are not parents of the sections they list.

Return a JSON object with these fields:
- "corrections": array of objects with "original_level" (integer), "original_name" (string, copied exactly), "corrected_level" (integer 1-6). Only include headings whose level is wrong.
- "confidence_level": one of "high", "medium", "low".

Return {"corrections": [], "confidence_level": "high"} if every level is already correct.

Respond with ONLY the JSON object, no other text.`

// BuildClassificationPrompt lists the document's headings, one per line, in
// first-seen order.
func BuildClassificationPrompt(headers []doctree.HeaderNode) string {
	var sb strings.Builder
	sb.WriteString(classificationPrompt)
	sb.WriteString("\n\n---\nHeadings (level: name):\n")
	for _, h := range headers {
		sb.WriteString(fmt.Sprintf("%d: %s\n", h.Level, h.Name))
	}
	sb.WriteString("---\n")
	return sb.String()
}
