package summary

import (
	"fmt"
	"strings"
)

const sectionPrompt = `Summarize one section of a regulatory document for a retrieval index. The summary is used to decide whether this section answers a user's question, so name the concrete obligations, eligibility rules, amounts, deadlines and defined terms it contains.

Rules:
- 2 to 5 sentences, plain prose, no bullet points
- Do not invent requirements that are not in the text
- When subsection summaries are given, cover what they have in common and what this section adds; do not repeat them one by one

Return a JSON object {"summary": "..."} and nothing else.`

const documentPrompt = `Write a 2 to 8 sentence overview of a regulatory document from the summaries of its sections. Say what the document governs, who it applies to, and its main requirements. Plain prose, no bullet points, no headings. Respond with the overview only.`

// BuildSectionPrompt renders the section prompt. A section that fits in the
// head budget has no tail block.
func BuildSectionPrompt(in SectionInput) string {
	var sb strings.Builder
	sb.WriteString(sectionPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Section: %s\n", in.Name))
	sb.WriteString("---\n")
	if in.Tail == "" {
		sb.WriteString("Content:\n")
		sb.WriteString(in.Head)
		sb.WriteString("\n")
	} else {
		sb.WriteString("Content (beginning):\n")
		sb.WriteString(in.Head)
		sb.WriteString("\n[...]\nContent (end):\n")
		sb.WriteString(in.Tail)
		sb.WriteString("\n")
	}
	if len(in.Children) > 0 {
		sb.WriteString("---\nSubsection summaries:\n")
		for _, c := range in.Children {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", c.Name, c.Summary))
		}
	}
	return sb.String()
}

// BuildDocumentPrompt lists the section summaries under the filename.
func BuildDocumentPrompt(filename string, sections []ChildSummary) string {
	var sb strings.Builder
	sb.WriteString(documentPrompt)
	sb.WriteString("\n\n---\n")
	if filename != "" {
		sb.WriteString(fmt.Sprintf("Document: %q\n", filename))
	}
	for _, s := range sections {
		sb.WriteString(fmt.Sprintf("## %s\n%s\n\n", s.Name, s.Summary))
	}
	return sb.String()
}
