package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/podsearch/core"
)

const synthesisSystemPrompt = `You answer questions about podcast episodes using ONLY the numbered transcript excerpts provided.

Rules:
- Base every claim on the excerpts. If they do not contain the answer, say so plainly.
- Cite the excerpt supporting each claim with its number in square brackets, e.g. [2].
- Use a citation marker immediately after the claim it supports.
- Do not invent excerpt numbers; only cite numbers that appear in the input.
- Keep the answer concise: a few sentences, no preamble.`

// buildUserPrompt renders the question and the numbered excerpts the model
// may cite. Numbering is 1-based and must match the fragment slice order,
// since citation markers are resolved by position.
func buildUserPrompt(question string, fragments []core.Fragment) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nTranscript excerpts:\n")
	for i, fragment := range fragments {
		fmt.Fprintf(&b, "\n[%d] (episode %s, %s-%s)\n%s\n",
			i+1,
			fragment.SourceDocumentId,
			formatOffset(fragment.StartOffset),
			formatOffset(fragment.EndOffset),
			strings.TrimSpace(fragment.Text))
	}
	return b.String()
}

// formatOffset renders a second offset as mm:ss or h:mm:ss.
func formatOffset(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
