// Package prompt renders the fixed recommendation prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/sena/anime-rec/internal/session"
)

// The template instructs the model to stay inside the retrieved
// context. Placeholder order is chat history, context, question.
const template = `You are an anime recommendation assistant.

Use ONLY the information provided in the context below, which contains anime titles, synopses, and genres from a curated dataset.

Based on the user's question, recommend exactly three anime titles found in the context.

For each recommendation, provide:
- Title
- Brief synopsis (2–3 sentences)
- Reason why it matches the user's preferences

If the context does not contain enough information to answer, state that you do not know. Do not use external knowledge or make assumptions.

History of the conversation:
%s

Context:
%s

User question:
%s

Answer:
`

// Render assembles the generation input from the session history, the
// concatenated context block and the user question.
func Render(history []session.Turn, contextBlock, question string) string {
	return fmt.Sprintf(template, formatHistory(history), contextBlock, question)
}

func formatHistory(history []session.Turn) string {
	var b strings.Builder
	for _, t := range history {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
