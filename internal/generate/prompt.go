package generate

import "strings"

// DefaultTemplate instructs the model to answer only from the supplied material.
// {{question}} and {{context}} are replaced by the query and the joined chunks.
const DefaultTemplate = `You are a knowledge assistant. Answer the user's question accurately using only the reference material below.
Do not make up information. If the material is empty or does not contain the answer, say that you cannot answer from the provided material.

Question: {{question}}

Reference material:
{{context}}

Answer:`

// ChunkSeparator joins chunks in the prompt.
const ChunkSeparator = "\n\n"

// BuildPrompt renders template with the query and the chunks joined in order.
// Placeholders inside the query or chunks are not expanded.
func BuildPrompt(template, query string, chunks []string) string {
	r := strings.NewReplacer(
		"{{question}}", query,
		"{{context}}", strings.Join(chunks, ChunkSeparator),
	)
	return r.Replace(template)
}
