package translate

import (
	"fmt"
	"strings"
)

// DefaultSystemPrompt is the system message sent with every request.
// {{delimiter}} is replaced with Delimiter.
const DefaultSystemPrompt = `You are a professional translator. Return translations as a list, with each translation separated by the {{delimiter}} symbol without spaces.`

// buildUserPrompt builds the user message: the instruction, an optional
// length limit and the numbered sentences.
func buildUserPrompt(req Request) string {
	tone := req.Tone
	if tone == "" {
		tone = DefaultTone
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following sentences into %s with a %s tone. Return nothing but the translations with the %s symbol between them.",
		req.TargetLanguage, tone, Delimiter)
	if req.MaxLength > 0 {
		fmt.Fprintf(&b, " Make sure each sentence is no longer than %d characters.", req.MaxLength)
	}

	b.WriteString("\n\nSentences:\n")
	for i, s := range req.Sentences {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, s)
	}
	return b.String()
}
