package qa

import "fmt"

const SystemPrompt = "You are a helpful assistant that provides accurate answers based ONLY on the given content. " +
	"Never make up information or infer details not present in the content."

const promptTemplate = `Answer the question using ONLY the document content below.
1. Read the content carefully.
2. Answer accurately and concisely.
3. If the answer is not in the content, say that the document does not contain it.
4. Do not make up or infer information that is not present.

For questions about the title, author or other metadata, look for explicit mentions in the text.

Content:
---
%s
---

Question: %s

Answer: `

// BuildPrompt renders the user prompt for a question over the selected
// document content. Empty content is valid and asks the model to report that
// no answer was found.
func BuildPrompt(content, question string) string {
	return fmt.Sprintf(promptTemplate, content, question)
}
