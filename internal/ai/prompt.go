package ai

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const systemPromptSingle = `You are a helpful academic assistant answering questions about a document.

RULES:
- Answer in the language of the question
- Use the information in the document content
- If the content does not cover the question, say that you could not find it
- Keep answers short and to the point
- Put important concepts in **bold**
- Use headings when needed
- Format the answer as Markdown`

const systemPromptMulti = `You are an expert study assistant. Use the sources as REFERENCE material.

ANSWER BY QUESTION TYPE:

1. PLAIN QUESTION (definition, explanation, lookup):
   - Focus ONLY on what was asked
   - Do not add unrelated details
   - Keep the answer short

2. OPINION OR EVALUATION QUESTION (what do you think, evaluate, analyse):
   - Examine the sources in depth
   - Give a careful and thorough evaluation
   - List strengths and weaknesses

FORMAT:
- Answer in the language of the question
- Put important concepts in **bold**
- Use ## headings and ### subheadings when needed
- Use ` + "```" + ` blocks for code`

const (
	documentContextPrefix = "DOCUMENT CONTENT:\n\n"
	sourceContextPrefix   = "SOURCE MATERIALS:\n\n"
	questionPrefix        = "QUESTION: "
)

var (
	spaceRun   = regexp.MustCompile(` +`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// NormalizeForCache makes the context byte-stable so repeated turns over the
// same document share a provider-side prompt prefix.
func NormalizeForCache(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	text = spaceRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r\f\v")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// buildMessages lays out system, context, history and question. Only the
// question changes between turns over an unchanged context.
func buildMessages(multi bool, contextText, question string, history []Message) (string, []Message) {
	system, prefix := systemPromptSingle, documentContextPrefix
	if multi {
		system, prefix = systemPromptMulti, sourceContextPrefix
	}
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: RoleUser, Content: prefix + NormalizeForCache(contextText)})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: questionPrefix + question})
	return system, msgs
}
