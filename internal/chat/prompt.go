package chat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/omule0/digest/internal/llm"
	"github.com/omule0/digest/internal/retrieval"
)

const answerSystemPrompt = `You are a helpful AI assistant that helps users understand documents.
Answer the question using ONLY the numbered context excerpts below. If the answer is not in the context, say you don't know.
When you use information from an excerpt, cite it inline with its bracketed number, e.g. [1].
When you quote directly, put the quote in quotation marks followed by its citation.`

const greetingSystemPrompt = `You are a helpful AI assistant that helps users understand documents.
Summarize the document the user provides and suggest exactly three follow-up questions.
Respond in exactly this format:

OVERVIEW:
<a concise overview of the document>

SUGGESTED QUESTIONS:
1. <first question>
2. <second question>
3. <third question>`

// buildAnswerPrompt assembles the user message for a Q&A turn: numbered
// context excerpts matching the citation ids, the prior conversation, and
// the new question.
func buildAnswerPrompt(docs []retrieval.Document, history []llm.Message, question string) string {
	var b strings.Builder

	b.WriteString("Context excerpts:\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, doc.Location, doc.Content)
	}

	if len(history) > 0 {
		b.WriteString("Current conversation:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}

func buildGreetingPrompt(content string) string {
	return fmt.Sprintf("Document content:\n%s", content)
}

var questionLine = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)

// parseGreeting splits the fixed two-section greeting response. A response
// without the questions section degrades to overview-only; there is no
// retry.
func parseGreeting(text string) (string, []string) {
	overview := text
	var questionsPart string

	if idx := strings.Index(text, "SUGGESTED QUESTIONS:"); idx >= 0 {
		overview = text[:idx]
		questionsPart = text[idx+len("SUGGESTED QUESTIONS:"):]
	}

	overview = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(overview), "OVERVIEW:"))

	var questions []string
	for _, line := range strings.Split(questionsPart, "\n") {
		if m := questionLine.FindStringSubmatch(line); m != nil {
			questions = append(questions, strings.TrimSpace(m[1]))
		}
	}
	return overview, questions
}
