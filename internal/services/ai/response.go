package ai

import (
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ResponseText is the one place that knows the shape of a completion
// response. It prefers the plain content field and falls back to the text
// parts of a multi-part message. ok is false when no usable text exists.
func ResponseText(resp openai.ChatCompletionResponse) (text string, ok bool) {
	if len(resp.Choices) == 0 {
		return "", false
	}
	msg := resp.Choices[0].Message
	if strings.TrimSpace(msg.Content) != "" {
		return msg.Content, true
	}

	var b strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type != "" && part.Type != openai.ChatMessagePartTypeText {
			continue
		}
		b.WriteString(part.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", false
	}
	return b.String(), true
}

// FormatEmbeddingInput prefixes text with the task and title hints that
// retrieval-tuned embedding models expect.
func FormatEmbeddingInput(req EmbeddingRequest) string {
	switch req.Task {
	case TaskRetrievalDocument:
		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = "none"
		}
		return "title: " + title + " | text: " + req.Text
	case TaskRetrievalQuery:
		return "task: search result | query: " + req.Text
	default:
		return req.Text
	}
}
