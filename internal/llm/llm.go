package llm

import "context"

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single non-streaming chat-completion call.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	JSONMode    bool
}

// Usage is the provider-reported token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Add accumulates usage across calls.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Response is the model's reply plus its token usage.
type Response struct {
	Text  string
	Usage Usage
}

// ChatModel is the one seam between the pipelines and the provider SDK.
type ChatModel interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
