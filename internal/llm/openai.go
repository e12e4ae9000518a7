package llm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAI adapts a langchaingo OpenAI model to the ChatModel interface.
type OpenAI struct {
	model *openai.LLM
}

// NewOpenAI builds the chat client for the given model name.
func NewOpenAI(token, model string) (*OpenAI, error) {
	client, err := openai.New(
		openai.WithToken(token),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: create openai client: %w", err)
	}
	return &OpenAI{model: client}, nil
}

// NewOpenAIEmbedder builds a langchaingo embedder over the OpenAI
// embeddings endpoint.
func NewOpenAIEmbedder(token, model string) (embeddings.Embedder, error) {
	client, err := openai.New(
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: create openai embeddings client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("llm: create embedder: %w", err)
	}
	return embedder, nil
}

// Generate issues one chat-completion call and extracts token usage from
// the provider's generation info.
func (o *OpenAI) Generate(ctx context.Context, req Request) (*Response, error) {
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, msg := range req.Messages {
		messages = append(messages, llms.TextParts(mapRole(msg.Role), msg.Content))
	}

	options := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.JSONMode {
		options = append(options, llms.WithJSONMode())
	}

	resp, err := o.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		logrus.WithError(err).Error("llm: chat completion failed")
		return nil, fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm: empty response from model")
	}

	choice := resp.Choices[0]
	return &Response{
		Text:  choice.Content,
		Usage: usageFromInfo(choice.GenerationInfo),
	}, nil
}

func mapRole(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func usageFromInfo(info map[string]any) Usage {
	return Usage{
		PromptTokens:     intFromInfo(info, "PromptTokens"),
		CompletionTokens: intFromInfo(info, "CompletionTokens"),
		TotalTokens:      intFromInfo(info, "TotalTokens"),
	}
}

func intFromInfo(info map[string]any, key string) int {
	if info == nil {
		return 0
	}
	switch v := info[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
