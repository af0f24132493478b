package refagent

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicProvider adapts anthropic-sdk-go onto chatProvider, grounded on
// llm.AnthropicProvider's Chat/ChatWithFormat split (here collapsed to one
// method since refagent has no tool-calling or structured-format need).
type anthropicProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

func newAnthropicProvider(apiKey, model string, maxTokens int, temperature float64) *anthropicProvider {
	return &anthropicProvider{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: temperature,
	}
}

func (p *anthropicProvider) Chat(ctx context.Context, messages []chatMessage) (chatResponse, error) {
	var anthropicMessages []anthropic.MessageParam
	var systemPrompt string
	for _, m := range messages {
		switch m.Role {
		case "system":
			systemPrompt = m.Content
		case "assistant":
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Messages:    anthropicMessages,
		Temperature: anthropic.Float(p.temperature),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return chatResponse{}, fmt.Errorf("anthropic chat completion failed: %w", err)
	}

	content := ""
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += text.Text
		}
	}

	return chatResponse{
		Content:          content,
		PromptTokens:     int(message.Usage.InputTokens),
		CompletionTokens: int(message.Usage.OutputTokens),
	}, nil
}
