// Package refagent ships one concrete simcontract.Agent so the evaluation
// core is runnable end to end against a real language model, backed by
// either Anthropic or OpenAI. Prompt construction here is deliberately
// minimal — a single running transcript plus a naive command extractor —
// since the spec leaves agent internals out of scope (§1, §6) and this
// package exists only to give the core a working default, not to compete
// with a purpose-built agent harness.
package refagent

import "context"

// chatMessage is provider-agnostic history entry.
type chatMessage struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// chatResponse is what every provider reduces its wire response to.
type chatResponse struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// chatProvider is the minimal surface refagent needs from an LLM backend.
// Each concrete provider (anthropic.go, openai.go) adapts its SDK client
// onto this interface; Agent itself never touches either SDK directly.
type chatProvider interface {
	Chat(ctx context.Context, messages []chatMessage) (chatResponse, error)
}
