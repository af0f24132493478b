package refagent

import (
	"context"

	"github.com/embench/evalcore/pkg/simcontract"
)

const systemPrompt = "You control one embodied agent in a simulated environment. " +
	"Given the current environment description, respond with your reasoning " +
	"followed by a final line \"COMMAND: <action>\". When the task is complete, " +
	"issue \"COMMAND: done\"."

// Agent drives one provider-backed conversation that carries across all of
// a scenario's tasks (sequential/combined regimes), or covers one task in
// isolation (independent regime, after Reset).
type Agent struct {
	provider chatProvider
	history  []chatMessage
}

var _ simcontract.Agent = (*Agent)(nil)

func newAgent(provider chatProvider) *Agent {
	return &Agent{provider: provider, history: []chatMessage{{Role: "system", Content: systemPrompt}}}
}

// SetTask appends the task's goal description as a user turn. Called once
// per task; in the sequential regime the prior task's history is retained
// ahead of it (§3 invariants — conversational state not reset).
func (a *Agent) SetTask(ctx context.Context, description string) error {
	a.history = append(a.history, chatMessage{Role: "user", Content: "New task: " + description})
	return nil
}

// Decide sends the running transcript plus the latest environment
// description to the provider and extracts the action command from its
// response.
func (a *Agent) Decide(ctx context.Context, environmentDescription string) (simcontract.DecideResult, error) {
	a.history = append(a.history, chatMessage{Role: "user", Content: environmentDescription})

	resp, err := a.provider.Chat(ctx, a.history)
	if err != nil {
		return simcontract.DecideResult{}, err
	}

	a.history = append(a.history, chatMessage{Role: "assistant", Content: resp.Content})

	return simcontract.DecideResult{
		RawResponse:      resp.Content,
		ExtractedCommand: extractCommand(resp.Content),
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
	}, nil
}

// Reset clears conversational state back to just the system prompt
// (§3 invariants — invoked between independent-regime tasks only).
func (a *Agent) Reset(ctx context.Context) error {
	a.history = []chatMessage{{Role: "system", Content: systemPrompt}}
	return nil
}

// RecordQA is a no-op: the trajectory store already persists every QA round
// trip on the core's behalf (pkg/store's llm_qa log), so the agent itself
// has nothing further to mirror it into.
func (a *Agent) RecordQA(ctx context.Context, qa simcontract.QARecord) error { return nil }
