package refagent

import (
	"testing"

	"github.com/embench/evalcore/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "unknown"}, model.AgentConfig{AgentID: "agent_0"})
	require.Error(t, err)
}

func TestNewBuildsAnthropicAndOpenAIAgents(t *testing.T) {
	a, err := New(Config{Provider: "anthropic", APIKey: "test-key", Model: "claude-3"}, model.AgentConfig{AgentID: "agent_0"})
	require.NoError(t, err)
	assert.NotNil(t, a)

	b, err := New(Config{Provider: "openai", APIKey: "test-key", Model: "gpt-4"}, model.AgentConfig{AgentID: "agent_0"})
	require.NoError(t, err)
	assert.NotNil(t, b)
}
