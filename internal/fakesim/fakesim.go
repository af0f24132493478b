// Package fakesim provides a deterministic, in-memory Simulator used by
// end-to-end tests and as cmd/evalcore's default simulator when no real
// physical-task simulator is wired in. It has no room/object graph of its
// own — it counts applied commands per agent and reports subtask i (1-based)
// satisfied once the successful applies of all agents together reach i, which
// is enough to exercise every regime and completion-classification path
// without depending on an external collaborator (§1 Non-goals: simulator
// internals are explicitly out of scope; this is scaffolding, not one).
package fakesim

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/embench/evalcore/pkg/model"
	"github.com/embench/evalcore/pkg/simcontract"
)

// Simulator is a deterministic stand-in for the real physical-task
// simulator. Use New to build one; the zero value is not valid.
type Simulator struct {
	mu sync.Mutex

	scene   any
	applied map[string]int // agentID -> successful-apply count

	// invalidCommands marks raw command strings that always come back
	// INVALID, so tests can exercise the empty/invalid-command path.
	invalidCommands map[string]bool
}

var _ simcontract.Simulator = (*Simulator)(nil)

// New builds a Simulator seeded with scene (opaque; only Reset touches it,
// handing it to the fresh Simulator it returns).
func New(scene any) *Simulator {
	return &Simulator{scene: scene, applied: make(map[string]int), invalidCommands: map[string]bool{"": true}}
}

// WithInvalidCommand marks a literal command string as always INVALID, for
// tests that exercise the agent-submits-nonsense path.
func (s *Simulator) WithInvalidCommand(cmd string) *Simulator {
	s.invalidCommands[strings.ToLower(strings.TrimSpace(cmd))] = true
	return s
}

func (s *Simulator) Describe(ctx context.Context, opts simcontract.DescribeOptions) (string, error) {
	return fmt.Sprintf("agent %s observes the scene (detail=%s)", opts.AgentID, opts.Detail), nil
}

func (s *Simulator) Apply(ctx context.Context, agentID, command string) (simcontract.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(command))
	if s.invalidCommands[key] {
		return simcontract.ApplyResult{Status: simcontract.ApplyStatusInvalid, Message: "command not recognized"}, nil
	}
	s.applied[agentID]++
	return simcontract.ApplyResult{Status: simcontract.ApplyStatusSuccess, Message: "ok"}, nil
}

// VerifySubtasks satisfies subtask i once the agents' combined successful
// apply count reaches i. It mirrors the executor's own
// requiredSubtaskIndices heuristic: a task.Verifier holding a non-empty
// list of sub-goals yields one subtask per goal, anything else yields a
// single subtask.
func (s *Simulator) VerifySubtasks(ctx context.Context, task any) (map[int]bool, error) {
	s.mu.Lock()
	total := 0
	for _, n := range s.applied {
		total += n
	}
	s.mu.Unlock()

	required := subtaskCount(task)
	result := make(map[int]bool, required)
	for i := 1; i <= required; i++ {
		result[i] = total >= i
	}
	return result, nil
}

func subtaskCount(task any) int {
	t, ok := task.(model.Task)
	if !ok {
		return 1
	}
	if goals, ok := t.Verifier.([]any); ok && len(goals) > 0 {
		return len(goals)
	}
	return 1
}

// Reset reseeds a fresh Simulator from the same scene, discarding all
// apply history (§4.4, independent regime).
func (s *Simulator) Reset(ctx context.Context) (simcontract.Simulator, error) {
	return New(s.scene), nil
}
