// Package simcontract defines the contracts the evaluation core consumes
// from its two external collaborators: the physical-task simulator and the
// language-model-backed agent. Neither side of the contract is implemented
// here — the simulator's room/object graph and action semantics, and the
// agent's prompt templates and provider wiring, are out of scope (spec §1,
// §6). internal/refagent ships one concrete Agent so the core is runnable
// end to end; internal/fakesim ships a deterministic Simulator for tests.
package simcontract

import "context"

// ApplyStatus is the outcome the simulator reports for one applied command.
type ApplyStatus string

const (
	ApplyStatusSuccess ApplyStatus = "SUCCESS"
	ApplyStatusFailure ApplyStatus = "FAILURE"
	ApplyStatusInvalid ApplyStatus = "INVALID"
)

// ApplyResult is the simulator's response to one applied command.
type ApplyResult struct {
	Status  ApplyStatus
	Message string
	Result  any
}

// DetailLevel controls how verbose describe_environment's natural-language
// output is. The simulator interprets the value; the core only threads it
// through from RunSpec.
type DetailLevel string

const (
	DetailBrief    DetailLevel = "brief"
	DetailStandard DetailLevel = "standard"
	DetailVerbose  DetailLevel = "verbose"
)

// DescribeOptions configures one call to Simulator.Describe.
type DescribeOptions struct {
	AgentID         string
	Detail          DetailLevel
	ShowProperties  bool
	OnlyDiscovered  bool
}

// Simulator is the contract consumed by the task executor and scenario
// runner (§6). A concrete simulator owns the room/object graph, action
// semantics, and physics constraints; none of that is specified here.
type Simulator interface {
	// Describe renders a natural-language environment description for the
	// given agent at the configured detail level.
	Describe(ctx context.Context, opts DescribeOptions) (string, error)

	// Apply submits a raw command string from the given agent and returns
	// the simulator's verdict. Apply must not block on external I/O (§5).
	Apply(ctx context.Context, agentID, command string) (ApplyResult, error)

	// VerifySubtasks returns the set of subtask indices the verifier
	// currently considers satisfied for the given task. Subtask index 1
	// is the task itself outside the combined regime.
	VerifySubtasks(ctx context.Context, task any) (map[int]bool, error)

	// Reset reseeds the simulator from its original scene, returning a
	// fresh handle. Used only by the independent regime (§4.4).
	Reset(ctx context.Context) (Simulator, error)
}

// DecideResult is one agent decision: the raw model output plus the action
// command the core's parser extracted from it.
type DecideResult struct {
	RawResponse      string
	ExtractedCommand string
	PromptTokens     int
	CompletionTokens int
}

// QARecord is one observability record of a single decision round-trip,
// persisted verbatim by the trajectory store's QA log.
type QARecord struct {
	AgentID          string
	Prompt           string
	RawResponse      string
	ExtractedCommand string
	PromptTokens     int
	CompletionTokens int
}

// Agent is the contract consumed by the task executor (§6). A concrete
// agent owns prompt construction, token accounting, and the provider
// adapter; none of that is specified here.
type Agent interface {
	// SetTask installs the current goal description.
	SetTask(ctx context.Context, description string) error

	// Decide produces the next action given the current environment
	// description. Decide may block on network I/O; callers must apply a
	// timeout and the executor's bounded retry policy (§5).
	Decide(ctx context.Context, environmentDescription string) (DecideResult, error)

	// Reset clears conversational state. Invoked between independent-regime
	// tasks; never invoked between sequential-regime tasks (§3 invariants).
	Reset(ctx context.Context) error

	// RecordQA is an observability hook; the core calls this for every
	// decision so the agent can mirror it into its own logs if desired.
	RecordQA(ctx context.Context, qa QARecord) error
}
