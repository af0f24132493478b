// Package coordinator implements the run coordinator (C6): it resolves the
// scenario list, spawns one OS process per scenario bounded by
// spec.Parallelism, waits for them cooperatively on SIGINT/SIGTERM with a
// bounded grace period before force-terminating stragglers, and assembles
// the final run summary by walking the trajectory store every worker wrote
// to independently (§4.6). It never holds scenario results in memory beyond
// a pass/fail outcome — workers persist everything through C1 directly.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/embench/evalcore/pkg/runspec"
	"github.com/embench/evalcore/pkg/selector"
	"github.com/embench/evalcore/pkg/statusapi"
	"github.com/embench/evalcore/pkg/store"
)

// WorkerSubcommand is the hidden CLI subcommand cmd/evalcore registers to
// run exactly one scenario in a child process (§5 Worker isolation).
const WorkerSubcommand = "__run-scenario-worker"

// gracePeriod bounds how long a cooperative shutdown waits for in-flight
// workers to exit after SIGTERM before they are force-killed (§4.6).
const gracePeriod = 30 * time.Second

// Coordinator owns one run end-to-end.
type Coordinator struct {
	log        *slog.Logger
	spec       *runspec.RunSpec
	registry   *store.Registry
	runName    string
	binaryPath string
	bundlePath string
	Reporter   *statusapi.Reporter
}

// New builds a Coordinator. binaryPath is the evalcore executable re-invoked
// per scenario (typically os.Executable()); bundlePath is the YAML bundle
// (if any) the worker subcommand must reload to reconstruct the same spec.
func New(log *slog.Logger, spec *runspec.RunSpec, registry *store.Registry, runName, binaryPath, bundlePath string) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{log: log, spec: spec, registry: registry, runName: runName, binaryPath: binaryPath, bundlePath: bundlePath}
}

// Run resolves the scenario list, drives the bounded process pool, and
// writes run_summary.json before returning.
func (c *Coordinator) Run(ctx context.Context) (store.RunSummary, error) {
	startedAt := time.Now()

	scenarioIDs, err := selector.Select(c.log, c.spec)
	if err != nil {
		return store.RunSummary{}, fmt.Errorf("resolving scenario list: %w", err)
	}
	c.log.Info("scenario selection resolved", "count", len(scenarioIDs))

	c.Reporter = statusapi.NewReporter(c.runName, len(scenarioIDs))

	if len(scenarioIDs) == 0 {
		summary, err := BuildRunSummary(c.registry.RunDir(), c.runName, c.spec, startedAt, time.Now(), false, nil, selectionDescriptor(c.spec), 0, c.spec.Parallelism)
		if err != nil {
			return summary, err
		}
		return summary, c.registry.WriteRunSummary(summary)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := newProcessPool(c.log, c.binaryPath, c.registry.RunDir(), c.bundlePath, c.spec.Parallelism)
	failed := pool.run(runCtx, scenarioIDs, c.Reporter)

	interrupted := runCtx.Err() != nil
	c.Reporter.SetInterrupted(interrupted)

	failedScenarios := make([]store.FailedScenario, 0, len(failed))
	for id, reason := range failed {
		failedScenarios = append(failedScenarios, store.FailedScenario{ScenarioID: id, Reason: reason})
	}

	summary, err := BuildRunSummary(c.registry.RunDir(), c.runName, c.spec, startedAt, time.Now(), interrupted, failedScenarios, selectionDescriptor(c.spec), len(scenarioIDs), c.spec.Parallelism)
	if err != nil {
		return summary, err
	}
	if err := c.registry.WriteRunSummary(summary); err != nil {
		return summary, err
	}
	if interrupted {
		return summary, context.Canceled
	}
	return summary, nil
}

func selectionDescriptor(spec *runspec.RunSpec) string {
	sel := spec.ScenarioSelection
	switch sel.Mode {
	case "range":
		return fmt.Sprintf("range[%s:%s]", sel.Start, sel.End)
	case "list":
		return fmt.Sprintf("list(%d)", len(sel.IDs))
	default:
		return "all"
	}
}

// processPool bounds concurrent scenario worker processes to size and
// supports cooperative SIGTERM-then-grace-period-then-kill shutdown,
// grounded on pkg/queue's WorkerPool (goroutine workers draining a shared
// queue, a live-process registry standing in for its active-session map).
type processPool struct {
	log        *slog.Logger
	binaryPath string
	runDir     string
	bundlePath string
	size       int

	mu    sync.Mutex
	procs map[int]*os.Process
}

func newProcessPool(log *slog.Logger, binaryPath, runDir, bundlePath string, size int) *processPool {
	if log == nil {
		log = slog.Default()
	}
	if size < 1 {
		size = 1
	}
	return &processPool{log: log, binaryPath: binaryPath, runDir: runDir, bundlePath: bundlePath, size: size, procs: make(map[int]*os.Process)}
}

// run drains scenarioIDs across p.size worker goroutines, each spawning one
// subprocess per scenario in turn. It returns the failed scenarios observed
// (non-zero exit or spawn error) keyed by scenario id.
func (p *processPool) run(ctx context.Context, scenarioIDs []string, reporter *statusapi.Reporter) map[string]string {
	queue := make(chan string, len(scenarioIDs))
	for _, id := range scenarioIDs {
		queue <- id
	}
	close(queue)

	failed := make(map[string]string)
	var failedMu sync.Mutex

	var wg sync.WaitGroup
	workers := p.size
	if workers > len(scenarioIDs) {
		workers = len(scenarioIDs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for scenarioID := range queue {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if err := p.runOne(ctx, scenarioID); err != nil {
					p.log.Error("scenario worker failed", "scenario_id", scenarioID, "error", err)
					failedMu.Lock()
					failed[scenarioID] = err.Error()
					failedMu.Unlock()
					reporter.RecordCompletion(true)
				} else {
					reporter.RecordCompletion(false)
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-ctx.Done():
		p.log.Warn("interrupt received; signaling in-flight scenario workers")
		p.signalAll(syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(gracePeriod):
			p.log.Warn("grace period exceeded; force-terminating remaining scenario workers")
			p.signalAll(syscall.SIGKILL)
			<-done
		}
	}

	return failed
}

// runOne launches one worker subprocess for scenarioID. Each launch gets its
// own invocation id so retried or re-queued attempts at the same scenario
// can be told apart in logs, the same role uuid.New().String() plays for
// the teacher's session ids.
func (p *processPool) runOne(ctx context.Context, scenarioID string) error {
	invocationID := uuid.New().String()
	args := []string{WorkerSubcommand, "--run-dir", p.runDir, "--scenario-id", scenarioID, "--invocation-id", invocationID}
	if p.bundlePath != "" {
		args = append(args, "--config", p.bundlePath)
	}
	cmd := exec.Command(p.binaryPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting worker %s for %s: %w", invocationID, scenarioID, err)
	}
	p.log.Info("scenario worker started", "scenario_id", scenarioID, "invocation_id", invocationID, "pid", cmd.Process.Pid)

	pid := cmd.Process.Pid
	p.mu.Lock()
	p.procs[pid] = cmd.Process
	p.mu.Unlock()

	err := cmd.Wait()

	p.mu.Lock()
	delete(p.procs, pid)
	p.mu.Unlock()

	if err != nil {
		return fmt.Errorf("worker %s for %s exited with error: %w", invocationID, scenarioID, err)
	}
	return nil
}

func (p *processPool) signalAll(sig syscall.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, proc := range p.procs {
		_ = proc.Signal(sig)
	}
}
