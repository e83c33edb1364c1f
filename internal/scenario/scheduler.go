package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"clnrmgo/internal/clnrmerr"
	"clnrmgo/internal/service"
)

// State is a scheduler's position in its Created→Ready→Running→terminal
// lifecycle. A Scheduler never moves backward.
type State int

const (
	Created State = iota
	Ready
	Running
	Completed
	Cancelled
	TimedOut
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ServiceResolver looks up the running Handle for a service alias a
// step references. Scheduler depends on this interface rather than
// importing internal/service's Registry directly, so that the package
// owning both (internal/cleanroom) can wire them without a cycle.
type ServiceResolver interface {
	Resolve(alias string) (service.Handle, bool)
}

// Scheduler runs one Scenario's Steps against a Backend, honoring the
// scenario's ordered/concurrent flag, optional deterministic seed and
// wall-clock timeout. Not safe for concurrent Run calls on the same
// instance; each scenario run gets its own Scheduler.
type Scheduler struct {
	scenario Scenario
	backend  Backend
	resolver ServiceResolver

	mu    sync.Mutex
	state State
}

// NewScheduler constructs a Scheduler in the Created state. resolver
// may be nil when no step in the scenario references a service.
func NewScheduler(sc Scenario, backend Backend, resolver ServiceResolver) *Scheduler {
	return &Scheduler{scenario: sc, backend: backend, resolver: resolver, state: Created}
}

// State reports the scheduler's current lifecycle position.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Build validates the scenario is runnable and transitions Created→Ready.
// Calling Build on anything but a freshly-constructed Scheduler is an error.
func (s *Scheduler) Build() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Created {
		return fmt.Errorf("scheduler: Build called in state %s, want %s", s.state, Created)
	}

	if len(s.scenario.Steps) == 0 {
		return fmt.Errorf("scenario %q: no steps: %w", s.scenario.Name, clnrmerr.ErrUnresolvedReference)
	}

	for _, step := range s.scenario.Steps {
		if step.ServiceRef != "" && s.resolver == nil {
			return fmt.Errorf("scenario %q: step %q references service %q but no resolver is configured: %w",
				s.scenario.Name, step.Label, step.ServiceRef, clnrmerr.ErrUnresolvedReference)
		}
	}

	s.state = Ready

	return nil
}

// Run executes the scenario to completion, applying the scenario's
// timeout_ms (if set) as a wall-clock budget on top of ctx. It
// transitions Ready→Running, then to exactly one terminal state.
func (s *Scheduler) Run(ctx context.Context) (RunResult, error) {
	s.mu.Lock()
	if s.state != Ready {
		state := s.state
		s.mu.Unlock()

		return RunResult{}, fmt.Errorf("scheduler: Run called in state %s, want %s", state, Ready)
	}
	s.state = Running
	s.mu.Unlock()

	runCtx := ctx
	cancel := func() {}

	if s.scenario.TimeoutMS > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(s.scenario.TimeoutMS)*time.Millisecond)
	}
	defer cancel()

	var (
		order []string
		steps []StepResult
	)

	if s.scenario.Concurrent {
		order, steps = s.runConcurrent(runCtx)
	} else {
		order, steps = s.runOrdered(runCtx)
	}

	result := RunResult{
		ScenarioName:    s.scenario.Name,
		BackendName:     s.backend.Name(),
		Concurrent:      s.scenario.Concurrent,
		StepOrder:       order,
		RedactedEnvKeys: redactedKeys(s.scenario.Steps),
		Steps:           steps,
		Seed:            s.scenario.Seed,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		s.state = TimedOut
		result.Status = TimedOut.String()
	case errors.Is(ctx.Err(), context.Canceled):
		s.state = Cancelled
		result.Status = Cancelled.String()
	default:
		s.state = Completed
		result.Status = Completed.String()
	}

	return result, nil
}

func (s *Scheduler) runOrdered(ctx context.Context) ([]string, []StepResult) {
	order := make([]string, 0, len(s.scenario.Steps))
	results := make([]StepResult, 0, len(s.scenario.Steps))

	for _, step := range s.scenario.Steps {
		result := s.execStep(ctx, step)
		order = append(order, step.Label)
		results = append(results, result)
	}

	return order, results
}

// runConcurrent spawns every step as an independent task on an
// errgroup, joined once all have finished or been cancelled. Results
// are written into index-addressed slots (no races: each goroutine
// owns exactly one slot), while a separately mutex-guarded slice
// records the order slots were filled in — the natural completion
// order when no seed is set.
func (s *Scheduler) runConcurrent(ctx context.Context) ([]string, []StepResult) {
	n := len(s.scenario.Steps)
	results := make([]StepResult, n)

	var (
		mu              sync.Mutex
		completionOrder []int
	)

	g, gCtx := errgroup.WithContext(ctx)

	for i, step := range s.scenario.Steps {
		i, step := i, step

		g.Go(func() error {
			results[i] = s.execStep(gCtx, step)

			mu.Lock()
			completionOrder = append(completionOrder, i)
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	order := completionOrder
	if s.scenario.Seed != nil {
		order = deterministicOrder(n, *s.scenario.Seed)
	}

	labels := make([]string, len(order))
	ordered := make([]StepResult, len(order))

	for pos, idx := range order {
		labels[pos] = s.scenario.Steps[idx].Label
		ordered[pos] = results[idx]
	}

	return labels, ordered
}

// deterministicOrder imposes a total, seed-reproducible order over n
// declaration indices: each index is paired with index XOR a PRNG
// draw, then indices are sorted by that key. Same n and seed always
// yields the same permutation.
func deterministicOrder(n int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))

	type keyed struct {
		index int
		key   int64
	}

	keys := make([]keyed, n)
	for i := 0; i < n; i++ {
		keys[i] = keyed{index: i, key: int64(i) ^ rng.Int63()}
	}

	sort.Slice(keys, func(a, b int) bool { return keys[a].key < keys[b].key })

	order := make([]int, n)
	for i, k := range keys {
		order[i] = k.index
	}

	return order
}

func (s *Scheduler) execStep(ctx context.Context, step Step) StepResult {
	env := make(map[string]string, len(step.Env))
	for k, v := range step.Env {
		env[k] = v
	}

	if step.ServiceRef != "" {
		handle, ok := s.resolver.Resolve(step.ServiceRef)
		if !ok {
			return StepResult{
				Label:         step.Label,
				ExitCode:      -1,
				Failed:        true,
				FailureReason: fmt.Sprintf("service %q not found", step.ServiceRef),
			}
		}

		prefix := "CLNRM_SERVICE_" + sanitizeAlias(step.ServiceRef) + "_"
		for k, v := range handle.Metadata {
			env[prefix+sanitizeAlias(k)] = v
		}
	}

	result, err := s.backend.Run(ctx, Cmd{Label: step.Label, Argv: step.Command, Env: env})
	if err != nil {
		return StepResult{Label: step.Label, ExitCode: -1, Failed: true, FailureReason: err.Error()}
	}

	if result.Cancelled || result.Failed {
		return result
	}

	if step.ExpectedExit != nil && result.ExitCode != *step.ExpectedExit {
		result.Failed = true
		result.FailureReason = fmt.Sprintf("exit code %d, want %d", result.ExitCode, *step.ExpectedExit)

		return result
	}

	if step.ExpectedOutputRegex != "" {
		re, err := regexp.Compile(step.ExpectedOutputRegex)
		if err != nil {
			result.Failed = true
			result.FailureReason = fmt.Sprintf("invalid expected_output_regex: %v", err)

			return result
		}

		if !re.MatchString(result.Stdout) {
			result.Failed = true
			result.FailureReason = fmt.Sprintf("stdout did not match %q", step.ExpectedOutputRegex)
		}
	}

	return result
}

func sanitizeAlias(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}

		out = append(out, '_')
	}

	return string(out)
}

// sensitiveEnvFragments flags env keys whose names suggest a secret.
// Matching keys are recorded in RunResult.RedactedEnvKeys rather than
// surfaced anywhere forensics (step output) is displayed.
var sensitiveEnvFragments = []string{"KEY", "SECRET", "TOKEN", "PASSWORD"}

func isSensitiveEnvKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, frag := range sensitiveEnvFragments {
		if strings.Contains(upper, frag) {
			return true
		}
	}

	return false
}

func redactedKeys(steps []Step) []string {
	seen := map[string]struct{}{}
	keys := make([]string, 0)

	for _, step := range steps {
		for k := range step.Env {
			if !isSensitiveEnvKey(k) {
				continue
			}

			if _, ok := seen[k]; ok {
				continue
			}

			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	return keys
}
