package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Failure describes a detached task that returned an error.
type Failure struct {
	Task     string
	Payload  json.RawMessage
	Reason   string
	FailedAt time.Time
}

// FailureLog is the side channel detached failures are written to.
type FailureLog interface {
	Record(ctx context.Context, f Failure)
}

// DetachedRunner runs fire-and-forget tasks outside the request that started
// them. Each task gets its own deadline; a failure is logged, written to the
// failure log and passed to OnFailure. Tasks are never retried.
type DetachedRunner struct {
	timeout   time.Duration
	failures  FailureLog
	onFailure func(Failure)
	wg        sync.WaitGroup
}

// RunnerOption customizes a DetachedRunner.
type RunnerOption func(*DetachedRunner)

// WithFailureLog sets the persistent side channel.
func WithFailureLog(l FailureLog) RunnerOption {
	return func(r *DetachedRunner) { r.failures = l }
}

// WithOnFailure registers an observer for failed tasks.
func WithOnFailure(fn func(Failure)) RunnerOption {
	return func(r *DetachedRunner) { r.onFailure = fn }
}

func NewDetachedRunner(timeout time.Duration, opts ...RunnerOption) *DetachedRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r := &DetachedRunner{timeout: timeout}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Go starts fn in its own goroutine. payload only describes the task in logs.
func (r *DetachedRunner) Go(task string, payload interface{}, fn func(ctx context.Context) error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = json.RawMessage(`null`)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		err := r.call(ctx, fn)
		if err == nil {
			return
		}

		f := Failure{Task: task, Payload: raw, Reason: err.Error(), FailedAt: time.Now().UTC()}
		log.Error().Str("task", task).Err(err).Msg("detached: task failed")
		if r.failures != nil {
			// The task context may already be past its deadline.
			recCtx, recCancel := context.WithTimeout(context.Background(), 5*time.Second)
			r.failures.Record(recCtx, f)
			recCancel()
		}
		if r.onFailure != nil {
			r.onFailure(f)
		}
	}()
}

// call runs fn and converts a panic into an error.
func (r *DetachedRunner) call(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError{value: p}
		}
	}()
	return fn(ctx)
}

// Wait blocks until every started task has finished.
func (r *DetachedRunner) Wait() { r.wg.Wait() }

type panicError struct{ value interface{} }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }
