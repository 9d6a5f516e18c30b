package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFailureLog struct {
	mu      sync.Mutex
	entries []Failure
}

func (l *memoryFailureLog) Record(_ context.Context, f Failure) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, f)
}

func TestDetachedRunner_SuccessRecordsNothing(t *testing.T) {
	flog := &memoryFailureLog{}
	r := NewDetachedRunner(time.Second, WithFailureLog(flog))

	ran := false
	r.Go("ok", nil, func(context.Context) error { ran = true; return nil })
	r.Wait()

	assert.True(t, ran)
	assert.Empty(t, flog.entries)
}

func TestDetachedRunner_FailureGoesToLogAndObserver(t *testing.T) {
	flog := &memoryFailureLog{}
	var seen []Failure
	var mu sync.Mutex
	r := NewDetachedRunner(time.Second,
		WithFailureLog(flog),
		WithOnFailure(func(f Failure) {
			mu.Lock()
			seen = append(seen, f)
			mu.Unlock()
		}),
	)

	r.Go("clock_receipt", map[string]string{"number": "5511987654321"}, func(context.Context) error {
		return errors.New("relay down")
	})
	r.Wait()

	require.Len(t, flog.entries, 1)
	f := flog.entries[0]
	assert.Equal(t, "clock_receipt", f.Task)
	assert.Equal(t, "relay down", f.Reason)
	assert.JSONEq(t, `{"number":"5511987654321"}`, string(f.Payload))
	assert.False(t, f.FailedAt.IsZero())
	require.Len(t, seen, 1)
	assert.Equal(t, f.Task, seen[0].Task)
}

func TestDetachedRunner_PanicBecomesFailure(t *testing.T) {
	flog := &memoryFailureLog{}
	r := NewDetachedRunner(time.Second, WithFailureLog(flog))

	r.Go("boom", nil, func(context.Context) error { panic("nil map") })
	r.Wait()

	require.Len(t, flog.entries, 1)
	assert.Equal(t, "panic: nil map", flog.entries[0].Reason)
	assert.JSONEq(t, `null`, string(flog.entries[0].Payload))
}

func TestDetachedRunner_TaskGetsDeadline(t *testing.T) {
	r := NewDetachedRunner(20 * time.Millisecond)

	var got error
	r.Go("slow", nil, func(ctx context.Context) error {
		<-ctx.Done()
		got = ctx.Err()
		return got
	})
	r.Wait()

	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

func TestDetachedRunner_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, NewDetachedRunner(0).timeout)
}
