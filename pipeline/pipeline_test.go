package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(n int) []Item[int] {
	items := make([]Item[int], n)
	for i := range items {
		items[i] = Item[int]{ID: fmt.Sprintf("item-%d", i), Payload: i}
	}
	return items
}

func TestRunner_Run_AllSucceed(t *testing.T) {
	runner, err := NewRunner[int](4)
	require.NoError(t, err)
	defer runner.Release()

	report, err := runner.Run(context.Background(), makeItems(10), func(ctx context.Context, item Item[int]) error {
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 10, report.Submitted)
	assert.Equal(t, 10, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.Failures)
}

func TestRunner_Run_EveryItemYieldsExactlyOneOutcome(t *testing.T) {
	runner, err := NewRunner[int](8)
	require.NoError(t, err)
	defer runner.Release()

	const n = 100
	var mu sync.Mutex
	seen := make(map[string]int)

	report, err := runner.Run(context.Background(), makeItems(n), func(ctx context.Context, item Item[int]) error {
		mu.Lock()
		seen[item.ID]++
		mu.Unlock()

		if item.Payload%3 == 0 {
			return errors.New("synthetic failure")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, n, report.Submitted)
	assert.Equal(t, n, report.Succeeded+report.Failed)

	// No two workers ever process the same item.
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, n)
	for id, count := range seen {
		assert.Equal(t, 1, count, "item %s processed more than once", id)
	}
}

func TestRunner_Run_FailureDoesNotAffectSiblings(t *testing.T) {
	runner, err := NewRunner[int](4)
	require.NoError(t, err)
	defer runner.Release()

	failErr := errors.New("boom")
	report, err := runner.Run(context.Background(), makeItems(20), func(ctx context.Context, item Item[int]) error {
		if item.Payload == 7 {
			return failErr
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 19, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "item-7", report.Failures[0].ID)
	assert.ErrorIs(t, report.Failures[0].Err, failErr)
	assert.Equal(t, []string{"item-7"}, report.FailedIDs())
}

func TestRunner_Run_PanicConvertedToFailure(t *testing.T) {
	runner, err := NewRunner[int](4)
	require.NoError(t, err)
	defer runner.Release()

	report, err := runner.Run(context.Background(), makeItems(10), func(ctx context.Context, item Item[int]) error {
		if item.Payload == 3 {
			panic("unexpected fault")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 9, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, ErrPanic)
	assert.Contains(t, report.Failures[0].Err.Error(), "unexpected fault")
}

func TestRunner_Run_EmptyInput(t *testing.T) {
	runner, err := NewRunner[int](4)
	require.NoError(t, err)
	defer runner.Release()

	report, err := runner.Run(context.Background(), nil, func(ctx context.Context, item Item[int]) error {
		return nil
	})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestRunner_Run_BoundedConcurrency(t *testing.T) {
	const width = 3
	runner, err := NewRunner[int](width)
	require.NoError(t, err)
	defer runner.Release()

	var inFlight, peak atomic.Int32

	report, err := runner.Run(context.Background(), makeItems(30), func(ctx context.Context, item Item[int]) error {
		current := inFlight.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 30, report.Succeeded)
	assert.LessOrEqual(t, peak.Load(), int32(width))
}

func TestRunner_Run_CancellationStopsDispatch(t *testing.T) {
	runner, err := NewRunner[int](1)
	require.NoError(t, err)
	defer runner.Release()

	ctx, cancel := context.WithCancel(context.Background())

	const n = 50
	var processed atomic.Int32

	report, err := runner.Run(ctx, makeItems(n), func(ctx context.Context, item Item[int]) error {
		if processed.Add(1) == 3 {
			cancel()
		}
		time.Sleep(time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	// Dispatch stopped, but every item still has exactly one outcome.
	assert.Equal(t, n, report.Submitted)
	assert.Equal(t, n, report.Succeeded+report.Failed)
	assert.Less(t, int(processed.Load()), n, "cancellation should prevent some dispatches")

	var undispatched int
	for _, failure := range report.Failures {
		if errors.Is(failure.Err, ErrNotDispatched) {
			assert.ErrorIs(t, failure.Err, context.Canceled)
			undispatched++
		}
	}
	assert.Equal(t, report.Failed, undispatched)
}

func TestRunner_Run_WithProgress(t *testing.T) {
	tracker := NewProgressTracker(discardWriter{}, 10, 100)
	tracker.Start()

	runner, err := NewRunner[int](4, WithProgress(tracker))
	require.NoError(t, err)
	defer runner.Release()

	_, err = runner.Run(context.Background(), makeItems(10), func(ctx context.Context, item Item[int]) error {
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 10, tracker.Current())
}

func TestRunner_Run_StartsAndFinishesAttachedTracker(t *testing.T) {
	// The tracker is handed over unstarted with a stale total; Run must own
	// its whole lifecycle or every completion is silently dropped.
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 0, 1)

	runner, err := NewRunner[int](4, WithProgress(tracker))
	require.NoError(t, err)
	defer runner.Release()

	_, err = runner.Run(context.Background(), makeItems(5), func(ctx context.Context, item Item[int]) error {
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 5, tracker.Current())
	assert.Contains(t, buf.String(), "5/5")
}

func TestNewRunner_DefaultConcurrency(t *testing.T) {
	runner, err := NewRunner[string](0)
	require.NoError(t, err)
	defer runner.Release()

	report, err := runner.Run(context.Background(), []Item[string]{{ID: "a"}}, func(ctx context.Context, item Item[string]) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
