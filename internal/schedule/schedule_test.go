package schedule_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arkfeed.dev/arkfeed/internal/job"
	"arkfeed.dev/arkfeed/internal/output"
	"arkfeed.dev/arkfeed/internal/schedule"
)

type recorder struct {
	mu       sync.Mutex
	triggers []job.Trigger
}

func (r *recorder) run(_ context.Context, trigger job.Trigger) (*job.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
	return &job.Result{RunID: "id", Trigger: trigger, Status: job.StatusUnchanged}, nil
}

func (r *recorder) seen() []job.Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]job.Trigger(nil), r.triggers...)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, schedule.Validate("*/30 * * * *"))
	require.NoError(t, schedule.Validate("@hourly"))
	require.Error(t, schedule.Validate("every half hour"))
	require.Error(t, schedule.Validate("* * * * * *"))
}

func TestNewRejectsBadSpec(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	_, err := schedule.New("nope", rec.run, output.NewSplogWriter(&bytes.Buffer{}, false), false)
	require.Error(t, err)
}

func TestStartRunsOnStartAndStopsOnCancel(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	s, err := schedule.New("*/30 * * * *", rec.run, output.NewSplogWriter(&bytes.Buffer{}, false), true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		return len(rec.seen()) == 1
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, []job.Trigger{job.TriggerStartup}, rec.seen())

	require.Eventually(t, func() bool {
		return !s.Next().IsZero()
	}, 5*time.Second, 10*time.Millisecond)
	require.True(t, s.Next().After(time.Now()))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStartWithoutRunOnStartWaits(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	s, err := schedule.New("0 0 1 1 *", rec.run, output.NewSplogWriter(&bytes.Buffer{}, false), false)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Start(ctx))
	require.Empty(t, rec.seen())
}
