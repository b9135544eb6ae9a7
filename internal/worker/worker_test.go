package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func drainStarted(t *testing.T, started <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-started:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for started event")
	}
}

func TestRun_Success(t *testing.T) {
	events := Run(context.Background(), func(ctx context.Context, emit EmitFunc) (string, error) {
		emit("step1", 50, "halfway")
		return "done", nil
	})

	drainStarted(t, events.Started)

	progress := <-events.Progress
	assert.Equal(t, "step1", progress.Stage)
	assert.Equal(t, 50.0, progress.Percent)

	select {
	case result := <-events.Finished:
		assert.Equal(t, "done", result)
	case err := <-events.Error:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for finished event")
	}
}

func TestRun_Error(t *testing.T) {
	boom := errors.New("boom")
	events := Run(context.Background(), func(ctx context.Context, emit EmitFunc) (int, error) {
		return 0, boom
	})

	drainStarted(t, events.Started)

	select {
	case err := <-events.Error:
		assert.Equal(t, boom, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error event")
	}
}

func TestRun_EmitRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := Run(ctx, func(ctx context.Context, emit EmitFunc) (struct{}, error) {
		// Progress channel has no reader; emit must not block forever once
		// ctx is already cancelled.
		for i := 0; i < 32; i++ {
			emit("flood", float64(i), "")
		}
		return struct{}{}, ctx.Err()
	})

	drainStarted(t, events.Started)
	select {
	case <-events.Error:
	case <-events.Finished:
	case <-time.After(2 * time.Second):
		t.Fatal("emit loop blocked past cancellation")
	}
}
