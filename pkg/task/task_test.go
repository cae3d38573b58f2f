package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusNotFound, StatusUnauthorized, StatusComplete, StatusError}
	for _, s := range terminal {
		require.True(t, s.Terminal(), "expected %s to be terminal", s)
	}
	nonTerminal := []Status{StatusSubmitted, StatusQueued, StatusInProgress}
	for _, s := range nonTerminal {
		require.False(t, s.Terminal(), "expected %s to be non-terminal", s)
	}
}

func TestNewTask(t *testing.T) {
	task := New("population", "abc-123", "2024-05-01T10:00:00Z")
	require.Equal(t, "population", task.Service())
	require.Equal(t, "abc-123", task.ID())
	require.Equal(t, "2024-05-01T10:00:00Z", task.SubmittedAt())
	require.Equal(t, StatusSubmitted, task.Status())
	_, determined := task.Success()
	require.False(t, determined)
	_, reported := task.Progress()
	require.False(t, reported)
}

func TestCompleteSuccess(t *testing.T) {
	task := New("population", "abc", "now")
	task.CompleteSuccess(42)

	require.Equal(t, StatusComplete, task.Status())
	ok, determined := task.Success()
	require.True(t, determined)
	require.True(t, ok)
	progress, reported := task.Progress()
	require.True(t, reported)
	require.Equal(t, 1.0, progress)
	require.Equal(t, 42, task.Result())
	require.Nil(t, task.Err())
}

func TestMutatorsNoOpOnceTerminal(t *testing.T) {
	task := New("population", "abc", "now")
	task.Terminate(StatusUnauthorized, boolPtr(false), nil)
	require.Equal(t, StatusUnauthorized, task.Status())

	half := 0.5
	task.SetRunning(StatusInProgress, &half)
	require.Equal(t, StatusUnauthorized, task.Status())

	task.CompleteSuccess("late result")
	require.Equal(t, StatusUnauthorized, task.Status())
	require.Nil(t, task.Result())

	task.CompleteFailure("late error")
	require.Equal(t, StatusUnauthorized, task.Status())
	require.Nil(t, task.Err())
}

func TestWaitForResultAlreadyTerminal(t *testing.T) {
	task := New("population", "abc", "now")
	task.CompleteSuccess("the-answer")

	result, err := task.WaitForResult(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Equal(t, "the-answer", result)
}

func TestWaitForResultFailure(t *testing.T) {
	task := New("population", "abc", "now")
	task.CompleteFailure("boom")

	_, err := task.WaitForResult(context.Background(), time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "complete")
	require.Contains(t, err.Error(), "boom")

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, StatusComplete, failed.Status)
}

func TestWaitForResultNoMessage(t *testing.T) {
	task := New("population", "abc", "now")
	task.Terminate(StatusNotFound, nil, nil)

	_, err := task.WaitForResult(context.Background(), time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not_found")
	require.Contains(t, err.Error(), "no message")
}

func TestWaitForResultConcurrentAdvance(t *testing.T) {
	task := New("population", "abc", "now")
	go func() {
		time.Sleep(20 * time.Millisecond)
		progress := 0.5
		task.SetRunning(StatusInProgress, &progress)
		time.Sleep(20 * time.Millisecond)
		task.CompleteSuccess(map[string]any{"count": 7})
	}()

	result, err := task.WaitForResult(context.Background(), time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"count": 7}, result)
}

func TestWaitForResultCancellation(t *testing.T) {
	task := New("population", "abc", "now")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := task.WaitForResult(ctx, time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSnapshot(t *testing.T) {
	task := New("population", "abc", "now")
	progress := 0.4
	task.SetRunning(StatusQueued, &progress)

	snap := task.Snapshot()
	require.Equal(t, "population", snap.Service)
	require.Equal(t, "abc", snap.TaskID)
	require.Equal(t, StatusQueued, snap.Status)
	require.NotNil(t, snap.Progress)
	require.Equal(t, 0.4, *snap.Progress)
	require.Nil(t, snap.Success)

	// The snapshot is a copy, detached from later mutation.
	task.CompleteSuccess(1)
	require.Equal(t, StatusQueued, snap.Status)
}

func boolPtr(v bool) *bool { return &v }
