package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/shaarpec/shaarpec-go/pkg/task"
)

func TestWriteObjectJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteObject(&buf, FormatJSON, map[string]any{"task_id": "abc", "status": "complete"})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"task_id": "abc"`)
	require.Contains(t, buf.String(), `"status": "complete"`)
}

func TestWriteObjectYAML(t *testing.T) {
	var buf bytes.Buffer
	err := WriteObject(&buf, FormatYAML, map[string]string{"status": "complete"})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "status: complete")
}

func TestWriteObjectUnknownFormat(t *testing.T) {
	err := WriteObject(&bytes.Buffer{}, Format("xml"), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown output format")
}

func TestWriteObjectTableNeedsFormatter(t *testing.T) {
	err := WriteObject(&bytes.Buffer{}, FormatTable, nil)
	require.Error(t, err)
}

func TestWriteTaskTable(t *testing.T) {
	progress := 0.45
	success := true
	snap := task.Snapshot{
		Service:     "population",
		TaskID:      "abc-123",
		SubmittedAt: "2024-05-01T10:00:00Z",
		Status:      task.StatusInProgress,
		Progress:    &progress,
		Success:     &success,
	}

	var buf bytes.Buffer
	WriteTaskTable(&buf, snap)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "SERVICE")
	require.Contains(t, lines[0], "TASK_ID")
	require.Contains(t, lines[1], "population")
	require.Contains(t, lines[1], "abc-123")
	require.Contains(t, lines[1], "45%")
	require.Contains(t, lines[1], "true")
}

func TestWriteTaskTableMissingFields(t *testing.T) {
	var buf bytes.Buffer
	WriteTaskTable(&buf, task.Snapshot{
		Service: "population",
		TaskID:  "abc",
		Status:  task.StatusQueued,
	})
	require.Contains(t, buf.String(), "-")
}

func TestProgressBarObserve(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	bar := NewProgressBar(&buf)
	bar.Observe(task.StatusInProgress, 0.5)

	out := buf.String()
	require.Contains(t, out, "50%")
	require.Contains(t, out, "in_progress")
	require.Contains(t, out, "[===============               ]")
}

func TestProgressBarClampsProgress(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	bar := NewProgressBar(&buf)
	bar.Observe(task.StatusInProgress, 1.7)
	require.Contains(t, buf.String(), "100%")

	buf.Reset()
	bar.Observe(task.StatusQueued, -0.3)
	require.Contains(t, buf.String(), "  0%")
}

func TestProgressBarFinish(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	bar := NewProgressBar(&buf)
	bar.Finish(true)
	require.Contains(t, buf.String(), "completed successfully")

	buf.Reset()
	bar.Finish(false)
	require.Contains(t, buf.String(), "task failed")
}
