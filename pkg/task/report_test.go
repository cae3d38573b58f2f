package task

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeReport(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ReportKind
	}{
		{
			name: "not found",
			body: `{"status": "not_found"}`,
			want: ReportNotFound,
		},
		{
			name: "queued",
			body: `{"status": "queued", "progress": 0.1}`,
			want: ReportRunning,
		},
		{
			name: "in progress",
			body: `{"status": "in_progress", "progress": 0.6}`,
			want: ReportRunning,
		},
		{
			name: "complete success",
			body: `{"status": "complete", "success": true}`,
			want: ReportSucceeded,
		},
		{
			name: "complete failure",
			body: `{"status": "complete", "success": false, "error": "boom"}`,
			want: ReportFailed,
		},
		{
			name: "complete without success field",
			body: `{"status": "complete"}`,
			want: ReportFailed,
		},
		{
			name: "unrecognized status",
			body: `{"status": "exploded"}`,
			want: ReportFailed,
		},
		{
			name: "not json",
			body: `<html>gateway error</html>`,
			want: ReportFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := DecodeReport([]byte(tt.body))
			require.Equal(t, tt.want, report.Kind)
		})
	}
}

func TestDecodeReportNotFoundWinsOverFields(t *testing.T) {
	// Body-reported not_found takes precedence even when success and
	// progress are present.
	report := DecodeReport([]byte(`{"status": "not_found", "success": true, "progress": 0.9}`))
	require.Equal(t, ReportNotFound, report.Kind)
}

func TestDecodeReportRunningCarriesProgress(t *testing.T) {
	report := DecodeReport([]byte(`{"status": "in_progress", "progress": 0.25}`))
	require.Equal(t, ReportRunning, report.Kind)
	require.Equal(t, StatusInProgress, report.Status)
	require.NotNil(t, report.Progress)
	require.Equal(t, 0.25, *report.Progress)

	report = DecodeReport([]byte(`{"status": "queued"}`))
	require.Equal(t, ReportRunning, report.Kind)
	require.Nil(t, report.Progress)
}

func TestDecodeReportFailedKeepsRawAndError(t *testing.T) {
	report := DecodeReport([]byte(`{"status": "complete", "success": false, "error": {"code": 7}}`))
	require.Equal(t, ReportFailed, report.Kind)
	require.Equal(t, map[string]any{"code": float64(7)}, report.Error)
	require.JSONEq(t, `{"status": "complete", "success": false, "error": {"code": 7}}`, string(report.Raw))

	report = DecodeReport([]byte(`not json at all`))
	require.Equal(t, ReportFailed, report.Kind)
	require.Equal(t, "not json at all", string(report.Raw))
}
