package task

import "encoding/json"

// ReportKind tags the decoded shape of a status response body.
type ReportKind int

const (
	// ReportNotFound is a 200 body that itself reports an unknown task id.
	// It takes precedence over every other shape.
	ReportNotFound ReportKind = iota
	// ReportRunning covers the queued and in_progress states.
	ReportRunning
	// ReportSucceeded is status complete with success == true.
	ReportSucceeded
	// ReportFailed is every other shape: complete without success,
	// unrecognized status values, and bodies that do not parse as JSON.
	ReportFailed
)

// Report is the decoded form of one status poll body.
type Report struct {
	Kind     ReportKind
	Status   Status
	Progress *float64
	Error    any
	// Raw is the original body, kept for ReportFailed so unrecognized
	// shapes stay diagnosable.
	Raw json.RawMessage
}

type statusBody struct {
	Status   string   `json:"status"`
	Progress *float64 `json:"progress"`
	Success  *bool    `json:"success"`
	Error    any      `json:"error"`
}

// DecodeReport parses a status endpoint body into a tagged Report. The match
// is top-down, first match wins.
func DecodeReport(body []byte) Report {
	var parsed statusBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Report{Kind: ReportFailed, Raw: append(json.RawMessage(nil), body...)}
	}
	switch parsed.Status {
	case string(StatusNotFound):
		return Report{Kind: ReportNotFound, Status: StatusNotFound}
	case string(StatusQueued), string(StatusInProgress):
		return Report{Kind: ReportRunning, Status: Status(parsed.Status), Progress: parsed.Progress}
	case string(StatusComplete):
		if parsed.Success != nil && *parsed.Success {
			return Report{Kind: ReportSucceeded, Status: StatusComplete}
		}
	}
	return Report{
		Kind:   ReportFailed,
		Status: StatusComplete,
		Error:  parsed.Error,
		Raw:    append(json.RawMessage(nil), body...),
	}
}
