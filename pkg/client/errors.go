package client

import "fmt"

// AuthError is an HTTP 401 rejection of a job submission.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed (401)"
	}
	return fmt.Sprintf("authentication failed (401): %s", e.Message)
}

// SubmissionError is any non-202, non-401 response to a job submission. It
// carries the literal status code and body text; submissions are never
// retried.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission rejected (%d): %s", e.StatusCode, e.Body)
}
