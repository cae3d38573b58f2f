package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shaarpec/shaarpec-go/pkg/task"
)

// DefaultPollInterval is the delay between status checks when RunOptions
// does not set one.
const DefaultPollInterval = 100 * time.Millisecond

// RunOptions configures one Run call.
type RunOptions struct {
	Body         Body
	Query        url.Values
	PollInterval time.Duration
	// Observer, when set, receives (status, progress) after every poll
	// iteration. It is purely cosmetic and must not block.
	Observer task.Observer
}

type submissionResponse struct {
	TaskID      string `json:"task_id"`
	SubmittedAt string `json:"submitted_at"`
}

// Run submits a job at uri and polls its status endpoint until the task is
// terminal. The poll loop runs in its own goroutine and is joined before
// Run returns; cancelling ctx stops it between polls. The first path
// segment of uri names the service whose status and results endpoints are
// polled.
//
// A non-202 submission response is a hard failure: *AuthError for 401,
// *SubmissionError otherwise. Poll-time failures are recorded in the
// returned Task instead; transport faults propagate as errors alongside the
// partially advanced Task.
func (c *Client) Run(ctx context.Context, uri string, opts RunOptions) (*task.Task, error) {
	service := firstSegment(uri)
	if service == "" {
		return nil, errors.New("uri must begin with a service segment")
	}

	resp, err := c.Post(ctx, uri, opts.Body, opts.Query)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode() {
	case http.StatusAccepted:
	case http.StatusUnauthorized:
		return nil, &AuthError{Message: strings.TrimSpace(resp.String())}
	default:
		return nil, &SubmissionError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var sub submissionResponse
	if err := json.Unmarshal(resp.Body(), &sub); err != nil {
		return nil, fmt.Errorf("failed to parse submission response: %w", err)
	}
	if sub.TaskID == "" {
		return nil, errors.New("submission response missing task_id")
	}

	t := task.New(service, sub.TaskID, sub.SubmittedAt)
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	done := make(chan error, 1)
	go func() {
		done <- c.poll(ctx, t, interval, opts.Observer)
	}()
	if err := <-done; err != nil {
		return t, err
	}
	return t, nil
}

// poll drives t from submitted to a terminal state. Only the queued and
// in_progress states sleep and re-poll; every other outcome is terminal on
// the first matching response.
func (c *Client) poll(ctx context.Context, t *task.Task, interval time.Duration, observe task.Observer) error {
	statusURI := fmt.Sprintf("%s/tasks/%s/status", t.Service(), t.ID())
	failed := false

	for !t.Status().Terminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := c.Get(ctx, statusURI, nil)
		if err != nil {
			return err
		}

		switch resp.StatusCode() {
		case http.StatusOK:
			report := task.DecodeReport(resp.Body())
			switch report.Kind {
			case task.ReportNotFound:
				c.log.Warn("task not found on service",
					zap.String("task_id", t.ID()), zap.String("service", t.Service()))
				t.Terminate(task.StatusNotFound, nil, nil)
			case task.ReportRunning:
				t.SetRunning(report.Status, report.Progress)
			case task.ReportSucceeded:
				result, err := c.fetchResult(ctx, t)
				if err != nil {
					return err
				}
				t.CompleteSuccess(result)
			case task.ReportFailed:
				t.CompleteFailure(report.Error)
			}
		case http.StatusUnauthorized:
			c.log.Warn("not authorized to run task",
				zap.String("task_id", t.ID()), zap.String("service", t.Service()))
			t.Terminate(task.StatusUnauthorized, &failed, nil)
		case http.StatusNotFound:
			c.log.Warn("task not found on service",
				zap.String("task_id", t.ID()), zap.String("service", t.Service()))
			t.Terminate(task.StatusNotFound, &failed, nil)
		default:
			c.log.Warn("error response from service",
				zap.String("service", t.Service()), zap.Int("status_code", resp.StatusCode()))
			t.Terminate(task.StatusError, &failed, extractErrorField(resp.Body()))
		}

		notify(observe, t)
		if !t.Status().Terminal() {
			if err := sleep(ctx, interval); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) fetchResult(ctx context.Context, t *task.Task) (any, error) {
	resp, err := c.Get(ctx, fmt.Sprintf("%s/tasks/%s/results", t.Service(), t.ID()), nil)
	if err != nil {
		return nil, err
	}
	var body struct {
		Result any `json:"result"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse results response: %w", err)
	}
	return body.Result, nil
}

func extractErrorField(body []byte) any {
	var parsed struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	return parsed.Error
}

func notify(observe task.Observer, t *task.Task) {
	if observe == nil {
		return
	}
	progress, _ := t.Progress()
	observe(t.Status(), progress)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func firstSegment(uri string) string {
	trimmed := strings.Trim(uri, "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}
