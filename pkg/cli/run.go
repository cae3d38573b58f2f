package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaarpec/shaarpec-go/pkg/client"
	"github.com/shaarpec/shaarpec-go/pkg/output"
	"github.com/shaarpec/shaarpec-go/pkg/task"
)

func NewRunCommand() *cobra.Command {
	var (
		params       []string
		jsonBody     string
		formFields   []string
		rawContent   string
		pollInterval time.Duration
		noProgress   bool
	)

	cmd := &cobra.Command{
		Use:   "run PATH",
		Short: "Run an analytics task and wait for its result",
		Long:  "Submit a job at PATH (the first path segment names the service), poll its status endpoint until it finishes, and print the terminal task.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			apiClient, err := buildClient(rt)
			if err != nil {
				return err
			}
			query, err := parseParams(params)
			if err != nil {
				return err
			}

			opts := client.RunOptions{Query: query, PollInterval: resolvePollInterval(rt, pollInterval)}
			body, err := buildRunBody(jsonBody, formFields, rawContent)
			if err != nil {
				return err
			}
			opts.Body = body

			var bar *output.ProgressBar
			if !noProgress {
				bar = output.NewProgressBar(os.Stderr)
				opts.Observer = bar.Observe
			}

			t, err := apiClient.Run(cmd.Context(), args[0], opts)
			if bar != nil && t != nil {
				ok, _ := t.Success()
				bar.Finish(ok)
			}
			if err != nil {
				return err
			}

			if err := renderTask(rt, t); err != nil {
				return err
			}
			if ok, _ := t.Success(); !ok {
				return &task.FailedError{Status: t.Status(), Detail: t.Err()}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter key=value (repeatable)")
	cmd.Flags().StringVar(&jsonBody, "json", "", "JSON request body")
	cmd.Flags().StringArrayVar(&formFields, "form", nil, "Form field key=value (repeatable)")
	cmd.Flags().StringVar(&rawContent, "content", "", "Raw request body")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Delay between status polls (default from config, else 100ms)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

// buildRunBody maps the body flags onto a client.Body. Setting more than one
// flag is rejected by Body itself when the request is built.
func buildRunBody(jsonBody string, formFields []string, rawContent string) (client.Body, error) {
	var body client.Body
	if jsonBody != "" {
		var payload any
		if err := json.Unmarshal([]byte(jsonBody), &payload); err != nil {
			return client.Body{}, fmt.Errorf("invalid --json body: %w", err)
		}
		body.JSON = payload
	}
	if len(formFields) > 0 {
		form, err := parseParams(formFields)
		if err != nil {
			return client.Body{}, err
		}
		body.Form = form
	}
	if rawContent != "" {
		body.Content = []byte(rawContent)
	}
	return body, nil
}

func resolvePollInterval(rt *runtimeState, flagValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if rt.cfg != nil && rt.cfg.Settings.PollInterval != "" {
		if interval, err := time.ParseDuration(rt.cfg.Settings.PollInterval); err == nil {
			return interval
		}
	}
	return 0
}

func renderTask(rt *runtimeState, t *task.Task) error {
	format := output.Format(rt.OutputFormat())
	switch format {
	case output.FormatJSON, output.FormatYAML:
		return output.WriteObject(rt.Writer(), format, t.Snapshot())
	case output.FormatTable:
		output.WriteTaskTable(rt.Writer(), t.Snapshot())
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
