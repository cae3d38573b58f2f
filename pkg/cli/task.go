package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewTaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect tasks submitted earlier",
	}
	cmd.AddCommand(
		newTaskStatusCommand(),
		newTaskResultCommand(),
	)
	return cmd
}

func newTaskStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status SERVICE TASK_ID",
		Short: "Show the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchTaskResource(cmd, args[0], args[1], "status")
		},
	}
}

func newTaskResultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "result SERVICE TASK_ID",
		Short: "Fetch the result of a completed task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchTaskResource(cmd, args[0], args[1], "results")
		},
	}
}

func fetchTaskResource(cmd *cobra.Command, service, taskID, resource string) error {
	rt, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	apiClient, err := buildClient(rt)
	if err != nil {
		return err
	}
	uri := fmt.Sprintf("%s/tasks/%s/%s", service, taskID, resource)
	resp, err := apiClient.Get(cmd.Context(), uri, nil)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("request failed (%d): %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return writeRawJSON(rt, resp.Body())
}
