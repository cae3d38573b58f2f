package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func NewGetCommand() *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Fetch a resource from the Analytics API",
		Long:  "Fetch the resource at PATH, e.g. terminology/allergy_type or population. Query parameters are passed with -p key=value.",
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
			resp, err := apiClient.Get(cmd.Context(), args[0], query)
			if err != nil {
				return err
			}
			if resp.IsError() {
				return fmt.Errorf("request failed (%d): %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
			}
			return writeRawJSON(rt, resp.Body())
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter key=value (repeatable)")
	return cmd
}

func parseParams(params []string) (url.Values, error) {
	if len(params) == 0 {
		return nil, nil
	}
	values := url.Values{}
	for _, p := range params {
		key, value, found := strings.Cut(p, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", p)
		}
		values.Add(key, value)
	}
	return values, nil
}

// writeRawJSON prints an API response body, indented when it is valid JSON.
func writeRawJSON(rt *runtimeState, body []byte) error {
	var indented bytes.Buffer
	if err := json.Indent(&indented, body, "", "  "); err != nil {
		_, err = fmt.Fprintln(rt.Writer(), strings.TrimSpace(string(body)))
		return err
	}
	_, err := fmt.Fprintln(rt.Writer(), indented.String())
	return err
}
