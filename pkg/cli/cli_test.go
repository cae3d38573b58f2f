package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shaarpec/shaarpec-go/pkg/config"
	"github.com/shaarpec/shaarpec-go/pkg/task"
)

// execute runs the CLI with the given args and returns stdout-equivalent
// output. Environment fallbacks are neutralized so tests are hermetic.
func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	for _, name := range []string{"CONTEXT", "OUTPUT", "SERVER", "TOKEN", "TOKEN_STORAGE", "VERBOSE", "CONFIG"} {
		t.Setenv("SHAARPECCTL_"+name, "")
		require.NoError(t, os.Unsetenv("SHAARPECCTL_"+name))
	}

	var buf bytes.Buffer
	root := NewRootCommand(Config{ConfigPath: configPath, OutputWriter: &buf})
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func writeTestConfig(t *testing.T, server string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Config{
		Version:        config.VersionV1,
		CurrentContext: "test",
		Contexts: []config.Context{
			{
				Name:   "test",
				Server: server,
				OIDC: &config.InlineOIDC{
					Authority: "https://idp.invalid",
					ClientID:  "client",
				},
			},
		},
	}
	require.NoError(t, config.Save(path, &cfg))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	require.Contains(t, out, "shaarpecctl")
	require.Contains(t, out, "commit:")
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := execute(t, "", "version", "-o", "json")
	require.NoError(t, err)
	require.Contains(t, out, `"version"`)
	require.Contains(t, out, `"goVersion"`)
}

func TestGetCommandWithServerAndToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/terminology/allergy_type", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "food", r.URL.Query().Get("kind"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"terms":["milk","nuts"]}`)
	}))
	defer server.Close()

	out, err := execute(t, "",
		"get", "terminology/allergy_type",
		"--server", server.URL, "--token", "tok",
		"-p", "kind=food")
	require.NoError(t, err)
	require.Contains(t, out, `"terms"`)
	require.Contains(t, out, "milk")
}

func TestGetCommandErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "forbidden")
	}))
	defer server.Close()

	_, err := execute(t, "",
		"get", "population", "--server", server.URL, "--token", "tok")
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed (403)")
}

func TestGetCommandInvalidParam(t *testing.T) {
	_, err := execute(t, "",
		"get", "population", "--server", "https://x", "--token", "tok",
		"-p", "missing-equals")
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected key=value")
}

func TestGetCommandUsesContextServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The token override is used against the context's server.
		require.Equal(t, "Bearer override-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	configPath := writeTestConfig(t, server.URL)
	out, err := execute(t, configPath, "get", "population", "--token", "override-token")
	require.NoError(t, err)
	require.Contains(t, out, `"ok"`)
}

func TestRunCommandSuccess(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/population/run":
			require.Equal(t, http.MethodPost, r.Method)
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{"task_id": "t-1", "submitted_at": "2024-05-01T10:00:00Z"}`)
		case "/population/tasks/t-1/status":
			polls++
			if polls < 2 {
				fmt.Fprint(w, `{"status": "in_progress", "progress": 0.5}`)
			} else {
				fmt.Fprint(w, `{"status": "complete", "success": true}`)
			}
		case "/population/tasks/t-1/results":
			fmt.Fprint(w, `{"result": {"count": 9}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	out, err := execute(t, "",
		"run", "population/run",
		"--server", server.URL, "--token", "tok",
		"--poll-interval", "1ms", "--no-progress", "-o", "json")
	require.NoError(t, err)
	require.Contains(t, out, `"task_id": "t-1"`)
	require.Contains(t, out, `"status": "complete"`)
	require.Contains(t, out, `"success": true`)
}

func TestRunCommandFailedTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/population/run":
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{"task_id": "t-1", "submitted_at": "now"}`)
		default:
			fmt.Fprint(w, `{"status": "complete", "success": false, "error": "bad cohort"}`)
		}
	}))
	defer server.Close()

	_, err := execute(t, "",
		"run", "population/run",
		"--server", server.URL, "--token", "tok",
		"--poll-interval", "1ms", "--no-progress")

	var failed *task.FailedError
	require.ErrorAs(t, err, &failed)
	require.Contains(t, err.Error(), "bad cohort")
}

func TestRunCommandFormBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/population/run":
			require.NoError(t, r.ParseForm())
			require.Equal(t, "2024", r.PostForm.Get("year"))
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{"task_id": "t-1", "submitted_at": "now"}`)
		case "/population/tasks/t-1/status":
			fmt.Fprint(w, `{"status": "complete", "success": true}`)
		default:
			fmt.Fprint(w, `{"result": null}`)
		}
	}))
	defer server.Close()

	_, err := execute(t, "",
		"run", "population/run",
		"--server", server.URL, "--token", "tok",
		"--form", "year=2024",
		"--poll-interval", "1ms", "--no-progress")
	require.NoError(t, err)
}

func TestRunCommandRejectsMultipleBodyFlags(t *testing.T) {
	_, err := execute(t, "",
		"run", "population/run",
		"--server", "https://x", "--token", "tok",
		"--json", `{"a":1}`, "--content", "raw")
	require.Error(t, err)
	require.Contains(t, err.Error(), "at most one body kind")
}

func TestRunCommandInvalidJSONBody(t *testing.T) {
	_, err := execute(t, "",
		"run", "population/run",
		"--server", "https://x", "--token", "tok",
		"--json", "{not json")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid --json body")
}

func TestTaskStatusCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/population/tasks/t-9/status", r.URL.Path)
		fmt.Fprint(w, `{"status": "in_progress", "progress": 0.8}`)
	}))
	defer server.Close()

	out, err := execute(t, "",
		"task", "status", "population", "t-9",
		"--server", server.URL, "--token", "tok")
	require.NoError(t, err)
	require.Contains(t, out, `"in_progress"`)
}

func TestTaskResultCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/population/tasks/t-9/results", r.URL.Path)
		fmt.Fprint(w, `{"result": [1, 2, 3]}`)
	}))
	defer server.Close()

	out, err := execute(t, "",
		"task", "result", "population", "t-9",
		"--server", server.URL, "--token", "tok")
	require.NoError(t, err)
	require.Contains(t, out, `"result"`)
}

func TestMissingConfigFails(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "absent.yaml"), "get", "population")
	require.Error(t, err)
}

func TestConfigInitAndView(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, configPath,
		"config", "init",
		"--server", "https://api.example.com",
		"--oidc-authority", "https://idp.example.com",
		"--oidc-client-id", "client")
	require.NoError(t, err)
	require.Contains(t, out, "Initialized config")

	// A second init without --force refuses to overwrite.
	_, err = execute(t, configPath,
		"config", "init",
		"--server", "https://api.example.com",
		"--oidc-authority", "https://idp.example.com",
		"--oidc-client-id", "client")
	require.Error(t, err)
	require.Contains(t, err.Error(), "config already exists")

	out, err = execute(t, configPath, "config", "view")
	require.NoError(t, err)
	require.Contains(t, out, "server: https://api.example.com")
	require.Contains(t, out, "authority: https://idp.example.com")
}

func TestConfigContexts(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Config{
		Version:        config.VersionV1,
		CurrentContext: "b",
		Contexts: []config.Context{
			{Name: "a", Server: "https://a.example.com"},
			{Name: "b", Server: "https://b.example.com"},
		},
	}
	require.NoError(t, config.Save(configPath, &cfg))

	out, err := execute(t, configPath, "config", "get-contexts")
	require.NoError(t, err)
	require.Contains(t, out, "* b")
	require.Contains(t, out, "  a")

	out, err = execute(t, configPath, "config", "current-context")
	require.NoError(t, err)
	require.Contains(t, out, "b")

	out, err = execute(t, configPath, "config", "use-context", "a")
	require.NoError(t, err)
	require.Contains(t, out, "Switched to context a")

	reloaded, err := config.Load(configPath)
	require.NoError(t, err)
	require.Equal(t, "a", reloaded.CurrentContext)

	_, err = execute(t, configPath, "config", "use-context", "ghost")
	require.Error(t, err)
}

func TestParseParams(t *testing.T) {
	values, err := parseParams([]string{"a=1", "a=2", "b=x=y"})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, values["a"])
	require.Equal(t, "x=y", values.Get("b"))

	values, err = parseParams(nil)
	require.NoError(t, err)
	require.Nil(t, values)

	_, err = parseParams([]string{"=value"})
	require.Error(t, err)
}
