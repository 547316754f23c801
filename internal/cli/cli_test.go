package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwtest625/scoop-ui/internal/logging"
)

// ---------- Command tree tests ----------

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	expected := []string{
		"sync", "apps", "search", "installed", "sizes", "deps",
		"install", "uninstall", "update", "update-manager",
		"check-updates", "bucket", "cache", "watch", "logs",
	}
	for _, name := range expected {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"config", "backend-url", "timeout", "snapshot-backend", "snapshot-dir", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing flag: %s", name)
	}
}

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid argument", invalidArgument("bad"), 2},
		{"backend failure", backendFailure(errors.New("scoop not found")), 3},
		{"internal", errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("disk"), 5},
		{"plain error", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCodeForError(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "scoop not found", errorMessage(backendFailure(errors.New("scoop not found"))))
	assert.Equal(t, "plain", errorMessage(errors.New("plain")))
}

// ---------- End-to-end command tests ----------

type engineCall struct {
	op   string
	body map[string]any
}

type fakeEngine struct {
	mu     sync.Mutex
	calls  []engineCall
	bodies map[string]string
	fail   map[string]string
}

func newFakeEngine(t *testing.T) (*fakeEngine, string) {
	t.Helper()
	e := &fakeEngine{bodies: map[string]string{}, fail: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := strings.TrimPrefix(r.URL.Path, "/api/invoke/")
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		e.mu.Lock()
		e.calls = append(e.calls, engineCall{op: op, body: body})
		resp, ok := e.bodies[op]
		msg, failed := e.fail[op]
		e.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case failed:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
		case ok:
			_, _ = w.Write([]byte(resp))
		default:
			_, _ = w.Write([]byte(`"ok"`))
		}
	}))
	t.Cleanup(srv.Close)
	return e, srv.URL
}

func (e *fakeEngine) called(op string) (engineCall, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.calls {
		if c.op == op {
			return c, true
		}
	}
	return engineCall{}, false
}

func runCLI(t *testing.T, engineURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{
		"--backend-url", engineURL,
		"--snapshot-backend", "file",
		"--snapshot-dir", t.TempDir(),
		"--log-level", "error",
	}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncCommand_PrintsAuthoritativeApps(t *testing.T) {
	engine, url := newFakeEngine(t)
	engine.bodies["get_installed_apps"] = `[{"name":"git","version":"2.41","bucket":"main","install_size":1048576}]`
	engine.bodies["get_buckets"] = `[{"name":"main","source":"https://github.com/ScoopInstaller/Main"}]`

	out, err := runCLI(t, url, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "git")
	assert.Contains(t, out, "2.41")
	assert.Contains(t, out, "1.0 MiB")
	assert.Contains(t, out, "synchronized 1 apps and 1 buckets")

	_, checked := engine.called("check_updates_async")
	assert.True(t, checked, "background update check should have been started")
}

func TestSyncCommand_BackendFailureExitCode(t *testing.T) {
	engine, url := newFakeEngine(t)
	engine.fail["get_installed_apps"] = "scoop not found"
	engine.bodies["get_buckets"] = `[]`

	_, err := runCLI(t, url, "sync")
	require.Error(t, err)
	assert.Equal(t, "scoop not found", errorMessage(err))
	assert.Equal(t, 3, exitCodeForError(err))
}

func TestInstallCommand_PropagatesEngineMessage(t *testing.T) {
	engine, url := newFakeEngine(t)
	engine.fail["install_app"] = "Couldn't find manifest for 'nope'"

	_, err := runCLI(t, url, "install", "nope")
	require.Error(t, err)
	assert.Equal(t, "Couldn't find manifest for 'nope'", errorMessage(err))

	call, ok := engine.called("install_app")
	require.True(t, ok)
	assert.Equal(t, "nope", call.body["appName"])
}

func TestUpdateCommand_ArgumentValidation(t *testing.T) {
	_, url := newFakeEngine(t)

	_, err := runCLI(t, url, "update")
	assert.Equal(t, 2, exitCodeForError(err))

	_, err = runCLI(t, url, "update", "git", "--all")
	assert.Equal(t, 2, exitCodeForError(err))
}

func TestUpdateCommand_All(t *testing.T) {
	engine, url := newFakeEngine(t)
	engine.bodies["update_all_apps"] = `"Updated 3 apps"`

	out, err := runCLI(t, url, "update", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 3 apps")
}

func TestSearchCommand_LocalFlagSelectsOperation(t *testing.T) {
	engine, url := newFakeEngine(t)
	engine.bodies["search_local_packets"] = `[{"name":"ripgrep","version":"14.1.0","bucket":"main","description":"fast grep"}]`

	out, err := runCLI(t, url, "search", "rg", "--local")
	require.NoError(t, err)
	assert.Contains(t, out, "ripgrep")

	_, remote := engine.called("search_apps")
	assert.False(t, remote)
	call, ok := engine.called("search_local_packets")
	require.True(t, ok)
	assert.Equal(t, "rg", call.body["query"])
}

func TestSearchCommand_DefaultsToRemoteOnly(t *testing.T) {
	engine, url := newFakeEngine(t)
	engine.bodies["search_apps"] = `[{"name":"ripgrep","version":"14.1.0","bucket":"main","description":"fast grep"}]`

	out, err := runCLI(t, url, "search", "rg")
	require.NoError(t, err)
	assert.Contains(t, out, "ripgrep")

	_, local := engine.called("search_local_packets")
	assert.False(t, local)
	_, remote := engine.called("search_apps")
	assert.True(t, remote)
}

func TestAppsCommand_SwallowsFailure(t *testing.T) {
	engine, url := newFakeEngine(t)
	engine.fail["get_installed_apps"] = "boom"

	out, err := runCLI(t, url, "apps")
	require.NoError(t, err)
	assert.Contains(t, out, "no installed apps")
}

func TestBucketAdd_PassesOptionalURL(t *testing.T) {
	engine, url := newFakeEngine(t)

	_, err := runCLI(t, url, "bucket", "add", "extras")
	require.NoError(t, err)
	call, ok := engine.called("add_bucket")
	require.True(t, ok)
	assert.Equal(t, "extras", call.body["name"])
	_, hasURL := call.body["url"]
	assert.False(t, hasURL)
}

func TestDepsCommand(t *testing.T) {
	engine, url := newFakeEngine(t)
	engine.bodies["check_dependencies"] = `["7zip","dark"]`

	out, err := runCLI(t, url, "deps", "git", "--bucket", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "7zip")
	assert.Contains(t, out, "dark")

	call, _ := engine.called("check_dependencies")
	assert.Equal(t, "main", call.body["bucket"])
}

func TestInvalidConfigValueIsInvalidArgument(t *testing.T) {
	_, url := newFakeEngine(t)

	_, err := runCLI(t, url, "--snapshot-backend", "redis", "cache", "show")
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeForError(err))
}

func TestEnvironmentOverridesConfig(t *testing.T) {
	engine, url := newFakeEngine(t)
	engine.bodies["is_app_installed"] = `true`
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SCOOPSYNC_BACKEND_URL", url)

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--snapshot-backend", "memory", "installed", "git"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "git is installed")
}

func TestLogsCommand_FiltersProblems(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, logging.LogFileName), []byte(
		"12:00:00.000 INF synchronized apps=3\n"+
			"12:00:01.000 ERR failed to synchronize error=offline\n"), 0o644))

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--snapshot-dir", dir, "logs", "--problems"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "failed to synchronize")
	assert.NotContains(t, out.String(), "synchronized apps=3")
}
