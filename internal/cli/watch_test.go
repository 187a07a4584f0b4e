package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/giant/internal/harness"
)

// syncBuffer is a bytes.Buffer safe for the watch goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type watchRun struct {
	result *harness.Result
	err    error
}

func startWatch(t *testing.T, path string, out io.Writer) (<-chan watchRun, context.CancelFunc, <-chan error) {
	t.Helper()
	runs := make(chan watchRun, 8)
	opts := &WatchOptions{
		RootOptions: &RootOptions{
			Format: "text",
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
		Debounce: 20 * time.Millisecond,
		onRun: func(result *harness.Result, err error) {
			runs <- watchRun{result, err}
		},
	}
	f := &OutputFormatter{Format: "text", Writer: out}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchScenario(ctx, opts, f, path) }()
	return runs, cancel, done
}

func nextRun(t *testing.T, runs <-chan watchRun) watchRun {
	t.Helper()
	select {
	case r := <-runs:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a watch run")
		return watchRun{}
	}
}

func TestWatch_RerunsOnChange(t *testing.T) {
	path := writeFile(t, t.TempDir(), "boiler.yaml", boilerScenario)
	out := &syncBuffer{}
	runs, cancel, done := startWatch(t, path, out)

	first := nextRun(t, runs)
	require.NoError(t, first.err)
	assert.Equal(t, "boiler", first.result.Scenario)
	require.Len(t, first.result.Actions, 1)

	// Bring temp within tolerance: no more actions.
	calm := strings.Replace(boilerScenario, "value: 92.7", "value: 75.5", 1)
	require.NoError(t, os.WriteFile(path, []byte(calm), 0644))

	second := nextRun(t, runs)
	require.NoError(t, second.err)
	assert.Empty(t, second.result.Actions)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.GreaterOrEqual(t, strings.Count(out.String(), "Scenario: boiler\n"), 2)
}

func TestWatch_KeepsWatchingAfterBrokenEdit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "boiler.yaml", boilerScenario)
	out := &syncBuffer{}
	runs, cancel, done := startWatch(t, path, out)
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, nextRun(t, runs).err)

	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0644))
	broken := nextRun(t, runs)
	require.Error(t, broken.err)
	assert.Equal(t, ExitCommandError, GetExitCode(broken.err))
	assert.Contains(t, out.String(), "Error [E_LOAD]")

	require.NoError(t, os.WriteFile(path, []byte(boilerScenario), 0644))
	require.NoError(t, nextRun(t, runs).err)
}

func TestWatch_MissingDirectory(t *testing.T) {
	opts := &WatchOptions{RootOptions: &RootOptions{Format: "text"}}
	out := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: out}

	err := watchScenario(context.Background(), opts, f, "/does/not/exist/boiler.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMetricsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	metricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "giant_optimizer_history_size")
}

func TestServeMetrics(t *testing.T) {
	stop, err := serveMetrics("127.0.0.1:0", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	stop()

	_, err = serveMetrics("not-an-address", slog.Default())
	require.Error(t, err)
}
