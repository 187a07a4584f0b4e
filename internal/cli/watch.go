package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/giant/internal/harness"
)

// DefaultDebounce is how long watch waits after the last change before
// re-running.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	MetricsAddr string        // serve /metrics here when set
	Debounce    time.Duration // quiet period before a re-run

	// onRun observes every completed run; err is the run's failure.
	onRun func(result *harness.Result, err error)
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <scenario>",
		Short: "Re-run a scenario whenever its file changes",
		Long: `Run a scenario, then run it again every time the file is saved.

With --metrics-addr the runtime's Prometheus instruments are served at
/metrics for as long as the watch lasts. Stop with Ctrl-C.

Examples:
  giant watch scenarios/thermostat.yaml
  giant watch scenarios/thermostat.cue --metrics-addr :9090`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchScenario(cmd.Context(), opts, opts.formatter(cmd), args[0])
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (e.g. :9090)")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", DefaultDebounce, "quiet period after a change before re-running")

	return cmd
}

// watchScenario runs path once and again after every change until ctx is
// done. Run failures are reported and the watch continues.
func watchScenario(ctx context.Context, opts *WatchOptions, f *OutputFormatter, path string) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.MetricsAddr != "" {
		stop, err := serveMetrics(opts.MetricsAddr, logger)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfig, err)
		}
		defer stop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeLoad, fmt.Errorf("create watcher: %w", err))
	}
	defer watcher.Close()

	// Editors often replace the file instead of writing it, so watch the
	// directory and filter by name.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return f.Fail(ExitCommandError, ErrCodeLoad, fmt.Errorf("watch %s: %w", path, err))
	}

	run := func() {
		result, err := runScenarioFile(opts.RootOptions, f, path)
		if err == nil {
			err = f.Result(result.RunID, result, result.Report())
		}
		if opts.onRun != nil {
			opts.onRun(result, err)
		}
	}
	run()

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("scenario changed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			f.VerboseLog("Re-running %s", path)
			run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "path", path, "error", err)
		}
	}
}

// metricsHandler serves the default Prometheus registry at /metrics.
func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// serveMetrics listens on addr and serves metricsHandler until the returned
// stop function is called.
func serveMetrics(addr string, logger *slog.Logger) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: metricsHandler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "addr", ln.Addr().String(), "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
