package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagebaker/internal/bakerecord"
	"git.home.luguber.info/inful/pagebaker/internal/config"
	"git.home.luguber.info/inful/pagebaker/internal/logfields"
	"git.home.luguber.info/inful/pagebaker/internal/metrics"
	"git.home.luguber.info/inful/pagebaker/internal/site"
	"git.home.luguber.info/inful/pagebaker/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output      string        `short:"o" help:"Output directory (overrides baker.output_dir)"`
	Debounce    time.Duration `help:"Quiet period before a change triggers a rebake (overrides watch.debounce)"`
	Interval    time.Duration `help:"Also rebake on this interval (overrides watch.interval)"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (overrides metrics.addr)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, w.Output)
	if err != nil {
		return err
	}
	if w.Debounce > 0 {
		cfg.Watch.Debounce = w.Debounce
	}
	if w.Interval > 0 {
		cfg.Watch.Interval = w.Interval
	}
	if w.MetricsAddr != "" {
		cfg.Metrics.Addr = w.MetricsAddr
	}

	ctx, cancel := signalContext()
	defer cancel()
	return RunWatch(ctx, cfg, g.Logger, os.Stdout)
}

// siteWatcher rebakes the site on every watch trigger. The site is reopened
// each time so added or removed pages are picked up.
type siteWatcher struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      io.Writer
	recorder metrics.Recorder
	record   bakerecord.Store
}

func (sw *siteWatcher) rebuild(ctx context.Context, reason string) error {
	s, err := site.Open(sw.cfg)
	if err != nil {
		return err
	}
	opts := []site.Option{site.WithLogger(sw.logger), site.WithRecorder(sw.recorder)}
	if sw.record != nil {
		opts = append(opts, site.WithRecord(sw.record))
	}
	summary, err := site.NewBaker(s, opts...).BakeAll(ctx)
	_, _ = fmt.Fprintf(sw.out, "[%s] ", reason)
	printSummary(sw.out, summary)
	return err
}

// RunWatch bakes the site, then rebakes it on source changes until ctx is done.
func RunWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := site.Open(cfg)
	if err != nil {
		return err
	}

	sw := &siteWatcher{cfg: cfg, logger: logger, out: out, recorder: metrics.NoopRecorder{}}

	record, err := openRecord(cfg)
	if err != nil {
		return err
	}
	if record != nil {
		defer func() { _ = record.Close() }()
		sw.record = record
	}

	if cfg.Metrics.Addr != "" {
		reg := prom.NewRegistry()
		sw.recorder = metrics.NewPrometheusRecorder(reg)
		stop, err := serveMetrics(cfg.Metrics.Addr, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	_, _ = fmt.Fprintf(out, "Watching %d directories, baking to %s\n", len(s.WatchDirs()), s.OutputDir())
	w := watch.New(watch.Options{
		Dirs:     s.WatchDirs(),
		Ignore:   []string{s.OutputDir()},
		Debounce: cfg.Watch.Debounce,
		Interval: cfg.Watch.Interval,
		Logger:   logger,
	}, sw.rebuild)
	return w.Run(ctx)
}

func serveMetrics(addr string, reg *prom.Registry, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on metrics address %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Handler: mux, ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", logfields.Error(err))
		}
	}()
	logger.Info("Serving metrics", slog.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
