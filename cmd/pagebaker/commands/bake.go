package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagebaker/internal/config"
	"git.home.luguber.info/inful/pagebaker/internal/logfields"
	"git.home.luguber.info/inful/pagebaker/internal/metrics"
	"git.home.luguber.info/inful/pagebaker/internal/site"
)

// BakeCmd implements the 'bake' command.
type BakeCmd struct {
	Output          string `short:"o" help:"Output directory (overrides baker.output_dir)"`
	Portable        bool   `help:"Write URLs relative to each output file"`
	CheckLinks      bool   `name:"check-links" help:"Check internal links after baking"`
	StopOnError     bool   `name:"stop-on-error" help:"Stop at the first page that fails to bake"`
	MetricsTextfile string `name:"metrics-textfile" help:"Write Prometheus metrics to this file after the bake (overrides metrics.textfile)"`
}

func (b *BakeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, b.Output)
	if err != nil {
		return err
	}
	b.apply(cfg)

	ctx, cancel := signalContext()
	defer cancel()
	_, err = RunBake(ctx, cfg, g.Logger, os.Stdout)
	return err
}

func (b *BakeCmd) apply(cfg *config.Config) {
	if b.Portable {
		cfg.Baker.PortableURLs = true
	}
	if b.CheckLinks {
		cfg.Baker.CheckLinks = true
	}
	if b.StopOnError {
		cfg.Baker.StopOnError = true
	}
	if b.MetricsTextfile != "" {
		cfg.Metrics.Textfile = b.MetricsTextfile
	}
}

// RunBake opens the site described by cfg and bakes it once, reporting
// progress to out.
func RunBake(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*site.Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := site.Open(cfg)
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintf(out, "Baking %q to %s\n", cfg.Site.Title, s.OutputDir())

	opts := []site.Option{site.WithLogger(logger)}

	record, err := openRecord(cfg)
	if err != nil {
		return nil, err
	}
	if record != nil {
		defer func() { _ = record.Close() }()
		opts = append(opts, site.WithRecord(record))
	}

	var reg *prom.Registry
	if cfg.Metrics.Textfile != "" {
		reg = prom.NewRegistry()
		opts = append(opts, site.WithRecorder(metrics.NewPrometheusRecorder(reg)))
	}

	summary, bakeErr := site.NewBaker(s, opts...).BakeAll(ctx)

	if reg != nil {
		path := cfg.Resolve(cfg.Metrics.Textfile)
		if err := metrics.WriteTextfile(reg, path); err != nil {
			logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		}
	}

	printSummary(out, summary)
	return summary, bakeErr
}

func printSummary(out io.Writer, summary *site.Summary) {
	if summary == nil {
		return
	}
	for _, failed := range summary.Failures() {
		_, _ = fmt.Fprintf(out, "  FAILED %s: %v\n", displayURI(failed.URI), failed.Err)
	}
	if summary.Links != nil {
		for _, broken := range summary.Links.Broken {
			_, _ = fmt.Fprintf(out, "  BROKEN %s -> %s\n", broken.Page, broken.Link.URL)
		}
	}
	_, _ = fmt.Fprintf(out, "Baked %d pages (%d files, %d failed) in %s\n",
		len(summary.Pages), len(summary.Files()), len(summary.Failures()), summary.Duration.Round(time.Millisecond))
}

func displayURI(uri string) string {
	if uri == "" {
		return "/"
	}
	return uri
}
