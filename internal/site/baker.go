package site

import (
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pagebaker/internal/baker"
	"git.home.luguber.info/inful/pagebaker/internal/bakerecord"
	"git.home.luguber.info/inful/pagebaker/internal/config"
	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebaker/internal/linkcheck"
	"git.home.luguber.info/inful/pagebaker/internal/logfields"
	"git.home.luguber.info/inful/pagebaker/internal/metrics"
	"git.home.luguber.info/inful/pagebaker/internal/page"
)

// PageResult is the outcome of baking one page.
type PageResult struct {
	URI                string
	Files              []string
	Assets             int
	PaginationAccessed bool
	Duration           time.Duration
	Err                error
}

// Summary is the outcome of BakeAll.
type Summary struct {
	RunID    string
	Pages    []PageResult
	Duration time.Duration
	// Links is nil unless link checking is enabled.
	Links *linkcheck.Report
}

// Files returns every baked file in bake order.
func (s *Summary) Files() []string {
	var files []string
	for _, p := range s.Pages {
		files = append(files, p.Files...)
	}
	return files
}

// Failures returns the results of pages that failed to bake.
func (s *Summary) Failures() []PageResult {
	var failed []PageResult
	for _, p := range s.Pages {
		if p.Err != nil {
			failed = append(failed, p)
		}
	}
	return failed
}

// Baker bakes every page of a site.
type Baker struct {
	site     *Site
	recorder metrics.Recorder
	record   bakerecord.Store
	logger   *slog.Logger
	newRunID func() string
}

// Option configures a Baker.
type Option func(*Baker)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(b *Baker) { b.recorder = r } }

// WithRecord stores each run in the given bake record.
func WithRecord(store bakerecord.Store) Option { return func(b *Baker) { b.record = store } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(b *Baker) { b.logger = l } }

// NewBaker returns a baker for s.
func NewBaker(s *Site, opts ...Option) *Baker {
	b := &Baker{
		site:     s,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BakeAll bakes every page and post. Pages are baked one at a time since they
// share the site configuration. A failed page does not stop the run unless
// baker.stop_on_error is set; all failures are returned as one bake error.
// Broken links found by the link check are returned as a links error.
func (b *Baker) BakeAll(ctx context.Context) (*Summary, error) {
	cfg := b.site.cfg
	summary := &Summary{RunID: b.newRunID()}
	logger := b.logger.With(logfields.RunID(summary.RunID))
	start := time.Now()

	if b.record != nil {
		if err := b.record.BeginRun(ctx, summary.RunID, start); err != nil {
			return summary, err
		}
	}

	env := b.site.env
	pb := baker.NewPageBaker(b.site.OutputDir(), env, b.site.renderer, baker.Options{
		CopyAssets: cfg.Baker.CopyAssets,
		Logger:     logger,
	})

	var bakeErrs []error
	for _, p := range b.site.All() {
		if ctx.Err() != nil {
			break
		}
		res := b.bakePage(ctx, pb, p)
		summary.Pages = append(summary.Pages, res)
		b.appendRecord(ctx, logger, summary.RunID, p, res)

		if res.Err != nil {
			bakeErrs = append(bakeErrs, res.Err)
			logger.Error("Failed to bake page", logfields.URI(p.URI()), logfields.Error(res.Err))
			if cfg.Baker.StopOnError {
				break
			}
		}
	}

	var linksErr error
	if cfg.Baker.CheckLinks && ctx.Err() == nil {
		summary.Links, linksErr = b.checkLinks(ctx, logger, summary.Files())
	}

	summary.Duration = time.Since(start)
	outcome := b.finish(ctx, logger, summary, len(bakeErrs))

	logger.Info("Site baked",
		logfields.Pages(len(summary.Pages)),
		logfields.Files(len(summary.Files())),
		slog.Int("failures", len(bakeErrs)),
		slog.String("outcome", string(outcome)),
		logfields.DurationMS(float64(summary.Duration.Microseconds())/1000))

	switch {
	case ctx.Err() != nil:
		return summary, ctx.Err()
	case len(bakeErrs) > 0:
		return summary, errors.NewError(errors.CategoryBake, "site bake failed").
			WithCause(stderrors.Join(bakeErrs...)).
			WithContext("failures", len(bakeErrs)).
			WithContext("run_id", summary.RunID).
			Build()
	default:
		return summary, linksErr
	}
}

func (b *Baker) bakePage(ctx context.Context, pb *baker.PageBaker, p *page.Page) PageResult {
	// Pages are reused across runs in watch mode.
	p.SetPageNumber(1)

	start := time.Now()
	res, err := pb.Bake(ctx, p, nil)
	result := PageResult{URI: p.URI(), Err: err}
	if res != nil {
		result.Files = res.Files
		result.PaginationAccessed = res.PaginationDataAccessed
	}
	if err == nil {
		if assets, aerr := p.Assetor(); aerr == nil {
			result.Assets = len(assets.AssetPathnames())
			if !b.site.cfg.Baker.CopyAssets {
				result.Err = b.publishSourceAssets(assets)
			}
		}
	}
	result.Duration = time.Since(start)

	b.recorder.ObservePageDuration(result.Duration)
	b.recorder.AddBakedFiles(len(result.Files))
	switch {
	case result.Err == nil:
		b.recorder.IncPageResult(metrics.ResultSuccess)
		b.recorder.AddCopiedAssets(result.Assets)
	case stderrors.Is(result.Err, context.Canceled), stderrors.Is(result.Err, context.DeadlineExceeded):
		b.recorder.IncPageResult(metrics.ResultCanceled)
	default:
		b.recorder.IncPageResult(metrics.ResultFailed)
	}
	return result
}

// publishSourceAssets copies a page's assets to the "<uri>-assets" directory
// their URLs point at when the page baker does not copy them itself.
func (b *Baker) publishSourceAssets(assets *page.Assetor) error {
	paths := assets.AssetPathnames()
	if len(paths) == 0 {
		return nil
	}
	dir := filepath.Join(b.site.OutputDir(), filepath.FromSlash(assets.SourceLayoutDir()))
	return baker.CopyAssets(dir, paths)
}

func (b *Baker) appendRecord(ctx context.Context, logger *slog.Logger, runID string, p *page.Page, res PageResult) {
	if b.record == nil {
		return
	}
	fingerprint, _ := p.Fingerprint()
	entry := bakerecord.Entry{
		RunID:              runID,
		URI:                res.URI,
		SourcePath:         p.SourcePath(),
		Fingerprint:        fingerprint,
		Files:              res.Files,
		Assets:             res.Assets,
		PaginationAccessed: res.PaginationAccessed,
		Duration:           res.Duration,
		BakedAt:            time.Now(),
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	if err := b.record.Append(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("Failed to record page bake", logfields.URI(res.URI), logfields.Error(err))
	}
}

func (b *Baker) checkLinks(ctx context.Context, logger *slog.Logger, files []string) (*linkcheck.Report, error) {
	root := b.site.env.store.String(config.KeySiteRoot)
	report, err := linkcheck.NewChecker(b.site.OutputDir(), root).CheckTree(ctx, files)
	if err != nil {
		logger.Warn("Link check failed", logfields.Error(err))
		return report, err
	}
	b.recorder.SetBrokenLinks(len(report.Broken))
	for _, broken := range report.Broken {
		logger.Warn("Broken link",
			logfields.Path(broken.Page),
			slog.String("url", broken.Link.URL),
			slog.String("target", broken.Target))
	}
	return report, report.Err()
}

func (b *Baker) finish(ctx context.Context, logger *slog.Logger, summary *Summary, failures int) bakerecord.Outcome {
	outcome := bakerecord.OutcomeSuccess
	switch {
	case ctx.Err() != nil:
		outcome = bakerecord.OutcomeCanceled
	case failures > 0:
		outcome = bakerecord.OutcomeFailed
	}

	b.recorder.ObserveBakeDuration(summary.Duration)
	b.recorder.IncBakeOutcome(string(outcome))

	if b.record != nil {
		if _, err := b.record.FinishRun(context.WithoutCancel(ctx), summary.RunID, outcome, time.Now()); err != nil {
			logger.Warn("Failed to finish bake record run", logfields.Error(err))
		}
	}
	return outcome
}
