package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/edf-plant-map/internal/domain"
	"github.com/couchcryptid/edf-plant-map/internal/observability"
	"github.com/couchcryptid/edf-plant-map/internal/render"
	"github.com/google/uuid"
)

// Fetcher retrieves the raw records of one dataset.
type Fetcher interface {
	Fetch(ctx context.Context, ds domain.Dataset) (domain.Response, error)
}

// Publisher exports the normalized records of a run.
type Publisher interface {
	Publish(ctx context.Context, records []domain.PlantRecord) error
}

// Options configures what a run fetches and where the map goes.
type Options struct {
	Datasets   []domain.Dataset
	OutputPath string
	CenterLat  float64
	CenterLon  float64
	Zoom       int
}

// Result describes a successful run.
type Result struct {
	RunID       string
	Tables      []domain.Table
	Document    *render.Document
	HTML        []byte
	GeneratedAt time.Time
	Duration    time.Duration
}

// Pipeline runs fetch, normalize, color and render for every dataset, one
// after another. Any fetch or normalization failure aborts the run before
// anything is written.
type Pipeline struct {
	fetcher   Fetcher
	publisher Publisher
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu     sync.Mutex
	ready  atomic.Bool
	latest atomic.Pointer[Result]
}

// New creates a Pipeline. publisher may be nil.
func New(f Fetcher, publisher Publisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:   f,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a map has been generated.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no map has been generated yet")
	}
	return nil
}

// LatestMap returns the HTML of the last successful run.
func (p *Pipeline) LatestMap() ([]byte, time.Time, bool) {
	r := p.latest.Load()
	if r == nil {
		return nil, time.Time{}, false
	}
	return r.HTML, r.GeneratedAt, true
}

// Run performs one complete pass. Concurrent calls are serialized.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("run started", "datasets", len(p.opts.Datasets))

	res, err := p.run(ctx, logger)
	elapsed := time.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		logger.Error("run aborted, no map written", "error", err)
		return nil, err
	}

	res.RunID = runID
	res.Duration = elapsed
	p.latest.Store(res)
	p.ready.Store(true)
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.Set(float64(res.GeneratedAt.Unix()))

	logger.Info("map written",
		"path", p.opts.OutputPath,
		"markers", res.Document.MarkerCount(),
		"clusters", res.Document.ClusterCount(),
		"duration", elapsed,
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger) (*Result, error) {
	generatedAt := domain.Now().UTC()
	doc := render.NewDocument(p.opts.CenterLat, p.opts.CenterLon, p.opts.Zoom, generatedAt)
	tables := make([]domain.Table, 0, len(p.opts.Datasets))

	for _, ds := range p.opts.Datasets {
		table, colors, err := p.processDataset(ctx, logger, ds)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
		doc.Add(table, colors)
	}

	html, err := render.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("render map: %w", err)
	}
	if err := render.WriteFile(p.opts.OutputPath, html); err != nil {
		return nil, fmt.Errorf("write map: %w", err)
	}
	for _, l := range doc.Layers {
		p.metrics.MarkersRendered.WithLabelValues(string(l.Family)).Set(float64(l.MarkerCount()))
		if l.Skipped > 0 {
			logger.Info("rows without coordinates not placed", "family", l.Family, "skipped", l.Skipped)
		}
	}

	p.publish(ctx, logger, tables)

	return &Result{Tables: tables, Document: doc, HTML: html, GeneratedAt: generatedAt}, nil
}

// processDataset fetches, normalizes and colors one dataset.
func (p *Pipeline) processDataset(ctx context.Context, logger *slog.Logger, ds domain.Dataset) (domain.Table, domain.CategoryColorMap, error) {
	family := string(ds.Family)

	resp, err := p.fetcher.Fetch(ctx, ds)
	if err != nil {
		return domain.Table{}, domain.CategoryColorMap{}, fmt.Errorf("fetch %s: %w", ds.Family, err)
	}
	logger.Info("dataset fetched", "family", family, "total_count", resp.TotalCount)

	table, err := domain.Normalize(ds.Family, resp)
	if err != nil {
		return domain.Table{}, domain.CategoryColorMap{}, err
	}

	colors, err := domain.ColorsFor(table)
	if err != nil {
		return domain.Table{}, domain.CategoryColorMap{}, fmt.Errorf("assign %s colors: %w", ds.Family, err)
	}

	georef := table.Georeferenced()
	p.metrics.RecordsNormalized.WithLabelValues(family).Add(float64(table.Len()))
	p.metrics.RecordsWithoutCoord.WithLabelValues(family).Add(float64(table.Len() - georef))
	p.metrics.Categories.WithLabelValues(family).Set(float64(len(table.Categories())))

	logger.Info("dataset normalized",
		"family", family,
		"rows", table.Len(),
		"georeferenced", georef,
		"categories", len(table.Categories()),
	)

	counts := table.CategoryCounts()
	for _, e := range colors.Entries() {
		logger.Info("category color",
			"family", family,
			"category", domain.CategoryLabel(e.Category),
			"color", e.Color,
			"rows", counts[e.Category],
		)
	}

	return table, colors, nil
}

// publish exports every normalized row. Export failures never fail the run.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, tables []domain.Table) {
	if p.publisher == nil {
		return
	}

	var records []domain.PlantRecord
	for _, t := range tables {
		records = append(records, t.Records...)
	}
	if len(records) == 0 {
		return
	}

	if err := p.publisher.Publish(ctx, records); err != nil {
		p.metrics.PublishErrors.Inc()
		logger.Warn("record export failed", "error", err, "records", len(records))
		return
	}
	p.metrics.RecordsPublished.Add(float64(len(records)))
}
