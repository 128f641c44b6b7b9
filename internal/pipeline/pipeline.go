package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/agridata/quickstats-etl/internal/domain"
	"github.com/agridata/quickstats-etl/internal/observability"
)

// Source fetches raw records for one query. The Quick Stats client makes a
// single best-effort call; retry policy lives in this package.
type Source interface {
	Fetch(ctx context.Context, query domain.Query) ([]domain.RawRecord, error)
}

// Loader delivers normalized rows to a sink.
type Loader interface {
	Load(ctx context.Context, rows []domain.CountyIrrigation) error
}

// Pipeline orchestrates the fetch-normalize-load cycle.
type Pipeline struct {
	source   Source
	loaders  []Loader
	query    domain.Query
	opts     domain.NormalizeOptions
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Pipeline. interval of 0 means run one cycle and stop;
// a positive interval re-runs the query on that period.
func New(source Source, loaders []Loader, query domain.Query, opts domain.NormalizeOptions,
	interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:   source,
		loaders:  loaders,
		query:    query,
		opts:     opts,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one cycle has loaded rows.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a cycle yet")
	}
	return nil
}

// Run executes ETL cycles until the context is cancelled (or, in one-shot
// mode, after the first cycle). Transient fetch and load failures are retried
// with exponential backoff; a MalformedValueError is schema drift and aborts
// the run in either mode.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"commodity", p.query.Commodity,
		"min_year", p.query.MinYear,
		"state", p.query.StateAlpha,
		"interval", p.interval,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if p.interval == 0 {
		return p.runCycle(ctx)
	}

	// Exponential backoff: start at 1s, double each retry, cap at 1m.
	// Quick Stats outages are long compared to Kafka blips, so the floor
	// and ceiling are higher than a broker retry loop would use.
	const (
		initialBackoff = time.Second
		maxBackoff     = time.Minute
	)
	backoff := initialBackoff

	for {
		err := p.runCycle(ctx)
		switch {
		case err == nil:
			backoff = initialBackoff
		case ctx.Err() != nil:
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case isSchemaDrift(err):
			return err
		default:
			p.logger.Error("cycle failed, backing off", "error", err, "backoff", backoff)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		if !sleepWithContext(ctx, p.interval) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// runCycle performs one fetch-normalize-load pass.
func (p *Pipeline) runCycle(ctx context.Context) error {
	start := time.Now()

	fetchStart := time.Now()
	records, err := p.source.Fetch(ctx, p.query)
	if err != nil {
		p.metrics.FetchErrors.Inc()
		return err
	}
	p.metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())
	p.metrics.RecordsFetched.Add(float64(len(records)))

	rows, stats, err := domain.Normalize(records, p.opts)
	if err != nil {
		return err
	}
	p.metrics.RecordsDropped.WithLabelValues("filtered").Add(float64(stats.Filtered))
	p.metrics.RecordsDropped.WithLabelValues("redacted").Add(float64(stats.Redacted))
	p.metrics.RecordsDropped.WithLabelValues("incomplete_pair").Add(float64(stats.IncompletePair))

	for _, loader := range p.loaders {
		if err := loader.Load(ctx, rows); err != nil {
			return err
		}
	}
	p.metrics.RowsProduced.Add(float64(len(rows)))

	p.ready.Store(true)
	p.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("cycle complete",
		"records", len(records),
		"rows", len(rows),
		"dropped_filtered", stats.Filtered,
		"dropped_redacted", stats.Redacted,
		"dropped_incomplete", stats.IncompletePair,
		"duration", time.Since(start),
	)
	return nil
}

// isSchemaDrift reports whether err signals an unexpected upstream format
// change rather than a transient failure.
func isSchemaDrift(err error) bool {
	var malformed *domain.MalformedValueError
	return errors.As(err, &malformed)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
