package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the aggregate outcome of one batch.
type Result struct {
	Count        int      `json:"count"`
	NewCount     int      `json:"newCount"`
	UpdatedCount int      `json:"updatedCount"`
	FailedCount  int      `json:"failedCount"`
	Errors       []string `json:"errors"`
	Data         []Record `json:"data"`
}

// Observer receives a summary of every completed batch.
type Observer interface {
	ObserveImport(kind Kind, res Result, elapsed time.Duration)
}

type Options struct {
	MaxRows          int
	MapWorkers       int
	ProbeConcurrency int
	Now              func() time.Time
	Logger           *slog.Logger
	Observer         Observer
}

type Importer struct {
	store Store
	opts  Options
}

func New(store Store, opts Options) *Importer {
	if opts.MapWorkers <= 0 {
		opts.MapWorkers = 1
	}
	if opts.ProbeConcurrency <= 0 {
		opts.ProbeConcurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Importer{store: store, opts: opts}
}

// Import maps, validates and reconciles one batch of rows. Only an unknown
// kind, an empty batch or an oversized batch return an error; every other
// problem is reported in Result.Errors.
func (im *Importer) Import(ctx context.Context, kind Kind, rows []any) (Result, error) {
	start := time.Now()

	mapper, err := NewMapper(kind, im.opts.Now)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{}, ErrEmptyBatch
	}
	if im.opts.MaxRows > 0 && len(rows) > im.opts.MaxRows {
		return Result{}, fmt.Errorf("%w: %d rows exceeds limit of %d", ErrTooManyRows, len(rows), im.opts.MaxRows)
	}

	outcomes := make([]RowOutcome, len(rows))
	var g errgroup.Group
	g.SetLimit(im.opts.MapWorkers)
	for i, raw := range rows {
		g.Go(func() error {
			outcomes[i] = mapOne(mapper, raw, i)
			return nil
		})
	}
	_ = g.Wait()

	var issues []Issue
	res := Result{Errors: []string{}, Data: []Record{}}
	for _, outcome := range outcomes {
		for _, w := range outcome.Warnings {
			issues = append(issues, Issue{Row: outcome.Row, Message: w})
		}
		if outcome.Record == nil {
			res.FailedCount++
			continue
		}
		res.Count++
	}

	rec := NewReconciler(im.store, im.opts.ProbeConcurrency, im.opts.Now, im.opts.Logger).Reconcile(ctx, kind, outcomes)
	issues = append(issues, rec.Issues...)

	res.NewCount = rec.New
	res.UpdatedCount = rec.Updated
	res.FailedCount += rec.Failed
	if rec.Data != nil {
		res.Data = rec.Data
	}

	// Row messages in row order; batch-level messages last.
	sort.SliceStable(issues, func(a, b int) bool {
		ra, rb := issues[a].Row, issues[b].Row
		if ra == 0 || rb == 0 {
			return ra != 0 && rb == 0
		}
		return ra < rb
	})
	for _, issue := range issues {
		res.Errors = append(res.Errors, issue.String())
	}

	elapsed := time.Since(start)
	im.opts.Logger.Info("import_completed",
		"kind", kind,
		"rows", len(rows),
		"count", res.Count,
		"new", res.NewCount,
		"updated", res.UpdatedCount,
		"failed", res.FailedCount,
		"messages", len(res.Errors),
		"duration_ms", elapsed.Milliseconds(),
	)
	if im.opts.Observer != nil {
		im.opts.Observer.ObserveImport(kind, res, elapsed)
	}
	return res, nil
}

func mapOne(mapper *Mapper, raw any, index int) RowOutcome {
	row, warnings, err := RowFromAny(raw)
	if err != nil {
		return RowOutcome{Row: index + 1, Warnings: append(warnings, err.Error())}
	}
	outcome := mapper.MapRow(row, index)
	outcome.Warnings = append(warnings, outcome.Warnings...)
	outcome.Warnings = append(outcome.Warnings, Validate(outcome.Record)...)
	return outcome
}
