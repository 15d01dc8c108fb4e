package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Issue is one message in an import result. Row is 1-based; zero marks a
// batch-level message.
type Issue struct {
	Row     int
	Message string
}

func (i Issue) String() string {
	if i.Row == 0 {
		return i.Message
	}
	return fmt.Sprintf("Row %d: %s", i.Row, i.Message)
}

type Reconciliation struct {
	Data    []Record
	New     int
	Updated int
	Failed  int
	Issues  []Issue
}

// Reconciler routes validated records to insert or update by probing the
// store on contract number.
type Reconciler struct {
	store       Store
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

func NewReconciler(store Store, concurrency int, now func() time.Time, logger *slog.Logger) *Reconciler {
	if concurrency <= 0 {
		concurrency = 1
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, concurrency: concurrency, now: now, logger: logger}
}

type pending struct {
	row          int
	rec          Record
	existing     *Record
	probeErr     error
	stampedEntry bool
}

// Reconcile persists the mapped rows of outcomes. Rows repeating a contract
// number collapse onto the last one. Probes run concurrently; all writes
// start after every probe has resolved.
func (rc *Reconciler) Reconcile(ctx context.Context, kind Kind, outcomes []RowOutcome) Reconciliation {
	var res Reconciliation

	items := rc.dedupe(kind, outcomes, &res)

	var g errgroup.Group
	g.SetLimit(rc.concurrency)
	for i := range items {
		item := &items[i]
		g.Go(func() error {
			existing, err := rc.store.FindByKey(ctx, kind, item.rec.ContractNumber)
			switch {
			case err == nil:
				item.existing = &existing
			case errors.Is(err, ErrNotFound):
			default:
				item.probeErr = err
			}
			return nil
		})
	}
	_ = g.Wait()

	now := rc.now().UTC()
	var inserts, updates []*pending
	for i := range items {
		item := &items[i]
		item.rec.Kind = kind
		item.rec.normalizeDates()
		item.rec.UpdatedAt = now

		switch {
		case item.probeErr != nil:
			res.Failed++
			res.Issues = append(res.Issues, Issue{
				Row:     item.row,
				Message: fmt.Sprintf("lookup contract %s: %v", item.rec.ContractNumber, item.probeErr),
			})
		case item.existing != nil:
			item.rec.ID = item.existing.ID
			item.rec.CreatedAt = item.existing.CreatedAt
			if item.stampedEntry && item.existing.EntryDate != nil {
				item.rec.EntryDate = cloneDate(item.existing.EntryDate)
			}
			updates = append(updates, item)
		default:
			if item.rec.ID == uuid.Nil {
				item.rec.ID = uuid.New()
			}
			item.rec.CreatedAt = now
			inserts = append(inserts, item)
		}
	}
	res.New = len(inserts)
	res.Updated = len(updates)

	if len(inserts) > 0 {
		records := make([]Record, len(inserts))
		keys := make([]string, len(inserts))
		for i, item := range inserts {
			records[i] = item.rec
			keys[i] = item.rec.ContractNumber
		}
		persisted, err := rc.store.BulkInsert(ctx, records)
		if err != nil {
			res.Failed += len(inserts)
			res.Issues = append(res.Issues, Issue{
				Message: fmt.Sprintf("insert %d record(s) [%s]: %v", len(keys), strings.Join(keys, ", "), err),
			})
		} else {
			res.Data = append(res.Data, persisted...)
		}
	}

	for _, item := range updates {
		persisted, err := rc.store.UpdateByKey(ctx, kind, item.rec.ContractNumber, item.rec)
		if err != nil {
			res.Failed++
			res.Issues = append(res.Issues, Issue{
				Message: fmt.Sprintf("update contract %s from row %d: %v", item.rec.ContractNumber, item.row, err),
			})
			continue
		}
		res.Data = append(res.Data, persisted)
	}

	return res
}

func (rc *Reconciler) dedupe(kind Kind, outcomes []RowOutcome, res *Reconciliation) []pending {
	positions := map[string]int{}
	items := make([]pending, 0, len(outcomes))
	dropped := map[int]bool{}

	for _, outcome := range outcomes {
		if outcome.Record == nil {
			continue
		}
		key := outcome.Record.ContractNumber
		if prev, ok := positions[key]; ok {
			dropped[prev] = true
			res.Issues = append(res.Issues, Issue{
				Row:     outcome.Row,
				Message: fmt.Sprintf("contract number %s duplicates row %d; keeping this row", key, items[prev].row),
			})
			rc.logger.Warn("import_duplicate_key",
				"kind", kind,
				"contract_number", key,
				"kept_row", outcome.Row,
				"dropped_row", items[prev].row,
			)
		}
		positions[key] = len(items)
		items = append(items, pending{
			row:          outcome.Row,
			rec:          outcome.Record.Clone(),
			stampedEntry: outcome.EntryDateDefaulted,
		})
	}

	kept := items[:0]
	for i, item := range items {
		if !dropped[i] {
			kept = append(kept, item)
		}
	}
	return kept
}
