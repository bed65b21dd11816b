package track

import (
	"context"
	"fmt"

	"github.com/mathlens/snaptrack/internal/event"
	"github.com/mathlens/snaptrack/internal/spool"
)

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Delivered int // records delivered and removed
	Failed    int // delivery attempts that failed; records retained
	Skipped   int // unreadable or corrupt records left in place
}

// Sweeper drains the spool: for each staged record it attempts delivery
// and removes the record only on acknowledged success.
type Sweeper struct {
	store  *spool.Store
	client Deliverer
	logf   func(format string, args ...any)
}

// NewSweeper creates a Sweeper. logf may be nil.
func NewSweeper(store *spool.Store, client Deliverer, logf func(string, ...any)) *Sweeper {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Sweeper{store: store, client: client, logf: logf}
}

// Sweep attempts delivery of every staged record. Records are processed
// independently: one failure never aborts the rest, and no ordering is
// guaranteed. A spool directory that was never created is an empty sweep,
// not an error. Each record is read fully into memory before its delivery
// attempt, so deletion never races an in-progress read.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	names, err := s.store.List()
	if err != nil {
		return res, fmt.Errorf("sweep: %w", err)
	}

	for _, name := range names {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		data, err := s.store.Get(name)
		if err != nil {
			// Possibly already cleaned up by a concurrent inline delete.
			s.logf("track: sweep read %s: %v", name, err)
			res.Skipped++
			continue
		}

		ev, err := event.Unmarshal(data)
		if err != nil {
			s.logf("track: sweep decode %s: %v", name, err)
			res.Skipped++
			continue
		}

		if err := s.client.Deliver(ctx, ev); err != nil {
			s.logf("track: sweep deliver %s: %v", name, err)
			res.Failed++
			continue
		}

		if err := s.store.Delete(name); err != nil {
			s.logf("track: sweep cleanup %s: %v", name, err)
			res.Skipped++
			continue
		}
		res.Delivered++
	}

	return res, nil
}
