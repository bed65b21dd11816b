// Package track ties staging and delivery into the recorder/sweeper pair.
// Recording is fire-and-forget from the caller's point of view: tracking
// is non-critical and no failure here may disturb the primary app flow.
package track

import (
	"context"

	"github.com/mathlens/snaptrack/internal/deliver"
	"github.com/mathlens/snaptrack/internal/event"
	"github.com/mathlens/snaptrack/internal/spool"
)

// Deliverer is the delivery capability the recorder and sweeper need.
// Satisfied by *deliver.Client.
type Deliverer interface {
	Deliver(ctx context.Context, ev event.Event) error
}

var _ Deliverer = (*deliver.Client)(nil)

// Recorder stages events durably and attempts immediate delivery.
type Recorder struct {
	store  *spool.Store
	client Deliverer
	logf   func(format string, args ...any)
}

// NewRecorder creates a Recorder. logf receives diagnostic messages for
// swallowed failures; nil disables logging.
func NewRecorder(store *spool.Store, client Deliverer, logf func(string, ...any)) *Recorder {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Recorder{store: store, client: client, logf: logf}
}

// Record stages an event and attempts one immediate delivery. It never
// fails from the caller's perspective: persistence and delivery errors
// are logged and absorbed. The staged record survives until a delivery
// attempt is acknowledged; inline cleanup after an immediate success is
// an optimization — the sweep remains the authoritative cleanup path.
func (r *Recorder) Record(ctx context.Context, name string, metadata map[string]any) {
	ev := event.New(name, metadata)

	data, err := ev.Marshal()
	if err != nil {
		r.logf("track: marshal %q: %v", name, err)
		return
	}

	id := event.NewRecordID()
	if err := r.store.Put(id, data); err != nil {
		// Nothing staged: still attempt delivery so the event has one
		// chance of arriving instead of vanishing silently.
		r.logf("track: stage %q: %v", name, err)
		if err := r.client.Deliver(ctx, ev); err != nil {
			r.logf("track: deliver %q: %v", name, err)
		}
		return
	}

	if err := r.client.Deliver(ctx, ev); err != nil {
		// Record stays staged; the next sweep retries.
		r.logf("track: deliver %q: %v (staged as %s)", name, err, id)
		return
	}

	if err := r.store.Delete(id); err != nil {
		// Safe to ignore: the sweep will re-deliver and the endpoint
		// accepts at-least-once.
		r.logf("track: cleanup %s: %v", id, err)
	}
}
