// Package daemon runs the sweep trigger: it watches the spool directory
// for newly staged records and also sweeps on a fixed interval, so records
// staged while the network was down drain once connectivity returns.
package daemon

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mathlens/snaptrack/internal/track"
)

// debounceDefault collapses bursts of file events into one sweep. A rapid
// sequence of Record calls creates many files; one pass drains them all.
const debounceDefault = 200 * time.Millisecond

// Daemon triggers sweeps in response to spool activity and on an interval.
type Daemon struct {
	sweeper  *track.Sweeper
	spoolDir string
	interval time.Duration
	debounce time.Duration
	logf     func(format string, args ...any)
}

// New creates a Daemon over the given sweeper and spool directory.
// interval is the periodic sweep cadence; logf may be nil.
func New(sweeper *track.Sweeper, spoolDir string, interval time.Duration, logf func(string, ...any)) *Daemon {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Daemon{
		sweeper:  sweeper,
		spoolDir: spoolDir,
		interval: interval,
		debounce: debounceDefault,
		logf:     logf,
	}
}

// Run blocks until ctx is cancelled. One initial sweep drains anything
// left over from a previous run. Sweeps run inline on the event loop, so
// they never overlap; triggers arriving mid-sweep coalesce into the next
// debounce or tick.
func (d *Daemon) Run(ctx context.Context) error {
	// The watcher needs the directory to exist even before the first
	// record is staged.
	if err := os.MkdirAll(d.spoolDir, 0750); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(d.spoolDir); err != nil {
		return err
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// debounceTimer fires one sweep after a quiet period; stopped until
	// the first file event arrives.
	debounceTimer := time.NewTimer(d.debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}

	d.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isStagedRecord(ev) {
				continue
			}
			debounceTimer.Reset(d.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logf("daemon: watch: %v", err)

		case <-debounceTimer.C:
			d.sweep(ctx)

		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

func (d *Daemon) sweep(ctx context.Context) {
	res, err := d.sweeper.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			d.logf("daemon: sweep: %v", err)
		}
		return
	}
	if res.Delivered > 0 || res.Failed > 0 || res.Skipped > 0 {
		d.logf("daemon: sweep delivered=%d failed=%d skipped=%d",
			res.Delivered, res.Failed, res.Skipped)
	}
}

// isStagedRecord reports whether a file event marks a newly published
// record. Only the rename that publishes a .json file matters; .tmp
// writes are in progress and must not trigger a sweep.
func isStagedRecord(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	return strings.HasSuffix(ev.Name, ".json") && !strings.HasSuffix(ev.Name, ".tmp")
}
