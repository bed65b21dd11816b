// snaptrack-drop reads one JSON tracking event from stdin and stages it
// into the spool without attempting delivery. Designed as a pipe target
// for shell hooks and cron jobs; the daemon or a later sweep delivers it.
//
// Usage:
//
//	echo '{"event":"backup_done","timestamp":"..."}' | snaptrack-drop
//
// Environment variables:
//
//	SNAPTRACK_SPOOL_DIR  staging directory (default: ~/.snaptrack/spool)
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mathlens/snaptrack/internal/config"
	"github.com/mathlens/snaptrack/internal/event"
	"github.com/mathlens/snaptrack/internal/spool"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "snaptrack-drop: %v\n", err)
		os.Exit(1)
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snaptrack-drop: read stdin: %v\n", err)
		os.Exit(1)
	}
	if len(raw) == 0 {
		fmt.Fprintf(os.Stderr, "snaptrack-drop: empty input\n")
		os.Exit(1)
	}

	ev, err := event.Unmarshal(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snaptrack-drop: %v\n", err)
		os.Exit(1)
	}
	if err := ev.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "snaptrack-drop: %v\n", err)
		os.Exit(1)
	}

	// Re-marshal so the staged record is the canonical wire form even
	// when stdin carried extra whitespace or unknown fields.
	data, err := ev.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "snaptrack-drop: %v\n", err)
		os.Exit(1)
	}

	store := spool.NewStore(cfg.SpoolDir)
	id := event.NewRecordID()
	if err := store.Put(id, data); err != nil {
		fmt.Fprintf(os.Stderr, "snaptrack-drop: stage event: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("staged %s\n", id)
}
