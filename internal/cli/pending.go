package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mathlens/snaptrack/internal/event"
	"github.com/mathlens/snaptrack/internal/spool"
)

func init() {
	rootCmd.AddCommand(pendingCmd)
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List staged records awaiting delivery",
	RunE:  runPending,
}

func runPending(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := spool.NewStore(cfg.SpoolDir)
	names, err := store.List()
	if err != nil {
		return fmt.Errorf("list spool: %w", err)
	}

	if len(names) == 0 {
		fmt.Println("No staged records.")
		return nil
	}

	fmt.Printf("%-30s %-25s %s\n", "RECORD", "EVENT", "TIMESTAMP")
	for _, name := range names {
		data, err := store.Get(name)
		if err != nil {
			fmt.Printf("%-30s (unreadable: %v)\n", name, err)
			continue
		}
		ev, err := event.Unmarshal(data)
		if err != nil {
			fmt.Printf("%-30s (corrupt: %v)\n", name, err)
			continue
		}
		fmt.Printf("%-30s %-25s %s\n", name, truncate(ev.Name, 25), ev.Timestamp)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
