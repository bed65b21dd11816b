package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var recordMetadata string

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVar(&recordMetadata, "metadata", "", "Event metadata as a JSON object")
}

var recordCmd = &cobra.Command{
	Use:   "record <event-name>",
	Short: "Stage one tracking event and attempt immediate delivery",
	Long:  "Writes the event to the spool, then tries to deliver it once. A failed delivery is not an error: the record stays staged for the next sweep.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecord,
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var metadata map[string]any
	if recordMetadata != "" {
		if err := json.Unmarshal([]byte(recordMetadata), &metadata); err != nil {
			return fmt.Errorf("parse --metadata: %w", err)
		}
	}

	recorder, _, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	recorder.Record(cmd.Context(), args[0], metadata)
	return nil
}
