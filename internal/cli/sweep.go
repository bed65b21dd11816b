package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Deliver all staged records, removing each on acknowledgment",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, sweeper, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	res, err := sweeper.Sweep(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("delivered %d, failed %d, skipped %d\n", res.Delivered, res.Failed, res.Skipped)
	return nil
}
