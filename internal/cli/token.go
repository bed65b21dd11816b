package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mathlens/snaptrack/internal/credstore"
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenShowCmd, tokenClearCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the optional bearer token used for delivery",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store the bearer token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCreds()
		if err != nil {
			return err
		}
		if err := store.Set(credstore.TokenKey, args[0]); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
		fmt.Println("Token stored.")
		return nil
	},
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print whether a bearer token is configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCreds()
		if err != nil {
			return err
		}
		_, ok, err := store.Get(credstore.TokenKey)
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		if !ok {
			fmt.Println("No token configured; events are delivered unauthenticated.")
			return nil
		}
		fmt.Println("Token configured.")
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCreds()
		if err != nil {
			return err
		}
		if err := store.Delete(credstore.TokenKey); err != nil {
			return fmt.Errorf("clear token: %w", err)
		}
		fmt.Println("Token cleared.")
		return nil
	},
}

func openCreds() (*credstore.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := credstore.Open(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	return store, nil
}
