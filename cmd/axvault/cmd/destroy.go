package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var destroyForce bool

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete the vault and all saved credentials",
	Long: `Delete the vault, its key material and every saved credential.

This cannot be undone.`,
	RunE: runDestroy,
}

func init() {
	destroyCmd.Flags().BoolVarP(&destroyForce, "force", "f", false, "skip confirmation")
	rootCmd.AddCommand(destroyCmd)
}

func runDestroy(_ *cobra.Command, _ []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	if !v.Exists() {
		return fmt.Errorf("no vault found at %s", getDataDir())
	}

	if !destroyForce {
		Warning("This permanently deletes every saved credential.")
		if !PromptConfirm("Destroy the vault?") {
			Info("Aborted")
			return nil
		}
	}

	if err := v.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy vault: %w", err)
	}

	Success("Vault destroyed")
	return nil
}
