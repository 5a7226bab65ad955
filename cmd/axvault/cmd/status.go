package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vault status",
	Long:  `Show whether a vault exists and how many unlock attempts remain.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	exists := v.Exists()
	var remaining uint32
	if exists {
		remaining, err = v.RemainingAttempts()
		if err != nil {
			return fmt.Errorf("failed to read attempt counter: %w", err)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"dataDir":           getDataDir(),
			"exists":            exists,
			"remainingAttempts": remaining,
		})
	}

	PrintKeyValue("Data dir", getDataDir())
	if !exists {
		fmt.Println("No vault created yet. Run 'axvault init'.")
		return nil
	}
	PrintKeyValue("Vault", "exists")
	PrintKeyValue("Remaining attempts", fmt.Sprintf("%d", remaining))
	return nil
}
