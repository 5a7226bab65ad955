package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a credential",
	Long: `Delete a saved credential by id.

Examples:
  axvault rm 6f1b2a3c-...
  axvault rm 6f1b2a3c-... --force`,
	Aliases: []string{"delete"},
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "skip confirmation")
	rootCmd.AddCommand(rmCmd)
}

func runRm(_ *cobra.Command, args []string) error {
	v, err := openAndUnlockVault()
	if err != nil {
		return err
	}
	defer v.Close()

	if !rmForce && !PromptConfirm(fmt.Sprintf("Delete credential %s?", args[0])) {
		Info("Aborted")
		return nil
	}

	if err := v.DeletePassword(args[0]); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	Success("Deleted credential %s", args[0])
	return nil
}
