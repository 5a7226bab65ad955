package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var getCopy bool

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a credential",
	Long: `Show a credential by id, including the decrypted password.

With --copy the password goes to the clipboard instead of stdout.

Examples:
  axvault get 6f1b2a3c-...
  axvault get 6f1b2a3c-... --copy
  PASS=$(axvault get 6f1b2a3c-... --json | jq -r .password)`,
	Aliases: []string{"g"},
	Args:    cobra.ExactArgs(1),
	RunE:    runGet,
}

func init() {
	getCmd.Flags().BoolVarP(&getCopy, "copy", "c", false, "copy the password to the clipboard")
	rootCmd.AddCommand(getCmd)
}

func runGet(_ *cobra.Command, args []string) error {
	v, err := openAndUnlockVault()
	if err != nil {
		return err
	}
	defer v.Close()

	entry, err := v.GetPassword(args[0])
	if err != nil {
		return fmt.Errorf("failed to get credential: %w", err)
	}

	if getCopy {
		if err := clipboard.WriteAll(entry.Password); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		Success("Password for %s copied to clipboard", entry.Username)
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}

	PrintKeyValue("ID", entry.ID)
	PrintKeyValue("URL", entry.URL)
	PrintKeyValue("Username", entry.Username)
	PrintKeyValue("Password", entry.Password)
	PrintKeyValue("Updated", entry.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
