package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	updateURL      string
	updateUsername string
	updatePassword string
	updatePrompt   bool
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a credential",
	Long: `Update fields of a saved credential. Only the given flags change.

Examples:
  axvault update 6f1b2a3c-... --username bob
  axvault update 6f1b2a3c-... --prompt-password`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateURL, "url", "", "new URL")
	updateCmd.Flags().StringVar(&updateUsername, "username", "", "new username")
	updateCmd.Flags().StringVar(&updatePassword, "password", "", "new password")
	updateCmd.Flags().BoolVar(&updatePrompt, "prompt-password", false, "prompt for a new password")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(_ *cobra.Command, args []string) error {
	v, err := openAndUnlockVault()
	if err != nil {
		return err
	}
	defer v.Close()

	password := updatePassword
	if updatePrompt {
		password, err = promptPassword("New password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	var urlPtr, userPtr, passPtr *string
	if updateURL != "" {
		urlPtr = &updateURL
	}
	if updateUsername != "" {
		userPtr = &updateUsername
	}
	if password != "" {
		passPtr = &password
	}
	if urlPtr == nil && userPtr == nil && passPtr == nil {
		return fmt.Errorf("nothing to update, pass --url, --username, --password or --prompt-password")
	}

	entry, err := v.UpdatePassword(args[0], urlPtr, userPtr, passPtr)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}

	Success("Updated credential %s", entry.ID)
	return nil
}
