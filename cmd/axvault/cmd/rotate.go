package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Change the master password",
	Long: `Change the vault's master password.

Every stored password is re-encrypted under a key derived from the new
master password and a fresh salt. The change is atomic: an interrupted
rotation leaves the old password in effect.`,
	RunE: runRotate,
}

func init() {
	rootCmd.AddCommand(rotateCmd)
}

func runRotate(_ *cobra.Command, _ []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	if !v.Exists() {
		return fmt.Errorf("no vault found at %s, run 'axvault init' first", getDataDir())
	}

	oldPassword, err := promptPassword("Current master password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := v.Unlock(oldPassword); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr)
	newPassword, err := promptPassword("New master password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := promptPassword("Confirm new master password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if newPassword != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := v.ChangeMasterPassword(oldPassword, newPassword); err != nil {
		return fmt.Errorf("failed to rotate master password: %w", err)
	}

	Success("Master password changed")
	return nil
}
