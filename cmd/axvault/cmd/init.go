package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new vault",
	Long: `Create a new encrypted credential vault.

You will be prompted for a master password (8 characters minimum).
The same vault is used by the browser's autofill and the daemon.

Examples:
  axvault init
  axvault init --data-dir ~/axion-test`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	defer v.Close()

	if v.Exists() {
		return fmt.Errorf("vault already exists at %s", getDataDir())
	}

	password, err := promptPasswordConfirm()
	if err != nil {
		return err
	}

	if err := v.Create(password); err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}

	fmt.Fprintln(os.Stderr)
	Success("Vault created at %s", getDataDir())
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Next steps:")
	fmt.Fprintln(os.Stderr, "  axvault add URL USERNAME    Save a credential")
	fmt.Fprintln(os.Stderr, "  axvault list                List saved credentials")

	return nil
}
