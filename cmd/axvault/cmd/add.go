package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nihmadev/Axion/internal/vault"
)

var (
	addPassword string
	addGenerate bool
)

var addCmd = &cobra.Command{
	Use:   "add <url> <username>",
	Short: "Save a credential",
	Long: `Save a credential for a site.

The password is prompted for unless --password or --generate is given.

Examples:
  axvault add https://example.com alice
  axvault add https://example.com alice --generate
  axvault add https://example.com alice --password hunter22`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addPassword, "password", "", "password to store (prompted if omitted)")
	addCmd.Flags().BoolVar(&addGenerate, "generate", false, "generate a random password")
	rootCmd.AddCommand(addCmd)
}

func runAdd(_ *cobra.Command, args []string) error {
	v, err := openAndUnlockVault()
	if err != nil {
		return err
	}
	defer v.Close()

	url, username := args[0], args[1]

	password := addPassword
	switch {
	case addGenerate:
		password, err = vault.GeneratePassword(20, true)
		if err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
	case password == "":
		password, err = promptPassword("Password for " + username + ": ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	entry, err := v.AddPassword(url, username, password)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}

	Success("Saved credential %s for %s", entry.ID, url)
	if addGenerate {
		fmt.Fprintln(os.Stderr, "Generated password printed once below:")
		fmt.Println(password)
	}
	return nil
}
