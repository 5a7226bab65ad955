package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/nihmadev/Axion/internal/vault"
)

var (
	genLength  int
	genSymbols bool
	genCopy    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random password",
	Long: `Generate a cryptographically random password.

The vault is not touched; the password is only printed (or copied).

Examples:
  axvault generate
  axvault generate --length 32 --symbols
  axvault generate --copy`,
	Aliases: []string{"gen"},
	RunE:    runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&genLength, "length", "l", 20, "password length (8-128)")
	generateCmd.Flags().BoolVarP(&genSymbols, "symbols", "s", false, "include symbols")
	generateCmd.Flags().BoolVarP(&genCopy, "copy", "c", false, "copy to clipboard instead of printing")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, _ []string) error {
	password, err := vault.GeneratePassword(genLength, genSymbols)
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}

	if genCopy {
		if err := clipboard.WriteAll(password); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		Success("Password copied to clipboard")
		return nil
	}

	fmt.Println(password)
	return nil
}
