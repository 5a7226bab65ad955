package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nihmadev/Axion/internal/vault"
)

var listForURL string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved credentials",
	Long: `List saved credentials, most recently updated first.

Passwords are not shown; use 'axvault get <id>' for that.`,
	Aliases: []string{"ls"},
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringVar(&listForURL, "for-url", "", "only show credentials matching this site")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	v, err := openAndUnlockVault()
	if err != nil {
		return err
	}
	defer v.Close()

	var entries []vault.Entry
	if listForURL != "" {
		entries, err = v.PasswordsForURL(listForURL)
	} else {
		entries, err = v.Passwords()
	}
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}

	if jsonOutput {
		// Redact passwords in listings.
		for i := range entries {
			entries[i].Password = ""
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No credentials found.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Add one with: axvault add URL USERNAME")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", Bold("ID"), Bold("URL"), Bold("USERNAME"), Bold("UPDATED"))
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.URL, e.Username, e.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
