// Package cmd provides the CLI commands for axvault.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dataDir    string
	jsonOutput bool
	verbose    bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "axvault",
	Short: "Axion vault CLI - manage the browser's saved credentials",
	Long: `axvault manages the Axion browser's encrypted credential vault from
the command line.

Get started:
  axvault init                       Create a new vault
  axvault add URL USERNAME           Save a credential
  axvault list                       List saved credentials
  axvault get ID                     Show one credential

Examples:
  axvault init
  axvault add https://example.com alice
  axvault search example
  axvault generate --length 24 --symbols`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "vault data directory (default ~/.axion)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	viper.SetEnvPrefix("AXION")
	viper.AutomaticEnv()
}

// isVerbose returns whether verbose mode is enabled.
func isVerbose() bool {
	if verbose {
		return true
	}
	return viper.GetBool("verbose")
}
