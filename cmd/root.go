package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Single-page developer portfolio driven by one JSON document",
	Long: `Folio renders a developer portfolio from a single JSON profile
document into a host HTML page. It serves the page with theme persistence
and scroll reveals, or renders it offline to HTML or PDF.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "folio.yml", "config file path")
}
