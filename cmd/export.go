package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the portfolio to PDF with headless Chrome",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		rendered, err := renderStatic(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		pdf, err := export.PDF(cmd.Context(), rendered)
		if err != nil {
			return err
		}
		out := exportOutput
		if out == "" {
			out = pdf.Filename
		}
		if err := os.WriteFile(out, pdf.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("Exported %q to %s (%d bytes)\n", pdf.Title, out, len(pdf.Data))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default derived from the page title)")
	rootCmd.AddCommand(exportCmd)
}
