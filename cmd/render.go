package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/export"
	"github.com/Zachkp/folio/internal/theme"
)

var (
	renderOutput string
	renderTheme  string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the portfolio to a standalone HTML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		res, err := renderStatic(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if err := os.WriteFile(renderOutput, res.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", renderOutput, err)
		}
		fmt.Printf("Rendered %q to %s\n", res.Title, renderOutput)
		return nil
	},
}

// renderStatic renders the configured profile into the host template.
func renderStatic(ctx context.Context, cfg *config.Config) (*export.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	mode := theme.ParseMode(renderTheme)
	if renderTheme != "" && mode == theme.Unset {
		return nil, fmt.Errorf("invalid theme %q: must be light or dark", renderTheme)
	}
	source := cfg.ProfileSource
	if source == "" {
		source = cfg.ProfilePath
	}
	return export.HTML(ctx, export.Options{
		Template:         cfg.Template,
		Source:           source,
		Theme:            mode,
		PlaceholderEmail: cfg.PlaceholderEmail,
	})
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "index.html", "output file")
	renderCmd.Flags().StringVar(&renderTheme, "theme", "", "theme to render with (light or dark)")
	rootCmd.AddCommand(renderCmd)
}
