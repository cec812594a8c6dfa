package cmd

import (
	"context"

	"github.com/mj1618/page-turner/internal/app"
	"github.com/mj1618/page-turner/internal/config"
	"github.com/spf13/cobra"

	// Drivers register themselves with the platform registry.
	_ "github.com/mj1618/page-turner/internal/platform/cdp"
	_ "github.com/mj1618/page-turner/internal/platform/htmldoc"
	_ "github.com/mj1618/page-turner/internal/platform/pw"
)

// loadConfig resolves the configuration for cmd: file, then environment,
// then flags set on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, cmd.Flags())
}

// openApp loads the configuration and opens the page.
func openApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, cfg)
}
