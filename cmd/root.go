package cmd

import (
	"context"

	"github.com/mj1618/page-turner/internal/config"
	"github.com/mj1618/page-turner/internal/output"
	"github.com/mj1618/page-turner/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "page-turner",
	Short: "Turn pages in a web reader automatically",
	Long: `page-turner drives a browser showing a web reading app and keeps clicking
its "next page" control at a fixed interval. The control is located with a
layered heuristic: known markers first, then semantic selectors, then arrow
glyphs on the right side of the viewport. A control left of the viewport
midpoint is never clicked.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// ExecuteContext runs the root command under ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Version = version.String()
	def := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.String("format", "yaml", "Output format: yaml, json")
	pf.Bool("pretty", false, "Indent JSON output")
	pf.String("config", "", "Config file (default ~/.config/page-turner/config.yaml)")
	pf.String("driver", def.Driver, "Browser driver: cdp, playwright, html")
	pf.String("url", def.URL, "Reader URL to open (a file path for the html driver)")
	pf.Bool("headless", def.Headless, "Run the browser without a window")
	pf.String("viewport", def.Viewport, "Browser viewport as WIDTHxHEIGHT")
	pf.Duration("timeout", def.Timeout, "Per-call browser timeout")
	pf.String("user-data-dir", def.UserDataDir, "Browser profile directory, to keep the reader's login")
	pf.String("matchers", def.Matchers, "Discovery matcher file (YAML); default uses built-in matchers")
	pf.Duration("interval", def.Interval, "Time between page turns (2s-20s)")
	pf.Duration("start-delay", def.StartDelay, "Delay before the first turn")
	pf.Duration("pre-pause", def.PrePause, "Pause before activating the control")
	pf.Duration("settle", def.Settle, "Pause after activating the control")
	pf.Duration("wait-timeout", def.WaitTimeout, "How long to wait for the control before the first turn")
	pf.String("wait-for", def.WaitFor, "Selector awaited before the first turn (default: first marker matcher)")
	pf.Bool("retry-stale", def.RetryStale, "Rediscover once when the control changes before it is clicked")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		pretty, _ := rootCmd.PersistentFlags().GetBool("pretty")
		output.PrettyOutput = pretty
		return nil
	}
}
