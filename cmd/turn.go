package cmd

import (
	"github.com/mj1618/page-turner/internal/output"
	"github.com/spf13/cobra"
)

var turnCmd = &cobra.Command{
	Use:   "turn",
	Short: "Turn one page",
	Long: `Find the next-page control and activate it once: focus, native click and
a bubbling synthetic click, then wait for the page to settle.

Exits non-zero when no control is found or it could not be activated.`,
	RunE: runTurn,
}

func init() {
	rootCmd.AddCommand(turnCmd)
}

func runTurn(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, turnErr := a.Turner.Turn(ctx)
	if err := output.Print(res); err != nil {
		return err
	}
	return turnErr
}
