package cmd

import (
	"context"
	"errors"

	"github.com/mj1618/page-turner/internal/output"
	"github.com/mj1618/page-turner/internal/session"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Turn pages periodically until the book ends",
	Long: `Open the reader and turn a page every --interval until the next-page
control can no longer be found (end of book) or the process is
interrupted. A turn in progress when interrupted is allowed to finish its
click. The final session status is printed on exit.

Examples:
  page-turner run --url https://leia.arvore.com.br/... --interval 8s
  page-turner run --user-data-dir ~/.cache/page-turner/profile`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int("max-pages", 0, "Stop after this many turns (0 = no limit)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	maxPages, _ := cmd.Flags().GetInt("max-pages")
	var sched *session.Scheduler
	sched = a.Scheduler(func(res session.Result, err error) {
		if maxPages > 0 && a.State.Snapshot().Turns >= maxPages {
			pslog.Ctx(ctx).Info("page limit reached", "turns", maxPages)
			sched.Stop()
		}
	})

	runErr := sched.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if err := output.Print(a.State.Snapshot()); err != nil {
		return err
	}
	return runErr
}
