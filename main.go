package main

import (
	"context"
	"log"
	"os"

	"github.com/mj1618/page-turner/cmd"
	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	if err := cmd.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("page-turner failed")
		return 1
	}
	return 0
}
