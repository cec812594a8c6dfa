package cmd

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/mj1618/page-turner/internal/output"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show which control would be clicked, without clicking it",
	Long: `Run next-page discovery once and print what every matcher tier saw, the
chosen control and whether the right-side guard accepts it. When nothing
is found, every element with a caret test id is listed to help write
matchers for a changed reader layout.

Examples:
  page-turner probe --url https://leia.arvore.com.br/...
  page-turner probe --driver html --url testdata/reader.html --format json
  page-turner probe --screenshot probe.png`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().String("screenshot", "", "Write an annotated viewport screenshot to this PNG file")
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.Probe(ctx)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("screenshot"); path != "" {
		if a.Provider.Screenshotter == nil {
			return fmt.Errorf("%s driver cannot take screenshots", a.Config.Driver)
		}
		shot, err := a.Provider.Screenshotter.Screenshot(ctx)
		if err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
		img, err := png.Decode(bytes.NewReader(shot))
		if err != nil {
			return fmt.Errorf("decode screenshot: %w", err)
		}
		annotated := AnnotateReport(img, rep, a.Engine.Config().Guard.MinLeftFraction)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := png.Encode(f, annotated); err != nil {
			f.Close()
			return fmt.Errorf("encode screenshot: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		pslog.Ctx(ctx).Info("annotated screenshot written", "path", path)
	}

	return output.Print(rep)
}
