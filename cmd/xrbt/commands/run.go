package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/internal/scenario"
	"github.com/benz9527/xtree/xlog"
)

const (
	flagWatch = "watch"
	flagStats = "stats"
)

func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Apply a YAML scenario to a fresh tree",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenarioCmd,
	}
	cmd.Flags().Bool(flagWatch, false, "re-run the scenario each time the file changes")
	cmd.Flags().String(flagStats, "", "publish the tree metrics under this name")
	return cmd
}

func runScenarioCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	watch, _ := cmd.Flags().GetBool(flagWatch)
	statsName, _ := cmd.Flags().GetString(flagStats)

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	dir, name := filepath.Split(path)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := startRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.stop()

	err = runScenarioOnce(ctx, dir, name, statsName, rt.logger, cmd.OutOrStdout())
	if !watch {
		return err
	}
	if err != nil {
		rt.logger.ErrorStack(err, "[xrbt] scenario failed", zap.String("file", name))
	}
	return watchFile(ctx, dir, name, rt.logger, func() {
		if err := runScenarioOnce(ctx, dir, name, statsName, rt.logger, cmd.OutOrStdout()); err != nil {
			rt.logger.ErrorStack(err, "[xrbt] scenario failed", zap.String("file", name))
		}
	})
}

func runScenarioOnce(ctx context.Context, dir, name, statsName string, logger xlog.XLogger, out io.Writer) error {
	s, err := scenario.Load(dir, name)
	if err != nil {
		return err
	}
	report, err := scenario.Run(ctx, s,
		scenario.WithRunLogger(logger),
		scenario.WithRunStats(statsName),
	)
	if err != nil {
		return err
	}
	scenario.RenderReport(out, report)
	if report.Passed() {
		_, _ = color.New(color.FgGreen, color.Bold).Fprintf(out, "PASS %s\n", report.Name)
		return nil
	}
	_, _ = color.New(color.FgRed, color.Bold).Fprintf(out, "FAIL %s\n", report.Name)
	return fmt.Errorf("scenario %s: %d of %d steps failed", report.Name, report.Failed(), len(report.Steps))
}
