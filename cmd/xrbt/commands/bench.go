package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benz9527/xtree/internal/config"
	"github.com/benz9527/xtree/internal/scenario"
)

const (
	flagTrees   = "trees"
	flagSize    = "size"
	flagWorkers = "workers"
)

var benchFlags = map[string]string{
	"bench.trees":   flagTrees,
	"bench.size":    flagSize,
	"bench.workers": flagWorkers,
}

func NewBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Churn independent trees on a worker pool",
		Args:  cobra.NoArgs,
		RunE:  runBenchCmd,
	}
	cmd.Flags().Int(flagTrees, config.DefaultBenchTrees, "number of independent trees")
	cmd.Flags().Int(flagSize, config.DefaultBenchSize, "values inserted in each tree")
	cmd.Flags().Int(flagWorkers, config.DefaultBenchWorkers, "size of the worker pool")
	cmd.Flags().String(flagStats, "", "publish the tree metrics under this name")
	return cmd
}

func runBenchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, benchFlags)
	if err != nil {
		return err
	}
	statsName, _ := cmd.Flags().GetString(flagStats)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := startRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.stop()

	res, err := scenario.Bench(ctx, scenario.BenchConfig{
		Trees:     cfg.Bench.Trees,
		Size:      cfg.Bench.Size,
		Workers:   cfg.Bench.Workers,
		StatsName: statsName,
		Logger:    rt.logger,
	})
	if err != nil {
		return err
	}
	scenario.RenderBench(cmd.OutOrStdout(), res)
	if res.Err != nil {
		return fmt.Errorf("bench: %w", res.Err)
	}
	return nil
}
