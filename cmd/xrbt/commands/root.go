// Package commands implements the xrbt command handlers.
package commands

import (
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/benz9527/xtree/internal/config"
)

const (
	flagConfig      = "config"
	flagLogLevel    = "log-level"
	flagLogEncoder  = "log-encoder"
	flagLogFile     = "log-file"
	flagMetrics     = "metrics"
	flagMetricsAddr = "metrics-addr"
)

// rootFlags maps the config keys to the persistent flags of the root.
var rootFlags = map[string]string{
	"log.level":        flagLogLevel,
	"log.encoder":      flagLogEncoder,
	"log.file":         flagLogFile,
	"metrics.exporter": flagMetrics,
	"metrics.addr":     flagMetricsAddr,
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xrbt",
		Short: "xrbt drives red-black trees through scenarios and benchmarks",
		Long: `xrbt exercises the xtree red-black tree.

Commands:
  run       Apply a YAML scenario and audit the invariants after each step
  bench     Churn independent trees concurrently and report the throughput`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String(flagConfig, "", "config file (default .xrbt.yaml in the working or home directory)")
	pf.String(flagLogLevel, config.DefaultLogLevel, "log level: debug, info, warn or error")
	pf.String(flagLogEncoder, config.DefaultLogEncoder, "log encoder: plain or json")
	pf.String(flagLogFile, "", "also write the logs into this file")
	pf.String(flagMetrics, config.DefaultMetricsExporter, "metrics exporter: none, console or prometheus")
	pf.String(flagMetricsAddr, config.DefaultMetricsAddr, "listen address of the prometheus /metrics endpoint")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewBenchCommand())
	return rootCmd
}

// loadConfig merges the root flags with the command flags before
// reading the configuration.
func loadConfig(cmd *cobra.Command, cmdFlags map[string]string) (*config.Config, error) {
	flags := lo.Assign(rootFlags, cmdFlags)
	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, err
	}
	return config.Load(path, cmd.Flags(), flags)
}
