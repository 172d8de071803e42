package main

import (
	"github.com/spf13/cobra"

	"taskctl/internal/config"
	"taskctl/internal/observability"
)

var (
	flagConfig      string
	flagDevice      string
	flagBaud        int
	flagDumpPath    string
	flagLogLevel    string
	flagMetricsAddr string
)

var rootCmd = &cobra.Command{
	Use:           "taskctl",
	Short:         "Controller for an embedded task supervisor over a serial link",
	Long:          "taskctl loads program images onto a remote task supervisor and issues lifecycle commands (kill, relaunch, list, log) over a serial device.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	observability.InitLogger("taskctl")
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to taskctl.toml")
	pf.StringVarP(&flagDevice, "device", "d", "", "serial device path")
	pf.IntVarP(&flagBaud, "baud", "b", 115200, "baud rate")
	pf.StringVar(&flagDumpPath, "dump-path", "", "diagnostic frame dump path")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&flagMetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	rootCmd.AddCommand(loadCmd, killCmd, relaunchCmd, listCmd, logCmd, dumpCmd)
}

// resolveConfig loads the config file and overlays any flags the user set
// explicitly. Flags win over file keys; file keys win over defaults.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	fl := cmd.Flags()
	if fl.Changed("device") {
		cfg.Device = flagDevice
	}
	if fl.Changed("baud") {
		cfg.Baud = flagBaud
	}
	if fl.Changed("dump-path") {
		cfg.DumpPath = flagDumpPath
	}
	if fl.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if fl.Changed("metrics-addr") {
		cfg.MetricsAddr = flagMetricsAddr
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	if err := observability.SetLevel(cfg.LogLevel); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
