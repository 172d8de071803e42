package main

import (
	"github.com/spf13/cobra"

	"taskctl/internal/command"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Tail device log output without sending anything",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		return runCommand(command.NewLogAttach(), cfg)
	},
}
