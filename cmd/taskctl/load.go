package main

import (
	"github.com/spf13/cobra"

	"taskctl/internal/command"
)

var loadCmd = &cobra.Command{
	Use:   "load <file> <symbol> <identifier>",
	Short: "Load a program image and start it as a task",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		c, err := command.NewLoad(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return runCommand(c, cfg)
	},
}
