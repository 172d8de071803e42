package main

import (
	"github.com/spf13/cobra"

	"taskctl/internal/command"
)

var killCmd = &cobra.Command{
	Use:   "kill <identifier>",
	Short: "Kill a running task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		c, err := command.NewKill(args[0])
		if err != nil {
			return err
		}
		return runCommand(c, cfg)
	},
}

var relaunchCmd = &cobra.Command{
	Use:   "relaunch <identifier>",
	Short: "Relaunch a task that was previously loaded",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		c, err := command.NewRelaunch(args[0])
		if err != nil {
			return err
		}
		return runCommand(c, cfg)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Ask the supervisor to list its tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		return runCommand(command.NewList(), cfg)
	},
}
