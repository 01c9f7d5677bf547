package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/destinator/internal/api"
	"github.com/jackzampolin/destinator/internal/config"
	"github.com/jackzampolin/destinator/internal/home"
	"github.com/jackzampolin/destinator/internal/report"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		path := h.ConfigPath()
		if cfgFile != "" {
			path = config.ExpandPath(cfgFile)
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		message("wrote %s", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Show the effective configuration",
	Long: `Show every configuration key with its effective value, after the
config file and DESTINATOR_* environment variables are applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		out := report.Config{File: svcs.Config.ConfigFile()}
		if len(args) == 1 {
			e, err := svcs.Config.Lookup(args[0])
			if err != nil {
				return err
			}
			out.Entries = []config.Entry{e}
		} else {
			out.Entries = svcs.Config.Entries()
		}
		return api.Output(out)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
