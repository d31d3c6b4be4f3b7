package main

import (
	"github.com/spf13/cobra"

	"notioncal/internal/config"
	appLog "notioncal/internal/log"
)

// globalFlags holds the persistent flag values.
type globalFlags struct {
	configPath string
	logLevel   string
	listen     string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "notioncal",
		Short: "Mirror a Notion task database into Google Calendar",
		Long: `notioncal periodically reconciles the pages of a Notion database with the
events of a Google Calendar. Each page becomes a zero-length event whose
title shows the course, name and done state, and whose description holds
the page id. Events for removed pages are deleted.

Configuration is read from a YAML file (created with defaults on first run)
and from the environment; .env and .env.local are loaded if present.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "./notioncal.yaml", "Path to config file")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
	pf.StringVar(&flags.listen, "listen", "", "HTTP listen address for the status API; overrides config")

	root.AddCommand(
		newRunCmd(flags),
		newOnceCmd(flags),
		newInspectCmd(flags),
		newConfigCmd(flags),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads .env files, the config file and the environment, applies
// flag overrides, configures logging and checks the result with validate.
func loadConfig(cmd *cobra.Command, flags *globalFlags, validate func(*config.Config) error) (*config.Config, error) {
	if err := config.LoadDotEnv(".env.local", ".env"); err != nil {
		return nil, err
	}

	cfg, err := config.LoadWithEnv(flags.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, flags, cfg)

	if err := appLog.Configure(cfg.LogConfig()); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	appLog.Info("effective config",
		"config_path", flags.configPath,
		"listen", cfg.Listen,
		"database_id", cfg.Notion.DatabaseID,
		"calendar_id", cfg.Google.CalendarID,
		"categories", cfg.Notion.Categories,
		"schedule", cfg.Sync.Schedule,
		"done_style", cfg.Sync.DoneStyle,
		"orphans", cfg.Sync.Orphans,
		"dry_run", cfg.Sync.DryRun,
	)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, flags *globalFlags, cfg *config.Config) {
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	// --listen="" is a valid way to disable the server.
	if cmd.Flags().Changed("listen") {
		cfg.Listen = flags.listen
	}
}
