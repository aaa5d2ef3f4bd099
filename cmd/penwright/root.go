// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/penwright/penwright/internal/config"
	"github.com/penwright/penwright/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Penwright CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "penwright",
		Short: "Penwright - a small multi-author blog",
		Long: `Penwright serves a multi-author blog backed by PostgreSQL:
registration and login, posts, comments and a user directory.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/penwright/config.yaml if present)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd prints the build version.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("penwright %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// loadConfig reads the configuration for cmd. Commands that register the
// server flags get them layered on top of the file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := resolveConfigFile()
	if err != nil {
		return nil, err
	}
	//nolint:wrapcheck // config errors are already coded
	return config.Load(config.LoadOptions{File: path, Flags: cmd.Flags()})
}

// resolveConfigFile returns --config, or the XDG config file when the flag
// is unset and the file exists.
func resolveConfigFile() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	//nolint:wrapcheck // xdg errors are already coded
	return xdg.FindConfigFile()
}
