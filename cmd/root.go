// /home/krylon/go/src/github.com/blicero/binsched/cmd/root.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 12:20:47 krylon>

// Package cmd implements the command line interface.
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/settings"
	"github.com/spf13/cobra"
)

var (
	appDir   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "binsched",
	Short: "Bin collection schedules and reminders for Renfrewshire villages",
	Long: `binsched keeps the bin collection schedule for your village in sync
and reminds you on the evening before a collection which bins to put out.`,
	Version:           common.Version,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute runs the command line interface. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
} // func Execute()

func init() {
	rootCmd.PersistentFlags().StringVar(
		&appDir,
		"appdir",
		common.BaseDir,
		"The directory where application-specific files live")
	rootCmd.PersistentFlags().StringVarP(
		&logLevel,
		"loglevel",
		"l",
		"INFO",
		"Minimum level of log messages (TRACE, DEBUG, INFO, WARN, ERROR)")
} // func init()

func prepare(cmd *cobra.Command, args []string) error {
	var err error

	if appDir != common.BaseDir {
		if err = common.SetBaseDir(appDir); err != nil {
			return err
		}
	} else if err = common.InitApp(); err != nil {
		return err
	}

	return common.SetLogLevel(logLevel)
} // func prepare(cmd *cobra.Command, args []string) error

func getLogger() *log.Logger {
	var (
		err error
		l   *log.Logger
	)

	if l, err = common.GetLogger(logdomain.CLI); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot create logger: %s\n", err.Error())
		os.Exit(1)
	}

	return l
} // func getLogger() *log.Logger

func openSettings() (*settings.Store, error) {
	var (
		err error
		st  *settings.Store
	)

	if st, err = settings.Open(""); err != nil {
		return nil, fmt.Errorf("Cannot open settings %s: %w",
			common.SettingsPath,
			err)
	}

	return st, nil
} // func openSettings() (*settings.Store, error)
