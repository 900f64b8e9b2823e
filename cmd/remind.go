// /home/krylon/go/src/github.com/blicero/binsched/cmd/remind.go
// -*- mode: go; coding: utf-8; -*-
// Created on 15. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 21:58:33 krylon>

package cmd

import (
	"fmt"

	"github.com/blicero/binsched/objects"
	"github.com/blicero/binsched/settings"
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind-at [HH:MM]",
	Short: "Show or set the time of day reminders go off on the day before a collection",
	Args:  cobra.MaximumNArgs(1),
	RunE:  remindAt,
}

func init() {
	rootCmd.AddCommand(remindCmd)
} // func init()

func remindAt(cmd *cobra.Command, args []string) error {
	var (
		err   error
		prefs *settings.Store
		tod   objects.TimeOfDay
	)

	if prefs, err = openSettings(); err != nil {
		return err
	} else if len(args) == 0 {
		fmt.Println(prefs.ReminderTime())
		return nil
	} else if tod, err = objects.ParseTimeOfDay(args[0]); err != nil {
		return err
	} else if err = prefs.SetReminderTime(tod); err != nil {
		return err
	}

	fmt.Printf("Reminders will go off at %s on the day before a collection.\n", tod)
	return nil
} // func remindAt(cmd *cobra.Command, args []string) error
