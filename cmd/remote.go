// /home/krylon/go/src/github.com/blicero/binsched/cmd/remote.go
// -*- mode: go; coding: utf-8; -*-
// Created on 15. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 15:51:27 krylon>

package cmd

import (
	"fmt"

	"github.com/blicero/binsched/backend"
	"github.com/blicero/binsched/client"
	"github.com/blicero/binsched/common"
	"github.com/spf13/cobra"
)

var daemonAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Ask a running daemon about the schedule and the pending reminders",
	Args:  cobra.NoArgs,
	RunE:  status,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask a running daemon to sync the schedule with the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			err error
			c   *client.Client
			msg string
		)

		if c, err = client.NewClient(daemonAddr); err != nil {
			return err
		} else if msg, err = c.Refresh(); err != nil {
			return err
		}

		fmt.Println(msg)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, refreshCmd} {
		c.Flags().StringVarP(
			&daemonAddr,
			"address",
			"a",
			fmt.Sprintf("localhost:%d", common.DefaultPort),
			"Address the daemon listens on")
		rootCmd.AddCommand(c)
	}
} // func init()

func status(cmd *cobra.Command, args []string) error {
	var (
		err       error
		c         *client.Client
		view      *backend.ScheduleView
		reminders []backend.ReminderView
	)

	if c, err = client.NewClient(daemonAddr); err != nil {
		return err
	} else if view, err = c.Schedule(); err != nil {
		return fmt.Errorf("Cannot reach daemon at %s: %w", daemonAddr, err)
	} else if reminders, err = c.Pending(); err != nil {
		return err
	}

	if view.Location == "" {
		fmt.Println("No location has been selected.")
	} else {
		fmt.Printf("Location:  %s\n", view.Location)
	}

	fmt.Printf("State:     %s\n", view.State)
	if view.LastSync != "" {
		fmt.Printf("Last sync: %s\n", view.LastSync)
	}
	fmt.Printf("Reminders: %s on the day before a collection\n", view.ReminderTime)
	fmt.Printf("Known collections: %d\n", len(view.Events))

	fmt.Printf("Pending reminders: %d\n", len(reminders))
	for _, r := range reminders {
		fmt.Printf("  %s  %s\n", r.Due, r.Body)
	}

	return nil
} // func status(cmd *cobra.Command, args []string) error
