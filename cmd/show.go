// /home/krylon/go/src/github.com/blicero/binsched/cmd/show.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 13:02:38 krylon>

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/controller"
	"github.com/blicero/binsched/objects"
	"github.com/blicero/binsched/objects/state"
	"github.com/blicero/binsched/settings"
	"github.com/spf13/cobra"
)

var (
	showLimit int
	showWait  time.Duration
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the next collections for the selected location",
	Long: `show loads the schedule for the selected location, syncs it with the
server and prints the next collections. Pending reminders are updated as
a side effect.`,
	Args: cobra.NoArgs,
	RunE: show,
}

func init() {
	showCmd.Flags().IntVarP(
		&showLimit,
		"limit",
		"n",
		controller.DefaultUpcomingLimit,
		"Number of collections to show")
	showCmd.Flags().DurationVarP(
		&showWait,
		"wait",
		"w",
		time.Second*15,
		"How long to wait for the server before showing the cached schedule")

	rootCmd.AddCommand(showCmd)
} // func init()

func show(cmd *cobra.Command, args []string) error {
	var (
		err   error
		prefs *settings.Store
		eng   *engine
		loc   string
		ok    bool
	)

	if prefs, err = openSettings(); err != nil {
		return err
	} else if loc, ok = prefs.Location(); !ok {
		fmt.Println("No location has been selected, yet. Use 'binsched location NAME' to pick one.")
		return nil
	} else if eng, err = assemble(prefs, false); err != nil {
		return err
	}

	defer eng.Close()

	var st = awaitSync(eng.ctl, showWait)

	printSchedule(os.Stdout,
		loc,
		st,
		eng.ctl.Upcoming(showLimit),
		time.Now())

	return nil
} // func show(cmd *cobra.Command, args []string) error

// awaitSync waits until the controller has finished talking to the server
// or the timeout has passed, whichever comes first.
func awaitSync(ctl *controller.Controller, timeout time.Duration) state.State {
	var (
		updates, cancel = ctl.Subscribe()
		timer           = time.NewTimer(timeout)
	)

	defer cancel()
	defer timer.Stop()

	for {
		var st = ctl.State()

		if st == state.Synced || st == state.SyncFailed {
			return st
		}

		select {
		case _, open := <-updates:
			if !open {
				return ctl.State()
			}
		case <-timer.C:
			return ctl.State()
		}
	}
} // func awaitSync(ctl *controller.Controller, timeout time.Duration) state.State

func printSchedule(w io.Writer, loc string, st state.State, events []objects.CollectionEvent, now time.Time) {
	fmt.Fprintf(w, "Bin collections in %s\n", loc)

	switch st {
	case state.SyncFailed:
		fmt.Fprintln(w, "(Could not reach the server, showing the last known schedule)")
	case state.CacheLoaded, state.Syncing:
		fmt.Fprintln(w, "(The server did not answer in time, showing the last known schedule)")
	}

	if len(events) == 0 {
		fmt.Fprintln(w, "No upcoming collections are known.")
		return
	}

	for _, ev := range events {
		var day = ev.Date.In(common.ReferenceZone)

		fmt.Fprintf(w, "  %-9s %2d%s %-9s  %s\n",
			ev.DayLabel(now),
			day.Day(),
			objects.DaySuffix(day),
			day.Month(),
			ev.BinNames())
	}
} // func printSchedule(w io.Writer, loc string, st state.State, events []objects.CollectionEvent, now time.Time)
