// /home/krylon/go/src/github.com/blicero/binsched/cmd/location.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 21:47:10 krylon>

package cmd

import (
	"fmt"
	"strings"

	"github.com/blicero/binsched/objects"
	"github.com/blicero/binsched/settings"
	"github.com/spf13/cobra"
)

var clearLocation bool

var locationCmd = &cobra.Command{
	Use:   "location [NAME]",
	Short: "Show or select the location to follow",
	Long: `Without arguments, location prints the selected location. Given a
name, it selects that location. A running daemon picks up the change.`,
	Args: cobra.ArbitraryArgs,
	RunE: location,
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List the locations a schedule is available for",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, loc := range objects.Locations {
			fmt.Println(loc)
		}
	},
}

func init() {
	locationCmd.Flags().BoolVar(
		&clearLocation,
		"clear",
		false,
		"Unselect the current location")

	rootCmd.AddCommand(locationCmd)
	rootCmd.AddCommand(locationsCmd)
} // func init()

func location(cmd *cobra.Command, args []string) error {
	var (
		err   error
		prefs *settings.Store
		name  = strings.TrimSpace(strings.Join(args, " "))
	)

	if prefs, err = openSettings(); err != nil {
		return err
	}

	if clearLocation {
		if name != "" {
			return fmt.Errorf("--clear does not take a location name")
		}
		return prefs.ClearLocation()
	} else if name == "" {
		if loc, ok := prefs.Location(); ok {
			fmt.Println(loc)
		} else {
			fmt.Println("No location has been selected.")
		}
		return nil
	}

	var canon, ok = objects.CanonicalLocation(name)

	if !ok {
		fmt.Printf("There is no schedule for %s, yet.\n", name)
		fmt.Printf("If you would like us to add it, please write to %s\n",
			objects.OtherLocationMailto(name))
		return fmt.Errorf("Unknown location %q", name)
	} else if err = prefs.SetLocation(canon); err != nil {
		return err
	}

	fmt.Printf("Following the schedule for %s now.\n", canon)
	return nil
} // func location(cmd *cobra.Command, args []string) error
