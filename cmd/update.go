// /home/krylon/go/src/github.com/blicero/binsched/cmd/update.go
// -*- mode: go; coding: utf-8; -*-
// Created on 15. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 12:05:51 krylon>

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/settings"
	"github.com/blicero/binsched/version"
	"github.com/spf13/cobra"
)

var checkUpdateCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Check if a newer release has been published",
	Args:  cobra.NoArgs,
	RunE:  checkUpdate,
}

func init() {
	rootCmd.AddCommand(checkUpdateCmd)
} // func init()

func checkUpdate(cmd *cobra.Command, args []string) error {
	var (
		err         error
		prefs       *settings.Store
		chk         *version.Checker
		newer       bool
		link        string
		ctx, cancel = context.WithTimeout(context.Background(), time.Second*30)
	)

	defer cancel()

	if prefs, err = openSettings(); err != nil {
		return err
	} else if chk, err = version.New(prefs.VersionLookupURL()); err != nil {
		return err
	} else if newer, link, err = chk.Check(ctx, common.Version); err != nil {
		return fmt.Errorf("Cannot check for updates: %w", err)
	} else if !newer {
		fmt.Printf("%s %s is up to date.\n", common.AppName, common.Version)
		return nil
	}

	fmt.Printf("A newer version of %s is available: %s\n", common.AppName, link)
	return nil
} // func checkUpdate(cmd *cobra.Command, args []string) error
