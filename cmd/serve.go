// /home/krylon/go/src/github.com/blicero/binsched/cmd/serve.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 12:44:12 krylon>

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blicero/binsched/backend"
	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/objects"
	"github.com/blicero/binsched/settings"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	noDBus     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon that keeps the schedule in sync and posts reminders",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	serveCmd.Flags().StringVarP(
		&listenAddr,
		"address",
		"a",
		fmt.Sprintf("localhost:%d", common.DefaultPort),
		"Address for the local API to listen on")
	serveCmd.Flags().BoolVar(
		&noDBus,
		"no-dbus",
		false,
		"Write reminders to the log instead of the desktop's notification service")

	rootCmd.AddCommand(serveCmd)
} // func init()

// logPoster writes Notifications to the log. It is used where no
// notification service is available.
type logPoster struct {
	log *log.Logger
}

func (p logPoster) Post(n objects.Notification) error {
	var head, body = n.Payload()

	p.log.Printf("[INFO] REMINDER %s: %s\n", head, body)
	return nil
} // func (p logPoster) Post(n objects.Notification) error

func serve(cmd *cobra.Command, args []string) error {
	fmt.Printf("%s %s (built %s)\n",
		common.AppName,
		common.Version,
		common.BuildStamp.Format(common.TimestampFormat))

	var (
		err    error
		lg     = getLogger()
		daemon *backend.Daemon
		prefs  *settings.Store
		eng    *engine
		poster backend.Poster
	)

	if prefs, err = openSettings(); err != nil {
		return err
	}

	if err = prefs.Watch(); err != nil {
		lg.Printf("[WARN] Changes to %s made while the daemon runs will not be noticed: %s\n",
			prefs.Path(),
			err.Error())
	}
	defer prefs.Close() // nolint: errcheck

	if eng, err = assemble(prefs, true); err != nil {
		return err
	}
	defer eng.Close()

	if noDBus {
		poster = logPoster{log: lg}
	} else if poster, err = backend.NewDBusPoster(); err != nil {
		lg.Printf("[WARN] Desktop notifications are unavailable, reminders go to the log: %s\n",
			err.Error())
		poster = logPoster{log: lg}
	}

	if daemon, err = backend.Summon(listenAddr, eng.ctl, prefs, eng.pool, poster); err != nil {
		return fmt.Errorf("Failed to initialize backend: %w", err)
	}

	var (
		sigQ   = make(chan os.Signal, 1)
		ticker = time.NewTicker(time.Second * 2)
	)

	defer ticker.Stop()
	signal.Notify(sigQ, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	for daemon.IsAlive() {
		select {
		case sig := <-sigQ:
			lg.Printf("[INFO] Quitting on signal %s\n", sig)
			return daemon.Banish()
		case <-ticker.C:
			continue
		}
	}

	return nil
} // func serve(cmd *cobra.Command, args []string) error
