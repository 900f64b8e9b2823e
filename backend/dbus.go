// /home/krylon/go/src/github.com/blicero/binsched/backend/dbus.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-13 22:16:05 krylon>

package backend

import (
	"fmt"
	"log"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/objects"
	"github.com/godbus/dbus/v5"
)

const (
	notifyObj    = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"
)

// DBusPoster displays Notifications via the desktop's notification
// service on the session bus.
type DBusPoster struct {
	log *log.Logger
	bus *dbus.Conn
}

// NewDBusPoster connects to the session bus.
func NewDBusPoster() (*DBusPoster, error) {
	var (
		err error
		p   = new(DBusPoster)
	)

	if p.log, err = common.GetLogger(logdomain.Backend); err != nil {
		return nil, err
	} else if p.bus, err = dbus.SessionBus(); err != nil {
		p.log.Printf("[ERROR] Failed to connect to DBus Session bus: %s\n",
			err.Error())
		return nil, err
	}

	return p, nil
} // func NewDBusPoster() (*DBusPoster, error)

// Post sends a Notification to the notification service.
func (p *DBusPoster) Post(n objects.Notification) error {
	var (
		err        error
		obj        = p.bus.Object(notifyObj, notifyPath)
		head, body string
	)

	if obj == nil {
		err = fmt.Errorf("Did not find object %s (%s) on session bus",
			notifyObj,
			notifyPath)
		p.log.Printf("[ERROR] %s\n", err.Error())
		return err
	}

	head, body = n.Payload()

	var res = obj.Call(
		notifyMethod,
		0,
		common.AppName,
		uint32(0),
		"",
		head,
		body,
		[]string{},
		map[string]dbus.Variant{},
		int32(-1),
	)

	if res.Err != nil {
		p.log.Printf("[ERROR] Cannot send Notification %q: %s\n",
			head,
			res.Err.Error())
		return res.Err
	}

	return nil
} // func (p *DBusPoster) Post(n objects.Notification) error
