// /home/krylon/go/src/github.com/blicero/binsched/client/client.go
// -*- mode: go; coding: utf-8; -*-
// Created on 15. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 15:22:09 krylon>

// Package client talks to the local API of a running daemon.
package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/blicero/binsched/backend"
	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/objects"
	"github.com/pquerna/ffjson/ffjson"
)

const (
	pathSchedule     = "/schedule"
	pathUpcoming     = "/schedule/upcoming"
	pathRefresh      = "/schedule/refresh"
	pathLocation     = "/location"
	pathReminderTime = "/reminder/time"
	pathPending      = "/reminder/pending"
)

// Client wraps the communication with the daemon.
type Client struct {
	Server *url.URL
	Client http.Client
	log    *log.Logger
}

// NewClient creates a new Client for the daemon listening on srv, which
// may be given as host:port or as a URL.
func NewClient(srv string) (*Client, error) {
	var (
		err error
		c   = &Client{
			Client: http.Client{
				Timeout: time.Second * 10,
			},
		}
	)

	if c.log, err = common.GetLogger(logdomain.Client); err != nil {
		fmt.Fprintf(
			os.Stderr,
			"Cannot create Logger: %s\n",
			err.Error())
		return nil, err
	}

	if u, perr := url.Parse(srv); perr == nil && u.Scheme != "" && u.Host != "" {
		c.Server = u
	} else {
		c.Server = &url.URL{Scheme: "http", Host: srv}
	}

	if c.Server.Host == "" {
		err = fmt.Errorf("Invalid server address %q", srv)
		c.log.Printf("[ERROR] %s\n", err.Error())
		return nil, err
	}

	return c, nil
} // func NewClient(srv string) (*Client, error)

func (c *Client) endpoint(path string, query url.Values) string {
	var u = *c.Server

	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	return u.String()
} // func (c *Client) endpoint(path string, query url.Values) string

// read consumes the body of an HTTP response, insisting on a status of 200.
func (c *Client) read(addr string, hres *http.Response) ([]byte, error) {
	var (
		err    error
		rcvBuf bytes.Buffer
	)

	defer hres.Body.Close() // nolint: errcheck

	if hres.StatusCode != http.StatusOK {
		err = fmt.Errorf("Unexpected status from %s: %s",
			addr,
			hres.Status)
		c.log.Printf("[ERROR] %s\n", err.Error())
		return nil, err
	} else if _, err = io.Copy(&rcvBuf, hres.Body); err != nil {
		c.log.Printf("[ERROR] Failed to read Response body from %s: %s\n",
			addr,
			err.Error())
		return nil, err
	}

	return rcvBuf.Bytes(), nil
} // func (c *Client) read(addr string, hres *http.Response) ([]byte, error)

func (c *Client) getJSON(path string, query url.Values, data any) error {
	var (
		err  error
		buf  []byte
		hres *http.Response
		addr = c.endpoint(path, query)
	)

	if hres, err = c.Client.Get(addr); err != nil {
		c.log.Printf("[ERROR] Failed to GET %s: %s\n",
			addr,
			err.Error())
		return err
	} else if buf, err = c.read(addr, hres); err != nil {
		return err
	} else if err = ffjson.Unmarshal(buf, data); err != nil {
		c.log.Printf("[ERROR] Cannot de-serialize reply from %s: %s\n",
			addr,
			err.Error())
		return err
	}

	return nil
} // func (c *Client) getJSON(path string, query url.Values, data any) error

// call sends a request that changes something and returns the Message of
// the daemon's Response.
func (c *Client) call(method, path string, values url.Values) (string, error) {
	var (
		err  error
		buf  []byte
		req  *http.Request
		hres *http.Response
		ores objects.Response
		addr = c.endpoint(path, nil)
		body io.Reader
	)

	if values != nil {
		body = bytes.NewBufferString(values.Encode())
	}

	if req, err = http.NewRequest(method, addr, body); err != nil {
		c.log.Printf("[ERROR] Cannot create request for %s: %s\n",
			addr,
			err.Error())
		return "", err
	} else if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if hres, err = c.Client.Do(req); err != nil {
		c.log.Printf("[ERROR] Failed to %s %s: %s\n",
			method,
			addr,
			err.Error())
		return "", err
	} else if buf, err = c.read(addr, hres); err != nil {
		return "", err
	} else if err = ffjson.Unmarshal(buf, &ores); err != nil {
		c.log.Printf("[ERROR] Cannot de-serialize Response from %s: %s\n",
			addr,
			err.Error())
		return "", err
	} else if !ores.Status {
		err = errors.New(ores.Message)
		c.log.Printf("[ERROR] Request to %s failed: %s\n",
			addr,
			ores.Message)
		return "", err
	}

	c.log.Printf("[DEBUG] Request to %s was successful: %s\n",
		addr,
		ores.Message)

	return ores.Message, nil
} // func (c *Client) call(method, path string, values url.Values) (string, error)

// Schedule fetches the full schedule the daemon currently holds.
func (c *Client) Schedule() (*backend.ScheduleView, error) {
	var view = new(backend.ScheduleView)

	if err := c.getJSON(pathSchedule, nil, view); err != nil {
		return nil, err
	}

	return view, nil
} // func (c *Client) Schedule() (*backend.ScheduleView, error)

// Upcoming fetches up to limit upcoming collections. A limit of 0 or less
// lets the daemon pick.
func (c *Client) Upcoming(limit int) ([]backend.EventView, error) {
	var (
		events []backend.EventView
		query  url.Values
	)

	if limit > 0 {
		query = url.Values{"limit": []string{strconv.Itoa(limit)}}
	}

	if err := c.getJSON(pathUpcoming, query, &events); err != nil {
		return nil, err
	}

	return events, nil
} // func (c *Client) Upcoming(limit int) ([]backend.EventView, error)

// Pending fetches the reminders that have not gone off yet.
func (c *Client) Pending() ([]backend.ReminderView, error) {
	var reminders []backend.ReminderView

	if err := c.getJSON(pathPending, nil, &reminders); err != nil {
		return nil, err
	}

	return reminders, nil
} // func (c *Client) Pending() ([]backend.ReminderView, error)

// Refresh asks the daemon to sync the schedule with the server.
func (c *Client) Refresh() (string, error) {
	return c.call(http.MethodPost, pathRefresh, nil)
} // func (c *Client) Refresh() (string, error)

// SetLocation asks the daemon to follow the given location. It returns the
// canonical name of the location.
func (c *Client) SetLocation(loc string) (string, error) {
	return c.call(http.MethodPost, pathLocation, url.Values{"location": []string{loc}})
} // func (c *Client) SetLocation(loc string) (string, error)

// ClearLocation asks the daemon to stop following any location.
func (c *Client) ClearLocation() error {
	_, err := c.call(http.MethodDelete, pathLocation, nil)
	return err
} // func (c *Client) ClearLocation() error

// SetReminderTime changes the time of day reminders go off.
func (c *Client) SetReminderTime(tod objects.TimeOfDay) error {
	_, err := c.call(http.MethodPost, pathReminderTime, url.Values{"time": []string{tod.String()}})
	return err
} // func (c *Client) SetReminderTime(tod objects.TimeOfDay) error
