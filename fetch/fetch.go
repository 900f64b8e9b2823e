// /home/krylon/go/src/github.com/blicero/binsched/fetch/fetch.go
// -*- mode: go; coding: utf-8; -*-
// Created on 04. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-14 21:14:09 krylon>

// Package fetch retrieves schedule documents from the server.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/objects"
	"github.com/blicero/binsched/parser"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultBaseURL is where the schedule documents are published.
const DefaultBaseURL = "https://bins.ren"

const (
	defaultTimeout = time.Second * 30
	maxBodySize    = 1 << 20 // 1 MiB
)

// Error is returned when a schedule document could not be retrieved.
// It never carries partial data.
type Error struct {
	Location string
	URL      string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Cannot fetch schedule for %s from %s (status %d): %s",
			e.Location,
			e.URL,
			e.Status,
			e.Err)
	}

	return fmt.Sprintf("Cannot fetch schedule for %s from %s: %s",
		e.Location,
		e.URL,
		e.Err)
} // func (e *Error) Error() string

func (e *Error) Unwrap() error {
	return e.Err
} // func (e *Error) Unwrap() error

// Client fetches schedule documents. Each call to Fetch makes a single
// request, retrying is left to the caller.
type Client struct {
	Base *url.URL
	http *retryablehttp.Client
	log  *log.Logger
}

// New creates a Client fetching documents from below the given base URL.
// If base is empty, DefaultBaseURL is used.
func New(base string) (*Client, error) {
	var (
		err error
		c   = &Client{http: retryablehttp.NewClient()}
	)

	if base == "" {
		base = DefaultBaseURL
	}

	if c.log, err = common.GetLogger(logdomain.Fetch); err != nil {
		return nil, err
	} else if c.Base, err = url.Parse(strings.TrimSuffix(base, "/")); err != nil {
		c.log.Printf("[ERROR] Cannot parse base URL %q: %s\n",
			base,
			err.Error())
		return nil, err
	} else if c.Base.Scheme != "http" && c.Base.Scheme != "https" {
		err = fmt.Errorf("Unsupported URL scheme %q in %s", c.Base.Scheme, base)
		c.log.Printf("[ERROR] %s\n", err.Error())
		return nil, err
	}

	c.http.RetryMax = 0
	c.http.Logger = nil
	c.http.HTTPClient.Timeout = defaultTimeout
	c.http.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return c, nil
} // func New(base string) (*Client, error)

// SetRetries sets the number of times a failed request is repeated before
// Fetch gives up. The default is zero.
func (c *Client) SetRetries(n int) {
	c.http.RetryMax = n
} // func (c *Client) SetRetries(n int)

// SetTimeout sets the timeout of the underlying HTTP client.
func (c *Client) SetTimeout(d time.Duration) {
	c.http.HTTPClient.Timeout = d
} // func (c *Client) SetTimeout(d time.Duration)

// URL returns the URL of the schedule document for the given location.
// The normalized location always ends up in a single path segment.
func (c *Client) URL(location string) string {
	var (
		u   = *c.Base
		key = objects.NormalizeLocation(location) + ".json"
	)

	u.Path = c.Base.Path + "/" + key
	u.RawPath = c.Base.EscapedPath() + "/" + url.PathEscape(key)

	return u.String()
} // func (c *Client) URL(location string) string

// Fetch retrieves the raw schedule document for the given location.
// The document is checked to be a JSON array, but not parsed any further.
func (c *Client) Fetch(ctx context.Context, location string) ([]byte, error) {
	var (
		err  error
		req  *retryablehttp.Request
		res  *http.Response
		body []byte
		addr = c.URL(location)
	)

	if req, err = retryablehttp.NewRequestWithContext(ctx, http.MethodGet, addr, nil); err != nil {
		c.log.Printf("[ERROR] Cannot create request for %s: %s\n",
			addr,
			err.Error())
		return nil, &Error{Location: location, URL: addr, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("%s/%s", common.AppName, common.Version))

	if res, err = c.http.Do(req); err != nil {
		c.log.Printf("[ERROR] Request to %s failed: %s\n",
			addr,
			err.Error())
		if res != nil {
			res.Body.Close() // nolint: errcheck
		}
		return nil, &Error{Location: location, URL: addr, Err: err}
	}

	defer res.Body.Close() // nolint: errcheck

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err = fmt.Errorf("unexpected status %s", res.Status)
		c.log.Printf("[ERROR] Request to %s failed: %s\n",
			addr,
			err.Error())
		return nil, &Error{Location: location, URL: addr, Status: res.StatusCode, Err: err}
	} else if body, err = io.ReadAll(io.LimitReader(res.Body, maxBodySize+1)); err != nil {
		c.log.Printf("[ERROR] Cannot read response body from %s: %s\n",
			addr,
			err.Error())
		return nil, &Error{Location: location, URL: addr, Status: res.StatusCode, Err: err}
	} else if len(body) > maxBodySize {
		err = fmt.Errorf("response body exceeds %d bytes", maxBodySize)
		c.log.Printf("[ERROR] %s: %s\n", addr, err.Error())
		return nil, &Error{Location: location, URL: addr, Status: res.StatusCode, Err: err}
	} else if !parser.Valid(body) {
		err = errors.New("response body is not a JSON array")
		c.log.Printf("[ERROR] %s: %s\n", addr, err.Error())
		return nil, &Error{Location: location, URL: addr, Status: res.StatusCode, Err: err}
	}

	c.log.Printf("[DEBUG] Fetched %d bytes from %s\n",
		len(body),
		addr)

	return body, nil
} // func (c *Client) Fetch(ctx context.Context, location string) ([]byte, error)
