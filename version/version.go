// /home/krylon/go/src/github.com/blicero/binsched/version/version.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 16:05:33 krylon>

// Package version asks the store whether a newer release of the
// application has been published.
package version

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/logdomain"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// ErrInvalidResponse is returned if the lookup document does not contain
// a version and a store URL.
var ErrInvalidResponse = errors.New("Lookup response contains no release information")

// Checker looks up the latest published release.
type Checker struct {
	log       *log.Logger
	lookupURL string
	http      *retryablehttp.Client
}

// New creates a Checker that queries the given URL.
func New(lookupURL string) (*Checker, error) {
	var (
		err error
		c   = &Checker{
			lookupURL: lookupURL,
			http:      retryablehttp.NewClient(),
		}
	)

	if c.log, err = common.GetLogger(logdomain.Version); err != nil {
		return nil, err
	}

	c.http.RetryMax = 2
	c.http.RetryWaitMin = time.Millisecond * 250
	c.http.RetryWaitMax = time.Second * 2
	c.http.Logger = nil
	c.http.HTTPClient.Timeout = time.Second * 15

	return c, nil
} // func New(lookupURL string) (*Checker, error)

// Check asks whether a release newer than current is available. If so,
// it returns true and the address of the release in the store.
func (c *Checker) Check(ctx context.Context, current string) (bool, string, error) {
	var (
		err  error
		req  *retryablehttp.Request
		res  *http.Response
		body []byte
	)

	if req, err = retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.lookupURL, nil); err != nil {
		c.log.Printf("[ERROR] Cannot create request for %s: %s\n",
			c.lookupURL,
			err.Error())
		return false, "", err
	} else if res, err = c.http.Do(req); err != nil {
		c.log.Printf("[ERROR] Cannot look up latest version: %s\n",
			err.Error())
		return false, "", err
	}

	defer res.Body.Close() // nolint: errcheck

	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("Version lookup at %s returned %s",
			c.lookupURL,
			res.Status)
		c.log.Printf("[ERROR] %s\n", err.Error())
		return false, "", err
	} else if body, err = io.ReadAll(res.Body); err != nil {
		c.log.Printf("[ERROR] Cannot read lookup response: %s\n",
			err.Error())
		return false, "", err
	}

	var (
		remote   = gjson.GetBytes(body, "results.0.version")
		storeURL = gjson.GetBytes(body, "results.0.trackViewUrl")
	)

	if remote.Type != gjson.String || storeURL.Type != gjson.String {
		c.log.Printf("[ERROR] %s: %s\n",
			ErrInvalidResponse.Error(),
			body)
		return false, "", ErrInvalidResponse
	}

	c.log.Printf("[DEBUG] Latest release is %s, we are %s\n",
		remote.String(),
		current)

	if IsNewer(current, remote.String()) {
		return true, storeURL.String(), nil
	}

	return false, "", nil
} // func (c *Checker) Check(ctx context.Context, current string) (bool, string, error)

// IsNewer returns true if remote denotes a later release than current.
// Versions are compared numerically, component by component. Components
// that are not numbers are ignored. If all shared components are equal,
// the version with more components is the newer one.
func IsNewer(current, remote string) bool {
	var (
		cur = components(current)
		rem = components(remote)
	)

	for i := 0; i < len(cur) && i < len(rem); i++ {
		if rem[i] > cur[i] {
			return true
		} else if rem[i] < cur[i] {
			return false
		}
	}

	return len(rem) > len(cur)
} // func IsNewer(current, remote string) bool

func components(v string) []int {
	var (
		parts = strings.Split(strings.TrimSpace(v), ".")
		nums  = make([]int, 0, len(parts))
	)

	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			nums = append(nums, n)
		}
	}

	return nums
} // func components(v string) []int
