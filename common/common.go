// /home/krylon/go/src/github.com/blicero/binsched/common/common.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-14 19:02:11 krylon>

// Package common contains constants, variables and helper functions
// used throughout the application.
package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	// The reference zone must be available on systems without a zoneinfo
	// database.
	_ "time/tzdata"

	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/krylib"
	"github.com/hashicorp/logutils"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/odeke-em/go-uuid"
)

// Debug indicates whether to emit additional log messages and perform
// additional sanity checks.
const Debug = true

// AppName is the name of the application.
const AppName = "BinSched"

// Version is the version number to display.
const Version = "0.4.1"

// BuildStamp is the time the binary was built.
var BuildStamp time.Time

// DefaultPort is the TCP port the local API listens on.
const DefaultPort = 7210

// ReferenceZoneName names the civil time zone all dates and reminder
// times are computed in.
const ReferenceZoneName = "Europe/London"

// ReferenceZone is the loaded form of ReferenceZoneName.
var ReferenceZone = mustLoadZone(ReferenceZoneName)

// TimestampFormat is the format string used to render time stamps.
const (
	TimestampFormat          = "2006-01-02 15:04:05"
	TimestampFormatSubSecond = "2006-01-02 15:04:05.0000 MST"
	TimestampFormatMinute    = "2006-01-02 15:04 MST"
	TimestampFormatDate      = "2006-01-02"
	TimestampFormatTime      = "15:04"
)

// LogLevels are the names of the log levels supported by the logger.
var LogLevels = []logutils.LogLevel{
	"TRACE",
	"DEBUG",
	"INFO",
	"WARN",
	"ERROR",
	"CRITICAL",
	"CANTHAPPEN",
	"SILENT",
}

// MinLogLevel is the minimum level a log message must have to be written
// out to the log.
var MinLogLevel logutils.LogLevel = "TRACE"

var (
	lvlLock sync.Mutex
	filters []*logutils.LevelFilter
	logFile io.Writer
)

// BaseDir is the folder where all application-specific files are stored.
var BaseDir = defaultBaseDir()

// These are the paths of the files the application keeps in BaseDir.
var (
	LogPath      = filepath.Join(BaseDir, "binsched.log")
	DbPath       = filepath.Join(BaseDir, "reminders.db")
	SettingsPath = filepath.Join(BaseDir, "settings.yaml")
	CacheDir     = filepath.Join(BaseDir, "cache")
)

func defaultBaseDir() string {
	var (
		err  error
		home string
	)

	if home, err = homedir.Dir(); err != nil {
		home = os.TempDir()
	}

	return filepath.Join(home, ".binsched.d")
} // func defaultBaseDir() string

func mustLoadZone(name string) *time.Location {
	var (
		err error
		loc *time.Location
	)

	if loc, err = time.LoadLocation(name); err != nil {
		panic(fmt.Errorf("Cannot load time zone %s: %w", name, err))
	}

	return loc
} // func mustLoadZone(name string) *time.Location

// SetBaseDir sets the BaseDir and the paths of all files derived from it.
func SetBaseDir(path string) error {
	fmt.Printf("Setting BASE_DIR to %s\n", path)

	lvlLock.Lock()
	BaseDir = path
	LogPath = filepath.Join(BaseDir, "binsched.log")
	DbPath = filepath.Join(BaseDir, "reminders.db")
	SettingsPath = filepath.Join(BaseDir, "settings.yaml")
	CacheDir = filepath.Join(BaseDir, "cache")
	logFile = nil
	lvlLock.Unlock()

	if err := InitApp(); err != nil {
		fmt.Printf("Error initializing application environment: %s\n", err.Error())
		return err
	}

	return nil
} // func SetBaseDir(path string) error

// InitApp performs some basic preparations for the application to run.
// Currently, this means creating the BaseDir and the cache folder.
func InitApp() error {
	for _, dir := range []string{BaseDir, CacheDir} {
		var (
			err    error
			exists bool
		)

		if exists, err = krylib.Fexists(dir); err != nil {
			return fmt.Errorf("Cannot check if %s exists: %w", dir, err)
		} else if exists {
			continue
		} else if err = os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("Cannot create directory %s: %w", dir, err)
		}
	}

	return nil
} // func InitApp() error

// SetLogLevel sets the minimum level for all loggers created so far and
// all loggers created in the future.
func SetLogLevel(lvl string) error {
	var level = logutils.LogLevel(lvl)
	var valid bool

	for _, l := range LogLevels {
		if l == level {
			valid = true
			break
		}
	}

	if !valid {
		return fmt.Errorf("Invalid log level %q", lvl)
	}

	lvlLock.Lock()
	defer lvlLock.Unlock()

	MinLogLevel = level
	for _, f := range filters {
		f.SetMinLevel(level)
	}

	return nil
} // func SetLogLevel(lvl string) error

// GetLogger tries to create a named logger instance and return it.
// If the directory to hold the log file does not exist, try to create it.
func GetLogger(dom logdomain.ID) (*log.Logger, error) {
	var err error

	if err = InitApp(); err != nil {
		return nil, fmt.Errorf("Error initializing application environment: %w", err)
	}

	lvlLock.Lock()
	defer lvlLock.Unlock()

	if logFile == nil {
		var fh *os.File
		if fh, err = os.OpenFile(LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600); err != nil {
			return nil, fmt.Errorf("Error opening log file %s: %w", LogPath, err)
		}
		logFile = fh
	}

	var (
		logName = fmt.Sprintf("%s.%s ", AppName, dom)
		writer  = io.MultiWriter(os.Stdout, logFile)
		filter  = &logutils.LevelFilter{
			Levels:   LogLevels,
			MinLevel: MinLogLevel,
			Writer:   writer,
		}
	)

	filters = append(filters, filter)

	return log.New(filter, logName, log.Ldate|log.Ltime|log.Lshortfile), nil
} // func GetLogger(dom logdomain.ID) (*log.Logger, error)

// GetUUID returns a randomized UUID
func GetUUID() string {
	return uuid.NewRandom().String()
} // func GetUUID() string
