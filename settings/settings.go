// /home/krylon/go/src/github.com/blicero/binsched/settings/settings.go
// -*- mode: go; coding: utf-8; -*-
// Created on 08. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-15 17:02:14 krylon>

// Package settings stores the user's preferences and tells interested
// parties when they change.
package settings

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blicero/binsched/common"
	"github.com/blicero/binsched/fetch"
	"github.com/blicero/binsched/logdomain"
	"github.com/blicero/binsched/objects"
	"github.com/blicero/krylib"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Names of the keys in the settings file.
const (
	KeyLocation         = "location"
	KeyReminderTime     = "reminder_time"
	KeyWeatherEnabled   = "weather_enabled"
	KeyScheduleURL      = "schedule_url"
	KeyVersionLookupURL = "version_lookup_url"
)

// DefaultVersionLookupURL is where we ask for the latest published release.
const DefaultVersionLookupURL = "https://itunes.apple.com/lookup?bundleId=ren.bins.schedule&country=gb"

const subscriberQueue = 16

// Kind identifies what kind of setting has changed.
type Kind uint8

// These are the settings changes subscribers are told about.
const (
	LocationChanged Kind = iota
	LocationCleared
	ReminderTimeChanged
	WeatherToggled
)

var kindNames = [...]string{
	"LocationChanged",
	"LocationCleared",
	"ReminderTimeChanged",
	"WeatherToggled",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
} // func (k Kind) String() string

// Change describes a modification of the settings. Only the fields
// relevant for Kind are set.
type Change struct {
	Kind         Kind
	Location     string
	ReminderTime objects.TimeOfDay
	Weather      bool
}

type snapshot struct {
	location string
	tod      objects.TimeOfDay
	weather  bool
}

// Store wraps the settings file.
type Store struct {
	path string
	log  *log.Logger
	lock sync.RWMutex
	v    *viper.Viper
	subs []chan Change
	last snapshot

	watcher *fsnotify.Watcher
}

// Open loads the settings from the given file. If the file does not exist
// yet, it is created with the default values. An empty path means
// common.SettingsPath.
func Open(path string) (*Store, error) {
	var (
		err    error
		exists bool
		s      = &Store{path: path}
	)

	if s.path == "" {
		s.path = common.SettingsPath
	}

	s.path = filepath.Clean(s.path)
	s.v = s.newViper()

	if s.log, err = common.GetLogger(logdomain.Settings); err != nil {
		return nil, err
	}

	if exists, err = krylib.Fexists(s.path); err != nil {
		s.log.Printf("[ERROR] Cannot check if %s exists: %s\n",
			s.path,
			err.Error())
		return nil, err
	} else if !exists {
		s.log.Printf("[INFO] Settings file %s does not exist, creating it\n",
			s.path)
		if err = s.v.WriteConfigAs(s.path); err != nil {
			s.log.Printf("[ERROR] Cannot create settings file %s: %s\n",
				s.path,
				err.Error())
			return nil, err
		}
	} else if err = s.v.ReadInConfig(); err != nil {
		s.log.Printf("[ERROR] Cannot read settings from %s: %s\n",
			s.path,
			err.Error())
		return nil, err
	}

	s.last = s.snapshot()

	return s, nil
} // func Open(path string) (*Store, error)

func (s *Store) newViper() *viper.Viper {
	var v = viper.New()

	v.SetConfigFile(s.path)
	if ext := strings.TrimPrefix(filepath.Ext(s.path), "."); ext != "" {
		v.SetConfigType(ext)
	} else {
		v.SetConfigType("yaml")
	}

	v.SetDefault(KeyLocation, "")
	v.SetDefault(KeyReminderTime, objects.DefaultReminderTime.String())
	v.SetDefault(KeyWeatherEnabled, true)
	v.SetDefault(KeyScheduleURL, fetch.DefaultBaseURL)
	v.SetDefault(KeyVersionLookupURL, DefaultVersionLookupURL)

	return v
} // func (s *Store) newViper() *viper.Viper

// Watch makes the Store pick up modifications of the settings file made
// by other processes. Subscribers are told about every setting that
// differs from what the Store knew before. Close stops watching.
func (s *Store) Watch() error {
	var (
		err error
		w   *fsnotify.Watcher
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.watcher != nil {
		return nil
	} else if w, err = fsnotify.NewWatcher(); err != nil {
		s.log.Printf("[ERROR] Cannot create file watcher: %s\n",
			err.Error())
		return err
	} else if err = w.Add(filepath.Dir(s.path)); err != nil {
		s.log.Printf("[ERROR] Cannot watch directory of %s: %s\n",
			s.path,
			err.Error())
		w.Close() // nolint: errcheck
		return err
	}

	s.watcher = w
	go s.watch(w)

	return nil
} // func (s *Store) Watch() error

// Close stops watching the settings file.
func (s *Store) Close() error {
	s.lock.Lock()
	var w = s.watcher
	s.watcher = nil
	s.lock.Unlock()

	if w == nil {
		return nil
	}

	return w.Close()
} // func (s *Store) Close() error

func (s *Store) watch(w *fsnotify.Watcher) {
	defer s.log.Printf("[TRACE] Stop watching %s\n", s.path)

	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return
			} else if filepath.Clean(e.Name) != s.path {
				continue
			} else if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			s.reload(e)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Printf("[ERROR] Error watching %s: %s\n",
				s.path,
				err.Error())
		}
	}
} // func (s *Store) watch(w *fsnotify.Watcher)

// reload reads the settings file into a fresh viper instance and swaps it
// in. A file that is empty or cannot be parsed, e.g. because it is being
// written right now, is ignored; the next event picks up the result.
func (s *Store) reload(e fsnotify.Event) {
	var (
		err   error
		raw   []byte
		fresh = s.newViper()
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	if raw, err = os.ReadFile(s.path); err != nil {
		s.log.Printf("[ERROR] Cannot read settings file %s: %s\n",
			s.path,
			err.Error())
		return
	} else if len(bytes.TrimSpace(raw)) == 0 {
		return
	} else if err = fresh.ReadConfig(bytes.NewReader(raw)); err != nil {
		s.log.Printf("[WARN] Cannot parse settings file %s: %s\n",
			s.path,
			err.Error())
		return
	}

	s.log.Printf("[DEBUG] Settings file %s changed (%s)\n",
		e.Name,
		e.Op)

	s.v = fresh

	var now = s.snapshot()

	if now.location != s.last.location {
		if now.location == "" {
			s.publish(Change{Kind: LocationCleared})
		} else {
			s.publish(Change{Kind: LocationChanged, Location: now.location})
		}
	}

	if now.tod != s.last.tod {
		s.publish(Change{Kind: ReminderTimeChanged, ReminderTime: now.tod})
	}

	if now.weather != s.last.weather {
		s.publish(Change{Kind: WeatherToggled, Weather: now.weather})
	}

	s.last = now
} // func (s *Store) reload(e fsnotify.Event)

// snapshot must be called with the lock held.
func (s *Store) snapshot() snapshot {
	return snapshot{
		location: strings.TrimSpace(s.v.GetString(KeyLocation)),
		tod:      s.reminderTime(),
		weather:  s.v.GetBool(KeyWeatherEnabled),
	}
} // func (s *Store) snapshot() snapshot

// Path returns the path of the settings file.
func (s *Store) Path() string {
	return s.path
} // func (s *Store) Path() string

// Subscribe returns a channel that receives every subsequent Change.
// The channel is buffered. If a subscriber falls behind, further changes
// are dropped for that subscriber and a warning is logged.
func (s *Store) Subscribe() <-chan Change {
	var ch = make(chan Change, subscriberQueue)

	s.lock.Lock()
	s.subs = append(s.subs, ch)
	s.lock.Unlock()

	return ch
} // func (s *Store) Subscribe() <-chan Change

// Unsubscribe stops delivery of changes to the given channel and closes it.
func (s *Store) Unsubscribe(ch <-chan Change) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i, c := range s.subs {
		if c == ch {
			close(c)
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
} // func (s *Store) Unsubscribe(ch <-chan Change)

// publish must be called with the lock held.
func (s *Store) publish(c Change) {
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
			s.log.Printf("[WARN] Subscriber is not keeping up, dropping %s\n",
				c.Kind)
		}
	}
} // func (s *Store) publish(c Change)

// set must be called with the lock held.
func (s *Store) set(key string, val any) error {
	var (
		err error
		old = s.v.Get(key)
	)

	s.v.Set(key, val)

	if err = s.v.WriteConfigAs(s.path); err != nil {
		s.log.Printf("[ERROR] Cannot save settings to %s: %s\n",
			s.path,
			err.Error())
		s.v.Set(key, old)
		return err
	}

	return nil
} // func (s *Store) set(key string, val any) error

// Location returns the selected location, and false if none has been
// picked yet.
func (s *Store) Location() (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var loc = s.v.GetString(KeyLocation)
	return loc, loc != ""
} // func (s *Store) Location() (string, bool)

// SetLocation stores the selected location.
func (s *Store) SetLocation(loc string) error {
	loc = strings.TrimSpace(loc)

	if loc == "" {
		return s.ClearLocation()
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.set(KeyLocation, loc); err != nil {
		return err
	}

	s.log.Printf("[INFO] Location is now %s\n", loc)
	s.last = s.snapshot()
	s.publish(Change{Kind: LocationChanged, Location: loc})
	return nil
} // func (s *Store) SetLocation(loc string) error

// ClearLocation resets the location to unset.
func (s *Store) ClearLocation() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.set(KeyLocation, ""); err != nil {
		return err
	}

	s.log.Println("[INFO] Location has been cleared")
	s.last = s.snapshot()
	s.publish(Change{Kind: LocationCleared})
	return nil
} // func (s *Store) ClearLocation() error

// ReminderTime returns the time of day reminders should go off on the day
// before a collection. An invalid value in the settings file yields the
// default.
func (s *Store) ReminderTime() objects.TimeOfDay {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.reminderTime()
} // func (s *Store) ReminderTime() objects.TimeOfDay

func (s *Store) reminderTime() objects.TimeOfDay {
	var (
		err error
		tod objects.TimeOfDay
		str = s.v.GetString(KeyReminderTime)
	)

	if tod, err = objects.ParseTimeOfDay(str); err != nil {
		s.log.Printf("[ERROR] Invalid reminder time in %s: %s\n",
			s.path,
			err.Error())
		return objects.DefaultReminderTime
	}

	return tod
} // func (s *Store) reminderTime() objects.TimeOfDay

// SetReminderTime stores the preferred reminder time.
func (s *Store) SetReminderTime(tod objects.TimeOfDay) error {
	if !tod.Valid() {
		return fmt.Errorf("Invalid time of day %02d:%02d", tod.Hour, tod.Minute)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.set(KeyReminderTime, tod.String()); err != nil {
		return err
	}

	s.log.Printf("[INFO] Reminders go off at %s now\n", tod)
	s.last = s.snapshot()
	s.publish(Change{Kind: ReminderTimeChanged, ReminderTime: tod})
	return nil
} // func (s *Store) SetReminderTime(tod objects.TimeOfDay) error

// WeatherEnabled returns the state of the weather toggle.
func (s *Store) WeatherEnabled() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.v.GetBool(KeyWeatherEnabled)
} // func (s *Store) WeatherEnabled() bool

// SetWeatherEnabled sets the weather toggle.
func (s *Store) SetWeatherEnabled(on bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.set(KeyWeatherEnabled, on); err != nil {
		return err
	}

	s.last = s.snapshot()
	s.publish(Change{Kind: WeatherToggled, Weather: on})
	return nil
} // func (s *Store) SetWeatherEnabled(on bool) error

// ScheduleURL returns the base URL schedule documents are fetched from.
func (s *Store) ScheduleURL() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.v.GetString(KeyScheduleURL)
} // func (s *Store) ScheduleURL() string

// VersionLookupURL returns the URL to ask for the latest release.
func (s *Store) VersionLookupURL() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.v.GetString(KeyVersionLookupURL)
} // func (s *Store) VersionLookupURL() string
