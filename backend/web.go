// /home/krylon/go/src/github.com/blicero/binsched/backend/web.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 03. 2025 by Benjamin Walkenhorst
// (c) 2025 Benjamin Walkenhorst
// Time-stamp: <2025-03-16 14:31:50 krylon>

package backend

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/blicero/binsched/database"
	"github.com/blicero/binsched/objects"
	"github.com/pquerna/ffjson/ffjson"
)

// EventView is how a CollectionEvent is presented to clients.
type EventView struct {
	ID    string                `json:"id"`
	Date  string                `json:"date"`
	Bins  []objects.BinCategory `json:"bins"`
	Names string                `json:"names"`
	Label string                `json:"label"`
}

// ScheduleView is the reply to a request for the schedule.
type ScheduleView struct {
	Location     string      `json:"location"`
	State        string      `json:"state"`
	LastSync     string      `json:"last_sync,omitempty"`
	ReminderTime string      `json:"reminder_time"`
	Events       []EventView `json:"events"`
}

// ReminderView is how a pending reminder is presented to clients.
type ReminderView struct {
	UUID     string `json:"uuid"`
	Due      string `json:"due"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Location string `json:"location"`
}

func (d *Daemon) initWebHandlers() error {
	d.router.HandleFunc("/schedule", d.handleScheduleGet).Methods("GET")
	d.router.HandleFunc("/schedule/upcoming", d.handleScheduleUpcoming).Methods("GET")
	d.router.HandleFunc("/schedule/refresh", d.handleScheduleRefresh).Methods("POST")
	d.router.HandleFunc("/locations", d.handleLocationList).Methods("GET")
	d.router.HandleFunc("/location", d.handleLocationGet).Methods("GET")
	d.router.HandleFunc("/location", d.handleLocationSet).Methods("POST")
	d.router.HandleFunc("/location", d.handleLocationClear).Methods("DELETE")
	d.router.HandleFunc("/reminder/time", d.handleReminderTimeGet).Methods("GET")
	d.router.HandleFunc("/reminder/time", d.handleReminderTimeSet).Methods("POST")
	d.router.HandleFunc("/reminder/pending", d.handleReminderGetPending).Methods("GET")

	return nil
} // func (d *Daemon) initWebHandlers() error

func (d *Daemon) serveHTTP() {
	var err error

	defer d.log.Println("[INFO] Web server is shutting down")

	d.log.Printf("[INFO] Web frontend is going online at %s\n", d.web.Addr)

	if err = d.web.ListenAndServe(); err != nil {
		if err != http.ErrServerClosed {
			d.log.Printf("[ERROR] ListenAndServe returned an error: %s\n",
				err.Error())
		} else {
			d.log.Println("[INFO] HTTP Server has shut down.")
		}
	}
} // func (d *Daemon) serveHTTP()

func (d *Daemon) eventViews(events []objects.CollectionEvent) []EventView {
	var (
		now   = d.clk.Now()
		views = make([]EventView, len(events))
	)

	for i := range events {
		var ev = &events[i]
		views[i] = EventView{
			ID:    ev.ID,
			Date:  objects.FormatDay(ev.Date),
			Bins:  ev.Bins,
			Names: ev.BinNames(),
			Label: ev.DayLabel(now),
		}
	}

	return views
} // func (d *Daemon) eventViews(events []objects.CollectionEvent) []EventView

func (d *Daemon) handleScheduleGet(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var view = ScheduleView{
		Location:     d.sched.Location(),
		State:        d.sched.State().String(),
		ReminderTime: d.sched.ReminderTime().String(),
		Events:       d.eventViews(d.sched.Events()),
	}

	if ts := d.sched.LastSync(); !ts.IsZero() {
		view.LastSync = ts.Format(time.RFC3339)
	}

	d.sendJSON(w, &view)
} // func (d *Daemon) handleScheduleGet(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleScheduleUpcoming(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err    error
		limit  int
		events []objects.CollectionEvent
		lstr   = r.URL.Query().Get("limit")
	)

	if lstr != "" {
		if limit, err = strconv.Atoi(lstr); err != nil {
			var msg = fmt.Sprintf("Cannot parse limit %q: %s",
				lstr,
				err.Error())
			d.log.Printf("[ERROR] %s\n", msg)
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
	}

	events = d.sched.UpcomingCollections(d.clk.Now(), limit)
	d.sendJSON(w, d.eventViews(events))
} // func (d *Daemon) handleScheduleUpcoming(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleScheduleRefresh(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var response = objects.Response{ID: d.getID()}

	if loc := d.sched.Location(); loc == "" {
		response.Message = "No location is selected"
	} else {
		d.sched.Refresh()
		response.Status = true
		response.Message = fmt.Sprintf("Refreshing schedule for %s", loc)
	}

	d.sendResponseJSON(w, &response)
} // func (d *Daemon) handleScheduleRefresh(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleLocationList(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	d.sendJSON(w, objects.Locations)
} // func (d *Daemon) handleLocationList(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleLocationGet(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		response = objects.Response{ID: d.getID()}
		loc, ok  = d.settings.Location()
	)

	response.Status = ok
	response.Message = loc

	d.sendResponseJSON(w, &response)
} // func (d *Daemon) handleLocationGet(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleLocationSet(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err        error
		ok         bool
		loc, input string
		response   = objects.Response{ID: d.getID()}
	)

	if err = r.ParseForm(); err != nil {
		d.log.Printf("[ERROR] Cannot parse form data: %s\n",
			err.Error())
		response.Message = err.Error()
		goto SEND_RESPONSE
	}

	input = r.PostFormValue("location")

	if loc, ok = objects.CanonicalLocation(input); !ok {
		d.log.Printf("[INFO] Client asked for unknown location %q\n", input)
		response.Message = fmt.Sprintf("We don't have a schedule for %q, yet. Ask for it at %s",
			input,
			objects.OtherLocationMailto(input))
		goto SEND_RESPONSE
	} else if err = d.settings.SetLocation(loc); err != nil {
		response.Message = fmt.Sprintf("Cannot set location to %q: %s",
			loc,
			err.Error())
		d.log.Printf("[ERROR] %s\n", response.Message)
		goto SEND_RESPONSE
	}

	response.Status = true
	response.Message = loc

SEND_RESPONSE:
	d.sendResponseJSON(w, &response)
} // func (d *Daemon) handleLocationSet(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleLocationClear(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err      error
		response = objects.Response{ID: d.getID()}
	)

	if err = d.settings.ClearLocation(); err != nil {
		response.Message = fmt.Sprintf("Cannot clear location: %s",
			err.Error())
		d.log.Printf("[ERROR] %s\n", response.Message)
	} else {
		response.Status = true
	}

	d.sendResponseJSON(w, &response)
} // func (d *Daemon) handleLocationClear(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderTimeGet(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var response = objects.Response{
		ID:      d.getID(),
		Status:  true,
		Message: d.settings.ReminderTime().String(),
	}

	d.sendResponseJSON(w, &response)
} // func (d *Daemon) handleReminderTimeGet(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderTimeSet(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err      error
		tod      objects.TimeOfDay
		tstr     string
		response = objects.Response{ID: d.getID()}
	)

	if err = r.ParseForm(); err != nil {
		d.log.Printf("[ERROR] Cannot parse form data: %s\n",
			err.Error())
		response.Message = err.Error()
		goto SEND_RESPONSE
	}

	tstr = r.PostFormValue("time")

	if tod, err = objects.ParseTimeOfDay(tstr); err != nil {
		response.Message = err.Error()
		d.log.Printf("[ERROR] %s\n", response.Message)
		goto SEND_RESPONSE
	} else if err = d.settings.SetReminderTime(tod); err != nil {
		response.Message = fmt.Sprintf("Cannot set reminder time to %s: %s",
			tod,
			err.Error())
		d.log.Printf("[ERROR] %s\n", response.Message)
		goto SEND_RESPONSE
	}

	response.Status = true
	response.Message = tod.String()

SEND_RESPONSE:
	d.sendResponseJSON(w, &response)
} // func (d *Daemon) handleReminderTimeSet(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderGetPending(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err       error
		db        *database.Database
		reminders []objects.ReminderRequest
		views     []ReminderView
	)

	db = d.pool.Get()
	defer d.pool.Put(db)

	if reminders, err = db.ReminderGetPending(); err != nil {
		d.log.Printf("[ERROR] Cannot load Reminders: %s\n",
			err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views = make([]ReminderView, len(reminders))

	for i, rem := range reminders {
		views[i] = ReminderView{
			UUID:     rem.UUID,
			Due:      rem.FireAt.Format(time.RFC3339),
			Title:    rem.Title,
			Body:     rem.Body,
			Location: rem.Location,
		}
	}

	d.sendJSON(w, views)
} // func (d *Daemon) handleReminderGetPending(w http.ResponseWriter, r *http.Request)

func (d *Daemon) sendJSON(w http.ResponseWriter, data any) {
	var (
		err error
		buf []byte
	)

	if buf, err = ffjson.Marshal(data); err != nil {
		d.log.Printf("[ERROR] Cannot serialize %T: %s\n",
			data,
			err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) sendJSON(w http.ResponseWriter, data any)

func (d *Daemon) sendResponseJSON(w http.ResponseWriter, res *objects.Response) {
	var (
		err error
		buf []byte
	)

	if buf, err = ffjson.Marshal(res); err != nil {
		d.log.Printf("[ERROR] Cannot serialize Response object %#v: %s\n",
			res,
			err.Error())
		return
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) sendResponseJSON(w http.ResponseWriter, res *objects.Response)

func (d *Daemon) getID() int64 {
	d.idLock.Lock()
	d.idCnt++
	var id = d.idCnt
	d.idLock.Unlock()
	return id
} // func (d *Daemon) getID() int64
