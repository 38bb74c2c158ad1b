// Package web provides the local HTTP control API.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"dingwecker/alarm"
	"dingwecker/chain"
	"dingwecker/journal"
	"dingwecker/log"
)

// Controller is the part of the chain the API drives.
type Controller interface {
	Start(trigger chain.Trigger) (chain.Run, error)
	Cancel() bool
	Status() chain.Status
}

// History lists recorded runs, newest first.
type History interface {
	Recent(limit int) ([]journal.Entry, error)
}

// Scheduler reports the next occurrence of each alarm slot.
type Scheduler interface {
	Schedule() map[alarm.Slot]time.Time
}

// Server serves the control API over HTTP.
type Server struct {
	httpServer *http.Server
	chain      Controller
	history    History
	schedule   Scheduler
}

// New creates a Server. history and schedule may be nil.
func New(addr string, c Controller, history History, schedule Scheduler) *Server {
	s := &Server{chain: c, history: history, schedule: schedule}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("OK")) }).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chain", s.handleStatus).Methods("GET")
	api.HandleFunc("/chain/trigger", s.handleTrigger).Methods("POST")
	api.HandleFunc("/chain/cancel", s.handleCancel).Methods("POST")
	api.HandleFunc("/runs", s.handleRuns).Methods("GET")
	api.HandleFunc("/schedule", s.handleSchedule).Methods("GET")
	return r
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusJSON(s.chain.Status()))
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	run, err := s.chain.Start(chain.Trigger{Source: "http"})
	if err != nil {
		var rangeErr *chain.InvalidRangeError
		switch {
		case errors.Is(err, chain.ErrAlreadyActive):
			writeError(w, http.StatusConflict, err)
		case errors.As(err, &rangeErr):
			writeError(w, http.StatusUnprocessableEntity, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	log.Info("chain triggered over http", "run_id", run.ID, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusAccepted, runJSON(run))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CancelJSON{Cancelled: s.chain.Cancel()})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, errors.New("run journal disabled"))
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	out := ScheduleJSON{}
	if s.schedule != nil {
		for slot, at := range s.schedule.Schedule() {
			t := at
			switch slot {
			case alarm.SlotMorning:
				out.Morning = &t
			case alarm.SlotEvening:
				out.Evening = &t
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}
