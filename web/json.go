package web

import (
	"encoding/json"
	"net/http"
	"time"

	"dingwecker/chain"
	"dingwecker/log"
)

// StatusJSON is the body of GET /api/chain.
type StatusJSON struct {
	Phase            string   `json:"phase"`
	SecondsRemaining int      `json:"seconds_remaining"`
	Run              *RunJSON `json:"run,omitempty"`
}

// RunJSON describes a run in progress.
type RunJSON struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Slot         string    `json:"slot,omitempty"`
	InitialDelay int       `json:"initial_delay"`
	ReturnDelay  int       `json:"return_delay"`
	StartedAt    time.Time `json:"started_at"`
}

// CancelJSON is the body of POST /api/chain/cancel.
type CancelJSON struct {
	Cancelled bool `json:"cancelled"`
}

// ScheduleJSON is the body of GET /api/schedule.
type ScheduleJSON struct {
	Morning *time.Time `json:"morning,omitempty"`
	Evening *time.Time `json:"evening,omitempty"`
}

// ErrorJSON carries an error message.
type ErrorJSON struct {
	Error string `json:"error"`
}

func statusJSON(st chain.Status) StatusJSON {
	out := StatusJSON{
		Phase:            st.Phase.String(),
		SecondsRemaining: st.SecondsRemaining,
	}
	if st.Run != nil {
		r := runJSON(*st.Run)
		out.Run = &r
	}
	return out
}

func runJSON(run chain.Run) RunJSON {
	return RunJSON{
		ID:           run.ID,
		Source:       run.Trigger.Source,
		Slot:         run.Trigger.Slot,
		InitialDelay: run.InitialDelay,
		ReturnDelay:  run.ReturnDelay,
		StartedAt:    run.StartedAt,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("writing response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, ErrorJSON{Error: err.Error()})
}
