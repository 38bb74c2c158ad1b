package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dingwecker/alarm"
	"dingwecker/chain"
	"dingwecker/config"
	"dingwecker/journal"
	"dingwecker/timer"
)

type noopActions struct{}

func (noopActions) LaunchTargetApplication() error { return nil }
func (noopActions) RestoreHostApplication() error  { return nil }

type discard struct{}

func (discard) ShowTransient(string) {}

type rangeOf config.DelayRange

func (r rangeOf) Range() config.DelayRange { return config.DelayRange(r) }

type fakeHistory struct {
	entries []journal.Entry
	err     error
	limit   int
}

func (h *fakeHistory) Recent(limit int) ([]journal.Entry, error) {
	h.limit = limit
	return h.entries, h.err
}

type fixedSchedule map[alarm.Slot]time.Time

func (s fixedSchedule) Schedule() map[alarm.Slot]time.Time { return s }

func newTestServer(t *testing.T, r config.DelayRange, history History) (*httptest.Server, *chain.Chain, *timer.Fake) {
	t.Helper()
	clock := timer.NewFake(time.Date(2026, 3, 2, 8, 50, 0, 0, time.UTC))
	c := chain.New(rangeOf(r), noopActions{}, discard{}, chain.Options{Clock: clock, ReturnDelay: 5})
	srv := New(":0", c, history, nil)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, c, clock
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func post(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	return resp
}

func TestStatusIdle(t *testing.T) {
	ts, _, _ := newTestServer(t, config.DelayRange{Min: 5, Max: 5}, nil)

	resp, err := http.Get(ts.URL + "/api/chain")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	st := decode[StatusJSON](t, resp)
	assert.Equal(t, "idle", st.Phase)
	assert.Nil(t, st.Run)
}

func TestTriggerThenStatus(t *testing.T) {
	ts, _, clock := newTestServer(t, config.DelayRange{Min: 7, Max: 7}, nil)

	resp := post(t, ts.URL+"/api/chain/trigger")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	run := decode[RunJSON](t, resp)
	assert.Equal(t, "http", run.Source)
	assert.Equal(t, 7, run.InitialDelay)
	assert.NotEmpty(t, run.ID)

	clock.Advance(2 * time.Second)

	resp, err := http.Get(ts.URL + "/api/chain")
	require.NoError(t, err)
	st := decode[StatusJSON](t, resp)
	assert.Equal(t, "approaching", st.Phase)
	assert.Equal(t, 5, st.SecondsRemaining)
	require.NotNil(t, st.Run)
	assert.Equal(t, run.ID, st.Run.ID)
}

func TestTriggerWhileRunningConflicts(t *testing.T) {
	ts, _, _ := newTestServer(t, config.DelayRange{Min: 7, Max: 7}, nil)

	post(t, ts.URL+"/api/chain/trigger").Body.Close()
	resp := post(t, ts.URL+"/api/chain/trigger")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	e := decode[ErrorJSON](t, resp)
	assert.Equal(t, chain.ErrAlreadyActive.Error(), e.Error)
}

func TestTriggerInvalidRange(t *testing.T) {
	ts, c, _ := newTestServer(t, config.DelayRange{Min: 9, Max: 1}, nil)

	resp := post(t, ts.URL+"/api/chain/trigger")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, chain.PhaseIdle, c.Status().Phase)
}

func TestCancel(t *testing.T) {
	ts, c, _ := newTestServer(t, config.DelayRange{Min: 7, Max: 7}, nil)

	resp := post(t, ts.URL+"/api/chain/cancel")
	assert.False(t, decode[CancelJSON](t, resp).Cancelled)

	post(t, ts.URL+"/api/chain/trigger").Body.Close()
	resp = post(t, ts.URL+"/api/chain/cancel")
	assert.True(t, decode[CancelJSON](t, resp).Cancelled)
	assert.Equal(t, chain.PhaseIdle, c.Status().Phase)
}

func TestWrongMethod(t *testing.T) {
	ts, _, _ := newTestServer(t, config.DelayRange{Min: 7, Max: 7}, nil)

	resp, err := http.Get(ts.URL + "/api/chain/trigger")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRuns(t *testing.T) {
	h := &fakeHistory{entries: []journal.Entry{{ID: "b", Outcome: "completed"}, {ID: "a", Outcome: "cancelled"}}}
	ts, _, _ := newTestServer(t, config.DelayRange{Min: 7, Max: 7}, h)

	resp, err := http.Get(ts.URL + "/api/runs?limit=2")
	require.NoError(t, err)
	entries := decode[[]journal.Entry](t, resp)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].ID)
	assert.Equal(t, 2, h.limit)

	resp, err = http.Get(ts.URL + "/api/runs?limit=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	h.err = errors.New("disk full")
	resp, err = http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "disk full", decode[ErrorJSON](t, resp).Error)
}

func TestRunsEmptyIsArray(t *testing.T) {
	ts, _, _ := newTestServer(t, config.DelayRange{Min: 7, Max: 7}, &fakeHistory{})

	resp, err := http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	entries := decode[[]journal.Entry](t, resp)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestRunsDisabled(t *testing.T) {
	ts, _, _ := newTestServer(t, config.DelayRange{Min: 7, Max: 7}, nil)

	resp, err := http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSchedule(t *testing.T) {
	morning := time.Date(2026, 3, 3, 8, 50, 0, 0, time.UTC)
	srv := New(":0", chain.New(rangeOf{Min: 1, Max: 1}, noopActions{}, discard{}, chain.Options{}), nil,
		fixedSchedule{alarm.SlotMorning: morning})
	ts := httptest.NewServer(srv.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/schedule")
	require.NoError(t, err)
	s := decode[ScheduleJSON](t, resp)
	require.NotNil(t, s.Morning)
	assert.True(t, morning.Equal(*s.Morning))
	assert.Nil(t, s.Evening)
}

func TestServeAndShutdown(t *testing.T) {
	c := chain.New(rangeOf{Min: 1, Max: 1}, noopActions{}, discard{}, chain.Options{})
	srv := New("127.0.0.1:0", c, nil, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.ErrorIs(t, <-errc, http.ErrServerClosed)
}
