package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marketpulse/pricefeed/internal/model"
	"github.com/marketpulse/pricefeed/internal/poller"
	"github.com/marketpulse/pricefeed/internal/window"
)

// stubState is a fixed PollerState.
type stubState struct {
	ready bool
	stats poller.Stats
}

func (s *stubState) Ready() bool         { return s.ready }
func (s *stubState) Stats() poller.Stats { return s.stats }

func testInfo() Info {
	return Info{InstanceID: "pricefeed-test", Version: "1.2.3"}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHandleHealth(t *testing.T) {
	h := New(window.New(time.Minute), &stubState{}, testInfo(), nil)

	rec := get(t, h, "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	decode(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf(`body["status"] = %q, want "ok"`, body["status"])
	}
}

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		wantStatus int
	}{
		{name: "ready", ready: true, wantStatus: http.StatusOK},
		{name: "not ready", ready: false, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(window.New(time.Minute), &stubState{ready: tt.ready}, testInfo(), nil)

			rec := get(t, h, "/ready")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]bool
			decode(t, rec, &body)
			if body["ready"] != tt.ready {
				t.Errorf(`body["ready"] = %v, want %v`, body["ready"], tt.ready)
			}
		})
	}
}

func TestHandlePrice_NoData(t *testing.T) {
	h := New(window.New(time.Minute), &stubState{}, testInfo(), nil)

	rec := get(t, h, "/price")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body map[string]string
	decode(t, rec, &body)
	if body["error"] != "no data available" {
		t.Errorf(`body["error"] = %q, want "no data available"`, body["error"])
	}
}

func TestHandlePrice(t *testing.T) {
	win := window.New(10 * time.Minute)
	ts := time.Now().UTC().Truncate(time.Second)
	win.Insert(model.PricePoint{Timestamp: ts, Value: 104.5, Source: "primary"})

	h := New(win, &stubState{ready: true}, testInfo(), nil)

	rec := get(t, h, "/price")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Price     float64   `json:"price"`
		Timestamp time.Time `json:"timestamp"`
		Source    string    `json:"source"`
	}
	decode(t, rec, &body)

	if body.Price != 104.5 {
		t.Errorf("price = %v, want 104.5", body.Price)
	}
	if !body.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", body.Timestamp, ts)
	}
	if body.Source != "primary" {
		t.Errorf("source = %q, want %q", body.Source, "primary")
	}
}

func TestHandleAverage_NoData(t *testing.T) {
	h := New(window.New(time.Minute), &stubState{}, testInfo(), nil)

	rec := get(t, h, "/average")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHandleAverage(t *testing.T) {
	win := window.New(10 * time.Minute)
	now := time.Now()
	win.Insert(model.PricePoint{Timestamp: now.Add(-2 * time.Minute), Value: 100})
	win.Insert(model.PricePoint{Timestamp: now.Add(-time.Minute), Value: 104})
	win.Insert(model.PricePoint{Timestamp: now, Value: 108})

	h := New(win, &stubState{ready: true}, testInfo(), nil)

	rec := get(t, h, "/average")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Average float64 `json:"average"`
		Count   int     `json:"count"`
	}
	decode(t, rec, &body)

	if body.Average != 104 {
		t.Errorf("average = %v, want 104", body.Average)
	}
	if body.Count != 3 {
		t.Errorf("count = %d, want 3", body.Count)
	}
}

func TestHandleStatus(t *testing.T) {
	win := window.New(10 * time.Minute)
	win.Insert(model.PricePoint{Timestamp: time.Now(), Value: 100})

	lastSuccess := time.Now().UTC().Truncate(time.Second)
	state := &stubState{
		ready: true,
		stats: poller.Stats{
			Successes:           42,
			Failures:            3,
			ConsecutiveFailures: 0,
			LastError:           "fetch from primary: timeout: context deadline exceeded",
			LastSuccess:         lastSuccess,
		},
	}

	h := New(win, state, testInfo(), nil)

	rec := get(t, h, "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		InstanceID        string     `json:"instance_id"`
		Version           string     `json:"version"`
		UptimeSeconds     int64      `json:"uptime_seconds"`
		SuccessfulFetches int64      `json:"successful_fetches"`
		FailedFetches     int64      `json:"failed_fetches"`
		WindowPoints      int        `json:"window_points"`
		LastError         string     `json:"last_error"`
		LastSuccess       *time.Time `json:"last_success"`
	}
	decode(t, rec, &body)

	if body.InstanceID != "pricefeed-test" {
		t.Errorf("instance_id = %q, want %q", body.InstanceID, "pricefeed-test")
	}
	if body.Version != "1.2.3" {
		t.Errorf("version = %q, want %q", body.Version, "1.2.3")
	}
	if body.UptimeSeconds < 0 {
		t.Errorf("uptime_seconds = %d, want >= 0", body.UptimeSeconds)
	}
	if body.SuccessfulFetches != 42 {
		t.Errorf("successful_fetches = %d, want 42", body.SuccessfulFetches)
	}
	if body.FailedFetches != 3 {
		t.Errorf("failed_fetches = %d, want 3", body.FailedFetches)
	}
	if body.WindowPoints != 1 {
		t.Errorf("window_points = %d, want 1", body.WindowPoints)
	}
	if body.LastError == "" {
		t.Error("last_error is empty, want recorded error")
	}
	if body.LastSuccess == nil || !body.LastSuccess.Equal(lastSuccess) {
		t.Errorf("last_success = %v, want %v", body.LastSuccess, lastSuccess)
	}
}

func TestUnknownPathReturns404(t *testing.T) {
	h := New(window.New(time.Minute), &stubState{}, testInfo(), nil)

	rec := get(t, h, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
