// Copyright 2014-2026 the variableserver authors.
package vsmetrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestGaugesAndCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ActiveSessions.Set(3)
	m.ConnectedThreads.Inc()
	m.FramesSentAscii.Add(2)
	m.FramesSentBinary.Inc()
	m.ParseErrors.Inc()
	m.ConnectionResets.Inc()

	if got := gaugeValue(t, m.ActiveSessions); got != 3 {
		t.Fatalf("ActiveSessions = %v, want 3", got)
	}
	if got := gaugeValue(t, m.ConnectedThreads); got != 1 {
		t.Fatalf("ConnectedThreads = %v, want 1", got)
	}
	if got := counterValue(t, m.FramesSentAscii); got != 2 {
		t.Fatalf("FramesSentAscii = %v, want 2", got)
	}
	if got := counterValue(t, m.FramesSentBinary); got != 1 {
		t.Fatalf("FramesSentBinary = %v, want 1", got)
	}
	if got := counterValue(t, m.ParseErrors); got != 1 {
		t.Fatalf("ParseErrors = %v, want 1", got)
	}
	if got := counterValue(t, m.ConnectionResets); got != 1 {
		t.Fatalf("ConnectionResets = %v, want 1", got)
	}
}

type fakeSource struct {
	snapshot []SessionSnapshot
}

func (f fakeSource) Snapshot() []SessionSnapshot { return f.snapshot }

func TestStatusHandler(t *testing.T) {
	src := fakeSource{snapshot: []SessionSnapshot{
		{ID: "s1", State: "RUNNING", CopyMode: "SCHEDULED", WriteMode: "ASYNC", SubscriptionCount: 2},
	}}

	h := StatusHandler(src)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q", ct)
	}
	body := rec.Body.String()
	if !contains(body, `"id":"s1"`) || !contains(body, `"subscription_count":2`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
