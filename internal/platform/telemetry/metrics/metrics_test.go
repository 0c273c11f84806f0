package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBotMetricsExposition(t *testing.T) {
	m, err := NewBotMetrics()
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.ObserveUpdate("text", "ok", 12*time.Millisecond)
	m.OrderCreated()
	m.OrderTransitioned("PROCESSING")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`restobot_updates_total{kind="text",outcome="ok"} 1`,
		`restobot_orders_created_total 1`,
		`restobot_order_transitions_total{to="PROCESSING"} 1`,
		`restobot_update_duration_ms_count{kind="text"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected exposition to contain %q", want)
		}
	}
}

func TestNewBotMetricsIsolatedRegistries(t *testing.T) {
	if _, err := NewBotMetrics(); err != nil {
		t.Fatalf("first metrics: %v", err)
	}
	if _, err := NewBotMetrics(); err != nil {
		t.Fatalf("second metrics should not collide: %v", err)
	}
}

func TestNilBotMetricsIsSafe(t *testing.T) {
	var m *BotMetrics
	m.ObserveUpdate("text", "ok", time.Millisecond)
	m.OrderCreated()
	m.OrderTransitioned("NEW")
}
