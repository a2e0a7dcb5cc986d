package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_AppointmentsTotal(t *testing.T) {
	c := NewCollector("clinic", prometheus.NewRegistry())

	c.AppointmentsTotal.WithLabelValues(OutcomeCreated).Inc()
	c.AppointmentsTotal.WithLabelValues(OutcomeCreated).Inc()
	c.AppointmentsTotal.WithLabelValues(OutcomeWaitlisted).Inc()

	if got := testutil.ToFloat64(c.AppointmentsTotal.WithLabelValues(OutcomeCreated)); got != 2 {
		t.Errorf("expected 2 created, got %v", got)
	}
	if got := testutil.ToFloat64(c.AppointmentsTotal.WithLabelValues(OutcomeWaitlisted)); got != 1 {
		t.Errorf("expected 1 waitlisted, got %v", got)
	}
}

func TestCollector_SeparateRegistries(t *testing.T) {
	// Registering twice on distinct registries must not panic.
	NewCollector("clinic", prometheus.NewRegistry())
	NewCollector("clinic", prometheus.NewRegistry())
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("clinic", prometheus.NewRegistry())
	c.DoctorsRegistered.Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "clinic_doctors_registered_total 1") {
		t.Errorf("expected doctors counter in exposition, got:\n%s", body)
	}
}
