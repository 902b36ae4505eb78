package api

import (
	"net/http"
	"testing"

	"github.com/smazurov/climalight/internal/api/models"
	"github.com/smazurov/climalight/internal/logging"
)

func TestGetLogsFiltersAndLimits(t *testing.T) {
	logging.Initialize(logging.Config{Level: "debug", Format: "text"})
	logging.GetLogger("sensor").Info("Sensor read failed", "attempt", 1)
	logging.GetLogger("report").Info("Status published")
	logging.GetLogger("sensor").Info("Sensor read failed", "attempt", 2)

	s, _, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/logs?module=sensor&limit=1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	got := decode[models.LogsData](t, rec)
	if got.Count != 1 || len(got.Entries) != 1 {
		t.Fatalf("logs = %+v", got)
	}
	entry := got.Entries[0]
	if entry.Module != "sensor" || entry.Message != "Sensor read failed" {
		t.Errorf("entry = %+v", entry)
	}
	if attempt, _ := entry.Attributes["attempt"].(float64); attempt != 2 {
		t.Errorf("expected the most recent entry, attributes = %v", entry.Attributes)
	}
}
