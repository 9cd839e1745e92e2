package db

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHealthReportJSON(t *testing.T) {
	ok := healthReport{
		Status: "ok",
		Database: dbInfo{
			OpenConns:     4,
			IdleConns:     3,
			BusyConns:     1,
			MaxConns:      10,
			TotalAcquires: 250,
			AcquireWait:   "120ms",
		},
	}
	body, err := json.Marshal(ok)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, key := range []string{`"status":"ok"`, `"open_conns":4`, `"busy_conns":1`, `"acquire_wait":"120ms"`} {
		if !strings.Contains(string(body), key) {
			t.Errorf("expected %s in %s", key, body)
		}
	}
	if strings.Contains(string(body), `"error"`) {
		t.Errorf("error key should be omitted when empty: %s", body)
	}

	down := healthReport{Status: "unavailable", Error: "dial refused"}
	body, err = json.Marshal(down)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(body), `"error":"dial refused"`) {
		t.Errorf("expected error detail in %s", body)
	}
}
