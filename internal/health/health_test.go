package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func getStatus(t *testing.T, c *Checker) (int, Status) {
	t.Helper()
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var st Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec.Code, st
}

func TestChecker_Healthy(t *testing.T) {
	c := NewChecker("transformd")
	c.AddCheck("handler", func() error { return nil })

	code, st := getStatus(t, c)
	if code != http.StatusOK {
		t.Fatalf("want 200, got %d", code)
	}
	if st.Status != "healthy" || st.AppName != "transformd" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.Checks["handler"] != "ok" {
		t.Fatalf("unexpected checks: %v", st.Checks)
	}
}

func TestChecker_UnhealthyCheckFlips503(t *testing.T) {
	c := NewChecker("transformd")
	c.AddCheck("handler", func() error { return nil })
	c.AddCheck("store", func() error { return errors.New("bucket unreachable") })

	code, st := getStatus(t, c)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", code)
	}
	if st.Status != "unhealthy" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.Checks["store"] != "bucket unreachable" || st.Checks["handler"] != "ok" {
		t.Fatalf("unexpected checks: %v", st.Checks)
	}
}
