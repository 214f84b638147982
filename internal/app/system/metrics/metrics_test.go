package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/cases/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cases/65f0c0ffee", nil))

	out := scrape(t)
	if !strings.Contains(out, `route="/api/cases/{id}"`) {
		t.Fatalf("expected route pattern label in output:\n%s", out)
	}
	if strings.Contains(out, "65f0c0ffee") {
		t.Fatal("raw path leaked into labels")
	}
}

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestHandler_ExposesLedgerMetrics(t *testing.T) {
	LedgerCompensations.WithLabelValues("ok").Inc()

	if out := scrape(t); !strings.Contains(out, "donationhub_ledger_compensations_total") {
		t.Fatalf("metrics output missing compensation counter:\n%s", out)
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" {
		t.Error("Outcome(nil) != ok")
	}
	if Outcome(errors.New("x")) != "error" {
		t.Error("Outcome(err) != error")
	}
}
