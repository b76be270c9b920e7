package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/obafemi/chopwell-backend/pkg/logger"
)

func TestLoggingRecordsDownstreamStatus(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "middleware-test", Output: buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", rec.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"status":418`)) {
		t.Fatalf("expected completion log to carry the status; log=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("request.complete")) {
		t.Fatalf("expected completion entry; log=%s", buf.String())
	}
}

func TestLoggingDefaultsImplicitOK(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "middleware-test", Output: buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if !bytes.Contains(buf.Bytes(), []byte(`"status":200`)) {
		t.Fatalf("expected implicit 200 in completion log; log=%s", buf.String())
	}
}
