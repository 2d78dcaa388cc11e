package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// failingResponseWriter fails every body write
type failingResponseWriter struct {
	http.ResponseWriter
	writeCount int
}

func (f *failingResponseWriter) Write(b []byte) (int, error) {
	f.writeCount++
	return 0, errors.New("write failed")
}

func TestWriteJSON_EncodingFailureDoesNotPanic(t *testing.T) {
	w := httptest.NewRecorder()

	// channels cannot be JSON encoded
	writeJSON(w, http.StatusOK, make(chan int))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status to be written before encoding, got %d", w.Code)
	}
}

func TestWriteJSON_WriteFailureIsSwallowed(t *testing.T) {
	fw := &failingResponseWriter{ResponseWriter: httptest.NewRecorder()}

	writeJSON(fw, http.StatusOK, map[string]string{"status": "ok"})
	writeText(fw, "text/plain", "CEF:0|...")

	if fw.writeCount != 2 {
		t.Errorf("Expected 2 write attempts, got %d", fw.writeCount)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	writeError(w, http.StatusBadRequest, `bad "input"`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Unexpected content type: %s", ct)
	}
	if !strings.Contains(w.Body.String(), `"error":"bad \"input\""`) {
		t.Errorf("Expected escaped error message, got %s", w.Body.String())
	}
}

func TestEnrichAlert_OversizedBody(t *testing.T) {
	router := newTestRouter(nil, "")

	body := strings.NewReader(strings.Repeat("x", maxEventBytes+1))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/enrich", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", rec.Code)
	}
}
