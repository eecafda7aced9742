package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/dataset"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/spider"
)

const fixture = `arm,dose,tumor_type
A,1800,sqNSCLC
B,3000,HNSCC
A,3000,HNSCC
`

func newTestHandler(t *testing.T, content string, origins ...string) http.Handler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spider.csv")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return NewHandler(spider.New(dataset.CSVFile{Path: path}), origins)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeRows(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var rows []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	return rows
}

func TestGetSpiderNoFilters(t *testing.T) {
	h := newTestHandler(t, fixture)
	w := get(t, h, "/get-spider")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}

	rows := decodeRows(t, w)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	wantArms := []string{"A", "B", "A"}
	for i, r := range rows {
		if r["arm"] != wantArms[i] {
			t.Errorf("row %d: expected arm %s, got %v", i, wantArms[i], r["arm"])
		}
	}
}

func TestGetSpiderFilters(t *testing.T) {
	h := newTestHandler(t, fixture)
	w := get(t, h, "/get-spider?arms=A&doses=3000")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	want := `[{"arm":"A","dose":3000,"tumor_type":"HNSCC"}]`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	w = get(t, h, "/get-spider?tumor_types=sqNSCLC,HNSCC")
	if rows := decodeRows(t, w); len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
}

func TestGetSpiderNoMatchIsEmptyArray(t *testing.T) {
	h := newTestHandler(t, fixture)
	w := get(t, h, "/get-spider?arms=Z")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("expected [], got %s", got)
	}
}

func TestGetSpiderInvalidDose(t *testing.T) {
	h := newTestHandler(t, fixture)
	w := get(t, h, "/get-spider?doses=abc")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "doses") {
		t.Errorf("expected error to name the parameter, got %q", w.Body.String())
	}
}

func TestGetSpiderDatasetMissing(t *testing.T) {
	h := newTestHandler(t, "")
	w := get(t, h, "/get-spider")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
}

func TestGetSpiderMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, fixture)
	req := httptest.NewRequest(http.MethodPost, "/get-spider", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestGetSpiderHead(t *testing.T) {
	h := newTestHandler(t, fixture)
	req := httptest.NewRequest(http.MethodHead, "/get-spider?arms=A", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestOptionsHandler(t *testing.T) {
	h := newTestHandler(t, fixture)
	w := get(t, h, "/get-spider/options")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	want := `{"arms":["A","B"],"doses":[1800,3000],"tumor_types":["sqNSCLC","HNSCC"]}`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestHealth(t *testing.T) {
	w := get(t, newTestHandler(t, fixture), "/health")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	w = get(t, newTestHandler(t, ""), "/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["status"] != "degraded" {
		t.Errorf("expected degraded status, got %v", resp["status"])
	}
}

func TestRequestIDEchoed(t *testing.T) {
	h := newTestHandler(t, fixture)

	req := httptest.NewRequest(http.MethodGet, "/get-spider", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}

	w = get(t, h, "/get-spider")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}
}

func TestCORSAnyOrigin(t *testing.T) {
	h := newTestHandler(t, fixture)

	req := httptest.NewRequest(http.MethodGet, "/get-spider", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard allow origin, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, fixture)

	req := httptest.NewRequest(http.MethodOptions, "/get-spider", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard allow origin, got %q", got)
	}
}

func TestCORSAllowlist(t *testing.T) {
	h := newTestHandler(t, fixture, "http://allowed.example")

	req := httptest.NewRequest(http.MethodGet, "/get-spider", nil)
	req.Header.Set("Origin", "http://other.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow origin for unlisted origin, got %q", got)
	}
}
