package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"errgate/internal/config"
	"errgate/internal/model"
)

type fakeCache struct {
	entries []model.Entry
	cleared bool
	swept   int
}

func (f *fakeCache) Stats() model.Stats {
	total := 0
	for _, e := range f.entries {
		total += e.Count
	}
	return model.Stats{TotalErrors: total, UniqueErrors: len(f.entries)}
}

func (f *fakeCache) MostFrequent(limit int) []model.Entry { return f.entries }
func (f *fakeCache) MostRecent(limit int) []model.Entry   { return f.entries }

func (f *fakeCache) ByCode(code string) []model.Entry {
	out := []model.Entry{}
	for _, e := range f.entries {
		if e.Signal.Code == code {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeCache) BySeverity(sev model.Severity) []model.Entry {
	out := []model.Entry{}
	for _, e := range f.entries {
		if e.Signal.Severity() == sev {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeCache) ClearExpired() int { return f.swept }
func (f *fakeCache) Clear()            { f.cleared = true }

func testServer() (*Server, *fakeCache) {
	now := time.Now().UTC()
	cache := &fakeCache{
		entries: []model.Entry{
			{Key: "k1", Signal: model.Signal{Code: "DB_ERROR", StatusCode: 500}, Count: 3, FirstSeen: now, LastSeen: now},
			{Key: "k2", Signal: model.Signal{Code: "AUTH_FAIL", StatusCode: 401}, Count: 1, FirstSeen: now, LastSeen: now},
		},
		swept: 2,
	}
	s := &Server{
		cfg:     config.NewStaticManager(config.DefaultConfig()),
		cache:   cache,
		version: "test",
	}
	return s, cache
}

func TestHandleStats(t *testing.T) {
	s, _ := testServer()
	rec := httptest.NewRecorder()
	s.handleStats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var st model.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.TotalErrors != 4 || st.UniqueErrors != 2 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestHandleStatsMethodNotAllowed(t *testing.T) {
	s, _ := testServer()
	rec := httptest.NewRecorder()
	s.handleStats(rec, httptest.NewRequest(http.MethodPost, "/stats", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d, want 405", rec.Code)
	}
}

func TestHandleByCode(t *testing.T) {
	s, _ := testServer()
	rec := httptest.NewRecorder()
	s.handleByCode(rec, httptest.NewRequest(http.MethodGet, "/errors/by-code/DB_ERROR", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}

	rec = httptest.NewRecorder()
	s.handleByCode(rec, httptest.NewRequest(http.MethodGet, "/errors/by-code/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty code: status %d, want 400", rec.Code)
	}
}

func TestHandleBySeverity(t *testing.T) {
	s, _ := testServer()
	rec := httptest.NewRecorder()
	s.handleBySeverity(rec, httptest.NewRequest(http.MethodGet, "/errors/by-severity/critical", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.handleBySeverity(rec, httptest.NewRequest(http.MethodGet, "/errors/by-severity/bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus severity: status %d, want 400", rec.Code)
	}
}

func TestHandleAdmin(t *testing.T) {
	s, cache := testServer()
	rec := httptest.NewRecorder()
	s.handleClear(rec, httptest.NewRequest(http.MethodPost, "/admin/clear", nil))
	if rec.Code != http.StatusOK || !cache.cleared {
		t.Fatalf("clear: status %d cleared=%v", rec.Code, cache.cleared)
	}

	rec = httptest.NewRecorder()
	s.handleSweep(rec, httptest.NewRequest(http.MethodPost, "/admin/sweep", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep: status %d", rec.Code)
	}
	var resp struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Removed != 2 {
		t.Fatalf("removed = %d, want 2", resp.Removed)
	}

	rec = httptest.NewRecorder()
	s.handleClear(rec, httptest.NewRequest(http.MethodGet, "/admin/clear", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("clear GET: status %d, want 405", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	s, _ := testServer()
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Fatalf("response = %+v", resp)
	}
	if !resp.Dedup.Enabled || resp.Dedup.MaxSize != 1000 {
		t.Fatalf("dedup status = %+v", resp.Dedup)
	}
}
