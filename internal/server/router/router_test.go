package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mamadbah2/breadlog/internal/config"
	"github.com/mamadbah2/breadlog/internal/repository/kv"
	"github.com/mamadbah2/breadlog/internal/repository/ledger"
	"github.com/mamadbah2/breadlog/internal/server/handlers"
	"github.com/mamadbah2/breadlog/internal/service/chart"
	"github.com/mamadbah2/breadlog/internal/service/production"
	"github.com/mamadbah2/breadlog/internal/service/reporting"
)

var fixedNow = time.Date(2024, 5, 6, 8, 30, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	chart   *chart.Handle
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	store := ledger.NewStore(kv.NewMemoryBackend(), nil)
	workspace := production.NewService(store, nil, clock)
	reports := reporting.NewService(store, nil, clock)
	handle := chart.NewHandle(chart.DatasetRenderer{}, nil)

	engine := New(
		config.ServerConfig{AllowedOrigins: []string{"https://padaria.test"}},
		handlers.NewProductionHandler(workspace, nil),
		handlers.NewReportHandler(reports, store, handle, nil),
		nil,
	)
	return testServer{handler: engine, chart: handle}
}

func (s testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	if rec := srv.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/healthz", "")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/ledgers/2024-05-06/batches/1", nil)
	req.Header.Set("Origin", "https://padaria.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://padaria.test" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestEditSaveAndHistory(t *testing.T) {
	srv := newTestServer(t)
	const day = "/api/ledgers/2024-05-06"

	rec := srv.do(t, http.MethodPatch, day+"/batches/1", `{"produced":"100","sold":"70","crispness":"3","productionTime":"06:00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch batch: status %d body %s", rec.Code, rec.Body.String())
	}
	var draft reporting.DayReport
	decode(t, rec, &draft)
	if draft.Totals.TotalRemaining != 30 || draft.Batches[0].Expiry.Label != "09:00" {
		t.Fatalf("unexpected draft %+v", draft)
	}

	if rec := srv.do(t, http.MethodPost, day+"/batches", ""); rec.Code != http.StatusCreated {
		t.Fatalf("add batch: status %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodPut, day+"/meta", `{"temperature":"28","promotion":true}`); rec.Code != http.StatusOK {
		t.Fatalf("update meta: status %d", rec.Code)
	}

	if rec := srv.do(t, http.MethodGet, "/api/history/2024-05-06", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unsaved day must not be in history, got %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodPost, day+"/save", ""); rec.Code != http.StatusOK {
		t.Fatalf("save: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/history/2024-05-06", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status %d", rec.Code)
	}
	var history reporting.DayReport
	decode(t, rec, &history)
	if len(history.Ledger.Batches) != 2 || !history.Ledger.Promotion || history.Ledger.Temperature.Value != 28 {
		t.Fatalf("unexpected history %+v", history.Ledger)
	}

	var list struct {
		Ledgers []ledger.Entry `json:"ledgers"`
	}
	decode(t, srv.do(t, http.MethodGet, "/api/ledgers", ""), &list)
	if len(list.Ledgers) != 1 || list.Ledgers[0].Ledger.Date != "2024-05-06" {
		t.Fatalf("unexpected ledger list %+v", list)
	}
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/ledgers/06-05-2024", "", http.StatusBadRequest},
		{http.MethodPatch, "/api/ledgers/2024-05-06/batches/abc", `{}`, http.StatusBadRequest},
		{http.MethodPatch, "/api/ledgers/2024-05-06/batches/9", `{"sold":"1"}`, http.StatusNotFound},
		{http.MethodPatch, "/api/ledgers/2024-05-06/batches/1", `{"produced":`, http.StatusBadRequest},
		{http.MethodPost, "/api/ledgers/2024-05-06/reset", "", http.StatusConflict},
		{http.MethodDelete, "/api/ledgers/2024-05-06", "", http.StatusConflict},
		{http.MethodDelete, "/api/ledgers/2024-05-06?confirm=true", "", http.StatusNotFound},
		{http.MethodPost, "/api/holidays/not-a-date/toggle", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		if rec := srv.do(t, tc.method, tc.path, tc.body); rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d (%s)", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestHolidayToggle(t *testing.T) {
	srv := newTestServer(t)

	var toggled struct {
		Holiday bool `json:"holiday"`
	}
	decode(t, srv.do(t, http.MethodPost, "/api/holidays/2024-12-25/toggle", ""), &toggled)
	if !toggled.Holiday {
		t.Fatalf("first toggle must mark the holiday")
	}

	var list struct {
		Holidays []string `json:"holidays"`
	}
	decode(t, srv.do(t, http.MethodGet, "/api/holidays", ""), &list)
	if len(list.Holidays) != 1 || list.Holidays[0] != "2024-12-25" {
		t.Fatalf("unexpected holidays %v", list.Holidays)
	}
}

func TestTrendReplacesChart(t *testing.T) {
	srv := newTestServer(t)
	if rec := srv.do(t, http.MethodPost, "/api/ledgers/2024-05-06/save", ""); rec.Code != http.StatusOK {
		t.Fatalf("save: status %d", rec.Code)
	}

	if rec := srv.do(t, http.MethodGet, "/api/trend", ""); rec.Code != http.StatusOK {
		t.Fatalf("trend: status %d", rec.Code)
	}
	first := srv.chart.Current()

	rec := srv.do(t, http.MethodGet, "/api/trend", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("trend: status %d", rec.Code)
	}
	if _, err := first.Payload(); err == nil {
		t.Fatalf("previous chart must be disposed after a refresh")
	}

	var body struct {
		Chart chart.Payload `json:"chart"`
	}
	decode(t, rec, &body)
	if len(body.Chart.Production.Labels) != 1 || body.Chart.Production.Labels[0] != "2024-05-06" {
		t.Fatalf("unexpected chart payload %+v", body.Chart)
	}
}

func TestExports(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/ledgers/2024-05-06/export.xlsx", "")
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("xlsx export: status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "producao_pao_frances_2024-05-06.xlsx") {
		t.Fatalf("unexpected disposition %q", got)
	}

	rec = srv.do(t, http.MethodGet, "/api/ledgers/2024-05-06/export.txt", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Data: 2024-05-06") {
		t.Fatalf("text export: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestConcurrentTrendRequests(t *testing.T) {
	srv := newTestServer(t)
	if rec := srv.do(t, http.MethodPost, "/api/ledgers/2024-05-06/save", ""); rec.Code != http.StatusOK {
		t.Fatalf("save: status %d", rec.Code)
	}

	var failed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trend", nil))
			if rec.Code != http.StatusOK {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()

	if n := failed.Load(); n != 0 {
		t.Fatalf("%d of 200 concurrent trend requests failed", n)
	}
	if _, err := srv.chart.Current().Payload(); err != nil {
		t.Fatalf("live chart must stay readable: %v", err)
	}
}
