package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/claude/swimtrack/internal/analytics"
	"github.com/claude/swimtrack/internal/cache"
	"github.com/claude/swimtrack/internal/report"
	"github.com/redis/go-redis/v9"
)

const testAPIKey = "test-key-123"

var testNow = time.Date(2025, 2, 12, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, db *fakeBackend, opts ...func(*Options)) *Server {
	t.Helper()
	o := Options{APIKey: testAPIKey, Now: func() time.Time { return testNow }}
	for _, fn := range opts {
		fn(&o)
	}
	return New(db, o, discardLogger())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
	return v
}

const referenceWeek = `{"sessions":[
	{"date":"2025-01-01","distance_m":3000,"rpe":5,"zones":{"z1":1000,"z2":2000}},
	{"date":"2025-01-03","distance_m":2000,"rpe":7,"zones":{"z3":2000}}
]}`

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "local", DisplayName: "Local Dev User"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	info := decode[UserInfo](t, rec)
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
	if info.DisplayName != "Local Dev User" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Local Dev User")
	}
}

// TestUploadAndZoneLoad uploads the reference week and checks the zone
// endpoint reports 5000 m, RPE 6 and a 20/40/40/0/0 split.
func TestUploadAndZoneLoad(t *testing.T) {
	db := newFakeBackend()
	s := newTestServer(t, db)

	rec := do(t, s, http.MethodPost, "/api/v1/sessions", referenceWeek)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body)
	}
	up := decode[UploadResult](t, rec)
	if up.Received != 2 || up.Inserted != 2 {
		t.Errorf("upload = %+v, want 2 received, 2 inserted", up)
	}
	if len(db.importLogs) != 1 || db.importLogs[0].Status != "success" {
		t.Errorf("import logs = %+v, want one success", db.importLogs)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/analytics/zones?start=2025-01-01&end=2025-01-07", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("zones status = %d, body %s", rec.Code, rec.Body)
	}
	res := decode[analytics.ZoneLoadResult](t, rec)
	if res.TotalDistanceM != 5000 {
		t.Errorf("total = %v, want 5000", res.TotalDistanceM)
	}
	if res.AvgRPE != 6 {
		t.Errorf("avg rpe = %v, want 6", res.AvgRPE)
	}
	want := []float64{20, 40, 40, 0, 0}
	for i, zl := range res.Zones {
		if zl.Pct != want[i] {
			t.Errorf("zone %s pct = %v, want %v", zl.Zone, zl.Pct, want[i])
		}
	}
}

// TestUploadRequiresAPIKey verifies writes without the key are rejected.
func TestUploadRequiresAPIKey(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(referenceWeek))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestUploadInvalidSession verifies one bad record rejects the whole batch.
func TestUploadInvalidSession(t *testing.T) {
	db := newFakeBackend()
	s := newTestServer(t, db)
	body := `{"sessions":[{"date":"2025-01-01","distance_m":100},{"date":"2025-01-02","distance_m":100,"rpe":12}]}`
	rec := do(t, s, http.MethodPost, "/api/v1/sessions", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(db.sessions) != 0 {
		t.Errorf("stored %d sessions, want 0", len(db.sessions))
	}
}

// TestZoneLoadInvertedWindow verifies a start after the end is a 400, not a swap.
func TestZoneLoadInvertedWindow(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	rec := do(t, s, http.MethodGet, "/api/v1/analytics/zones?start=2025-01-07&end=2025-01-01", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestCompareDefaultsToPreviousWindow verifies window B defaults to the
// equally long window before A.
func TestCompareDefaultsToPreviousWindow(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	body := `{"sessions":[
		{"date":"2025-01-01","distance_m":2000},
		{"date":"2025-01-08","distance_m":3000}
	]}`
	if rec := do(t, s, http.MethodPost, "/api/v1/sessions", body); rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rec.Code)
	}

	rec := do(t, s, http.MethodGet, "/api/v1/analytics/compare?a_start=2025-01-08&a_end=2025-01-14&metric=distance", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	cmp := decode[analytics.Comparison](t, rec)
	if cmp.A != 3000 || cmp.B != 2000 {
		t.Errorf("a=%v b=%v, want 3000 and 2000", cmp.A, cmp.B)
	}
	if cmp.ChangePct != 50 || cmp.Direction != analytics.Increase {
		t.Errorf("change = %v %s, want 50 increase", cmp.ChangePct, cmp.Direction)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/analytics/compare?a_start=2025-01-08&a_end=2025-01-14&metric=pace", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown metric status = %d, want 400", rec.Code)
	}
}

// TestBestWindow verifies the default mode and the validation of length.
func TestBestWindow(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	body := `{"sessions":[
		{"date":"2025-01-01","distance_m":1000},
		{"date":"2025-01-02","distance_m":4000},
		{"date":"2025-01-09","distance_m":4000},
		{"date":"2025-01-10","distance_m":500}
	]}`
	do(t, s, http.MethodPost, "/api/v1/sessions", body)

	rec := do(t, s, http.MethodGet, "/api/v1/analytics/best-window?length=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	best := decode[analytics.BestWindow](t, rec)
	if !best.Found || best.TotalDistanceM != 8000 || best.Mode != analytics.ModeSessionCount {
		t.Errorf("best = %+v, want found 8000 in session mode", best)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/analytics/best-window?length=2&mode=days", "")
	best = decode[analytics.BestWindow](t, rec)
	if best.TotalDistanceM != 5000 || best.Window.String() != "2025-01-01..2025-01-02" {
		t.Errorf("days best = %v %s, want 5000 over 2025-01-01..2025-01-02", best.TotalDistanceM, best.Window)
	}

	for _, q := range []string{"length=0", "length=abc", "length=3&mode=weeks"} {
		if rec := do(t, s, http.MethodGet, "/api/v1/analytics/best-window?"+q, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

// TestPhaseLifecycle walks create, cascade on update, duplicate order and
// delete through the API and checks the database copy follows.
func TestPhaseLifecycle(t *testing.T) {
	db := newFakeBackend()
	s := newTestServer(t, db)

	rec := do(t, s, http.MethodPost, "/api/v1/phases", `{"name":"Base","duration_weeks":4,"start_date":"2025-01-06"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	base := decode[phaseView](t, rec)

	rec = do(t, s, http.MethodPost, "/api/v1/phases", `{"name":"Build","duration_weeks":6,"intensity":7}`)
	build := decode[phaseView](t, rec)
	if got := build.StartDate.Format("2006-01-02"); got != "2025-02-03" {
		t.Errorf("build start = %s, want 2025-02-03", got)
	}
	if got := build.EndDate.Format("2006-01-02"); got != "2025-03-16" {
		t.Errorf("build end = %s, want 2025-03-16", got)
	}
	if build.Status != "active" {
		t.Errorf("build status = %s, want active", build.Status)
	}

	rec = do(t, s, http.MethodPatch, "/api/v1/phases/"+base.ID.String(), `{"duration_weeks":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	stored := db.phases[1]
	if len(stored) != 2 || stored[1].StartDate.Format("2006-01-02") != "2025-02-10" {
		t.Errorf("stored build start = %v, want 2025-02-10", stored[1].StartDate)
	}

	rec = do(t, s, http.MethodPatch, "/api/v1/phases/"+build.ID.String(), `{"order":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate order status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/phases/00000000-0000-0000-0000-000000000001", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown phase status = %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/phases/"+base.ID.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(db.phases[1]) != 1 || db.phases[1][0].Order != 2 {
		t.Errorf("after delete stored = %+v, want one phase keeping order 2", db.phases[1])
	}

	rec = do(t, s, http.MethodPost, "/api/v1/phases/compact", "")
	phases := decode[[]phaseView](t, rec)
	if len(phases) != 1 || phases[0].Order != 1 {
		t.Errorf("compact = %+v, want order 1", phases)
	}
}

// TestPhaseSaveFailureReloads verifies a failed write-through leaves the API
// serving what the database holds.
func TestPhaseSaveFailureReloads(t *testing.T) {
	db := newFakeBackend()
	s := newTestServer(t, db)
	do(t, s, http.MethodPost, "/api/v1/phases", `{"name":"Base","duration_weeks":4}`)

	db.failSave = true
	rec := do(t, s, http.MethodPost, "/api/v1/phases", `{"name":"Build","duration_weeks":4}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	db.failSave = false

	phases := decode[[]phaseView](t, do(t, s, http.MethodGet, "/api/v1/phases", ""))
	if len(phases) != 1 {
		t.Errorf("phases = %d, want 1 after failed save", len(phases))
	}
}

// TestCompetitions verifies creation defaults and main competition selection.
func TestCompetitions(t *testing.T) {
	s := newTestServer(t, newFakeBackend())

	rec := do(t, s, http.MethodGet, "/api/v1/competitions/main", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty main status = %d, want 404", rec.Code)
	}

	do(t, s, http.MethodPost, "/api/v1/competitions", `{"name":"Club meet","date":"2025-02-20"}`)
	do(t, s, http.MethodPost, "/api/v1/competitions", `{"name":"Nationals","date":"2025-04-10","type":"national","priority":"high"}`)
	rec = do(t, s, http.MethodPost, "/api/v1/competitions", `{"name":"Odd","date":"2025-04-10","type":"galactic"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/competitions/main", "")
	main := decode[competitionView](t, rec)
	if main.Name != "Nationals" {
		t.Errorf("main = %q, want Nationals", main.Name)
	}
	if main.DaysUntil != 57 {
		t.Errorf("days_until = %d, want 57", main.DaysUntil)
	}

	rec = do(t, s, http.MethodPatch, "/api/v1/competitions/"+main.ID.String(), `{"status":"cancelled"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", rec.Code)
	}
	main = decode[competitionView](t, do(t, s, http.MethodGet, "/api/v1/competitions/main", ""))
	if main.Name != "Club meet" {
		t.Errorf("main after cancel = %q, want Club meet", main.Name)
	}
}

// TestDashboardCache verifies the second dashboard request is served from
// Redis and that an upload invalidates it.
func TestDashboardCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := newFakeBackend()
	s := newTestServer(t, db, func(o *Options) { o.Cache = cache.New(client, time.Minute) })
	do(t, s, http.MethodPost, "/api/v1/sessions", `{"sessions":[{"date":"2025-02-11","distance_m":3000}]}`)

	rec := do(t, s, http.MethodGet, "/api/v1/analytics/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	d := decode[report.Dashboard](t, rec)
	if d.ThisWeek.TotalDistanceM != 3000 {
		t.Errorf("this week = %v, want 3000", d.ThisWeek.TotalDistanceM)
	}

	queries := db.queries
	do(t, s, http.MethodGet, "/api/v1/analytics/dashboard", "")
	if db.queries != queries {
		t.Errorf("cached dashboard hit the database")
	}

	do(t, s, http.MethodPost, "/api/v1/sessions", `{"sessions":[{"date":"2025-02-12","distance_m":1000}]}`)
	d = decode[report.Dashboard](t, do(t, s, http.MethodGet, "/api/v1/analytics/dashboard", ""))
	if d.ThisWeek.TotalDistanceM != 4000 {
		t.Errorf("after upload this week = %v, want 4000", d.ThisWeek.TotalDistanceM)
	}
}

// TestWeekly verifies empty weeks are reported.
func TestWeekly(t *testing.T) {
	s := newTestServer(t, newFakeBackend())
	do(t, s, http.MethodPost, "/api/v1/sessions", `{"sessions":[{"date":"2025-02-03","distance_m":1000}]}`)

	rec := do(t, s, http.MethodGet, "/api/v1/analytics/weekly?start=2025-01-27&end=2025-02-16", "")
	weeks := decode[[]analytics.WeekTotal](t, rec)
	if len(weeks) != 3 {
		t.Fatalf("weeks = %d, want 3", len(weeks))
	}
	if weeks[0].TotalDistanceM != 0 || weeks[1].TotalDistanceM != 1000 || weeks[2].TotalDistanceM != 0 {
		t.Errorf("weeks = %+v", weeks)
	}
}
