package console

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finsim-app/admin-console/internal/backend"
	"github.com/finsim-app/admin-console/internal/cache"
	"github.com/finsim-app/admin-console/internal/config"
	"github.com/finsim-app/admin-console/internal/db"
	"github.com/finsim-app/admin-console/internal/models"
	"github.com/finsim-app/admin-console/internal/ratelimit"
	"github.com/finsim-app/admin-console/internal/reads"
	"github.com/finsim-app/admin-console/internal/session"
)

// fakeBackend is a scriptable stand-in for the remote FinSim API.
type fakeBackend struct {
	mux       *http.ServeMux
	userHits  atomic.Int64
	users     []models.User
	plans     []models.Plan
	tickets   []models.Ticket
	extendHit atomic.Int64
	replyHit  atomic.Int64
	lastPlan  atomic.Value
}

func newFakeBackend() *fakeBackend {
	fb := &fakeBackend{mux: http.NewServeMux()}

	fb.mux.HandleFunc("/api/v1/admin/login/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"message":      "Login successful",
			"admin":        models.Admin{ID: "a1", Email: "admin@example.com", Role: "admin", IsActive: true},
			"accessToken":  "backend-access",
			"refreshToken": "backend-refresh",
		})
	})
	fb.mux.HandleFunc("/api/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		fb.userHits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "users": fb.users})
	})
	fb.mux.HandleFunc("/api/v1/admin/users/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && len(r.URL.Path) > len("/api/v1/admin/users/") {
			if filepath.Base(r.URL.Path) == "extend" {
				fb.extendHit.Add(1)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success":      true,
					"subscription": models.UserSubscription{PlanID: "p1", IsActive: true},
				})
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "ok"})
	})
	fb.mux.HandleFunc("/api/v1/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var params backend.PlanParams
			_ = json.NewDecoder(r.Body).Decode(&params)
			fb.lastPlan.Store(params)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":      true,
				"subscription": models.Plan{ID: "p9", PlanName: params.PlanName, Duration: params.Duration},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "subscriptions": fb.plans})
	})
	fb.mux.HandleFunc("/api/v1/tickets", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "tickets": fb.tickets})
	})
	fb.mux.HandleFunc("/api/v1/tickets/", func(w http.ResponseWriter, r *http.Request) {
		if filepath.Base(r.URL.Path) == "reply" {
			fb.replyHit.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"ticket":  models.Ticket{TicketID: "T-1", Status: models.TicketStatusReplied},
			})
			return
		}
		id := filepath.Base(r.URL.Path)
		for _, ticket := range fb.tickets {
			if ticket.TicketID == id {
				_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "ticket": ticket})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Ticket not found"})
	})

	return fb
}

func newTestConsole(t *testing.T, fb *fakeBackend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backendSrv := httptest.NewServer(fb.mux)
	t.Cleanup(backendSrv.Close)

	conn, errOpen := db.Open(filepath.Join(t.TempDir(), "console.db"))
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	store := session.NewStore(conn)
	client := backend.NewClient(config.BackendConfig{Origin: backendSrv.URL, ServiceToken: "csrf", Timeout: 5 * time.Second})
	readsSvc := reads.NewService(client, cache.New(nil), config.PollConfig{ListInterval: time.Hour, DetailInterval: time.Hour})
	t.Cleanup(readsSvc.Close)

	r := gin.New()
	limiter := ratelimit.NewManager(config.RedisConfig{})
	RegisterConsoleRoutes(r, conn, store, client, readsSvc, limiter, config.JWTConfig{Secret: "test-secret", Expiry: time.Hour})
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if errEncode := json.NewEncoder(&buf).Encode(body); errEncode != nil {
			t.Fatalf("encode body: %v", errEncode)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, out := doJSON(t, r, http.MethodPost, "/v0/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "secret1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", w.Code, w.Body.String())
	}
	token, _ := out["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}
	return token
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestLogin_IssuesUsableSessionToken(t *testing.T) {
	fb := newFakeBackend()
	fb.users = []models.User{{ID: "u1", Email: "one@example.com", IsActive: true}}
	r := newTestConsole(t, fb)

	token := login(t, r)

	w, out := doJSON(t, r, http.MethodGet, "/v0/users", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("users status %d: %s", w.Code, w.Body.String())
	}
	users, _ := out["users"].([]any)
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	row, _ := users[0].(map[string]any)
	if row["tier"] != models.TierFree {
		t.Fatalf("expected tier %q, got %v", models.TierFree, row["tier"])
	}
}

func TestGuard_RejectsAnonymousAndGarbageTokens(t *testing.T) {
	r := newTestConsole(t, newFakeBackend())

	w, out := doJSON(t, r, http.MethodGet, "/v0/users", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if out["redirect"] != "/login" {
		t.Fatalf("expected login redirect hint, got %v", out["redirect"])
	}

	w, _ = doJSON(t, r, http.MethodGet, "/v0/users", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", w.Code)
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	fb := newFakeBackend()
	r := newTestConsole(t, fb)
	token := login(t, r)

	w, _ := doJSON(t, r, http.MethodPost, "/v0/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout status %d: %s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodGet, "/v0/users", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestUpdateStatus_RefreshesUserList(t *testing.T) {
	fb := newFakeBackend()
	fb.users = []models.User{{ID: "u1", Email: "one@example.com", IsActive: true}}
	r := newTestConsole(t, fb)
	token := login(t, r)

	if w, _ := doJSON(t, r, http.MethodGet, "/v0/users", token, nil); w.Code != http.StatusOK {
		t.Fatalf("users status %d", w.Code)
	}
	waitFor(t, time.Second, func() bool { return fb.userHits.Load() >= 1 })
	time.Sleep(20 * time.Millisecond)
	settled := fb.userHits.Load()

	if w, _ := doJSON(t, r, http.MethodGet, "/v0/users", token, nil); w.Code != http.StatusOK {
		t.Fatalf("users status %d", w.Code)
	}
	if got := fb.userHits.Load(); got != settled {
		t.Fatalf("cached read hit the backend: %d -> %d", settled, got)
	}

	w, _ := doJSON(t, r, http.MethodPut, "/v0/users/u1/status", token, map[string]bool{"isActive": false})
	if w.Code != http.StatusOK {
		t.Fatalf("update status %d: %s", w.Code, w.Body.String())
	}

	// Invalidation pokes the list watch, which re-fetches.
	waitFor(t, time.Second, func() bool { return fb.userHits.Load() > settled })
}

func TestExtend_RefusesFreeUser(t *testing.T) {
	fb := newFakeBackend()
	fb.users = []models.User{{ID: "u1", Email: "one@example.com", IsActive: true}}
	r := newTestConsole(t, fb)
	token := login(t, r)

	w, out := doJSON(t, r, http.MethodPut, "/v0/users/u1/subscription/extend", token, map[string]int{"extraDays": 30})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for free user, got %d: %s", w.Code, w.Body.String())
	}
	if out["error"] != "user has no active subscription" {
		t.Fatalf("unexpected error: %v", out["error"])
	}
	if fb.extendHit.Load() != 0 {
		t.Fatal("extend request reached the backend for a free user")
	}
}

func TestExtend_RejectsUnsupportedDayCount(t *testing.T) {
	fb := newFakeBackend()
	fb.users = []models.User{{
		ID: "u1", Email: "one@example.com", IsActive: true,
		Profile: &models.UserProfile{Subscription: &models.UserSubscription{PlanID: "p1", IsActive: true}},
	}}
	r := newTestConsole(t, fb)
	token := login(t, r)

	w, _ := doJSON(t, r, http.MethodPut, "/v0/users/u1/subscription/extend", token, map[string]int{"extraDays": 45})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for 45 days, got %d: %s", w.Code, w.Body.String())
	}
	if fb.extendHit.Load() != 0 {
		t.Fatal("invalid day count reached the backend")
	}

	w, _ = doJSON(t, r, http.MethodPut, "/v0/users/u1/subscription/extend", token, map[string]int{"extraDays": 90})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for 90 days, got %d: %s", w.Code, w.Body.String())
	}
	if fb.extendHit.Load() != 1 {
		t.Fatalf("expected 1 extend request, got %d", fb.extendHit.Load())
	}
}

func TestReply_RefusesClosedTicket(t *testing.T) {
	closeAt := time.Now()
	fb := newFakeBackend()
	fb.tickets = []models.Ticket{{TicketID: "T-1", Status: models.TicketStatusClosed, CloseAt: &closeAt}}
	r := newTestConsole(t, fb)
	token := login(t, r)

	w, out := doJSON(t, r, http.MethodPut, "/v0/tickets/T-1/reply", token, map[string]string{"reply": "hello"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for closed ticket, got %d: %s", w.Code, w.Body.String())
	}
	if out["error"] != "ticket is closed" {
		t.Fatalf("unexpected error: %v", out["error"])
	}
	if fb.replyHit.Load() != 0 {
		t.Fatal("reply request reached the backend for a closed ticket")
	}
}

func TestReply_StoresReplyForOpenTicket(t *testing.T) {
	fb := newFakeBackend()
	fb.tickets = []models.Ticket{{TicketID: "T-1", Status: models.TicketStatusOpen}}
	r := newTestConsole(t, fb)
	token := login(t, r)

	w, out := doJSON(t, r, http.MethodPut, "/v0/tickets/T-1/reply", token, map[string]string{"reply": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("reply status %d: %s", w.Code, w.Body.String())
	}
	ticket, _ := out["ticket"].(map[string]any)
	if ticket["status"] != models.TicketStatusReplied {
		t.Fatalf("expected replied status, got %v", ticket["status"])
	}
	if fb.replyHit.Load() != 1 {
		t.Fatalf("expected 1 reply request, got %d", fb.replyHit.Load())
	}
}

func TestCreatePlan_AppliesForeverSentinel(t *testing.T) {
	fb := newFakeBackend()
	r := newTestConsole(t, fb)
	token := login(t, r)

	w, _ := doJSON(t, r, http.MethodPost, "/v0/plans", token, map[string]any{
		"planName":         "Lifetime",
		"planType":         models.PlanTypeForever,
		"price":            199.0,
		"duration":         30,
		"simulationsLimit": 100,
		"features":         []string{"Everything"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create plan status %d: %s", w.Code, w.Body.String())
	}

	sent, _ := fb.lastPlan.Load().(backend.PlanParams)
	if sent.Duration != models.ForeverDuration {
		t.Fatalf("expected forever duration %d, got %d", models.ForeverDuration, sent.Duration)
	}
}

func TestOverview_AggregatesCachedLists(t *testing.T) {
	closeAt := time.Now()
	fb := newFakeBackend()
	fb.users = []models.User{
		{ID: "u1", IsActive: true, Profile: &models.UserProfile{Subscription: &models.UserSubscription{IsActive: true}}},
		{ID: "u2", IsActive: false},
	}
	fb.plans = []models.Plan{
		{ID: "p1", PlanName: "Pro", ActivePlan: true},
		{ID: "p2", PlanName: "Legacy"},
	}
	fb.tickets = []models.Ticket{
		{TicketID: "T-1", Status: models.TicketStatusOpen},
		{TicketID: "T-2", Status: models.TicketStatusClosed, CloseAt: &closeAt},
	}
	r := newTestConsole(t, fb)
	token := login(t, r)

	w, out := doJSON(t, r, http.MethodGet, "/v0/overview", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("overview status %d: %s", w.Code, w.Body.String())
	}
	overview, _ := out["overview"].(map[string]any)
	checks := map[string]float64{
		"totalUsers":    2,
		"activeUsers":   1,
		"premiumUsers":  1,
		"freeUsers":     1,
		"totalPlans":    2,
		"activePlans":   1,
		"openTickets":   1,
		"closedTickets": 1,
	}
	for field, want := range checks {
		if got, _ := overview[field].(float64); got != want {
			t.Fatalf("%s: expected %v, got %v", field, want, overview[field])
		}
	}
}

func TestAuthThrottle_CapsLoginAttempts(t *testing.T) {
	fb := newFakeBackend()
	r := newTestConsole(t, fb)

	body := map[string]string{"email": "admin@example.com", "password": "secret1"}
	var last int
	for i := 0; i < maxAuthAttemptsPerMinute+1; i++ {
		w, _ := doJSON(t, r, http.MethodPost, "/v0/auth/login", "", body)
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after %d attempts, got %d", maxAuthAttemptsPerMinute+1, last)
	}
}

func TestHealthz_ReportsOK(t *testing.T) {
	r := newTestConsole(t, newFakeBackend())

	w, out := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status %d", w.Code)
	}
	if out["status"] != "ok" {
		t.Fatalf("unexpected status: %v", out["status"])
	}
}
