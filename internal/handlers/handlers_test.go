package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"learnhub/gateway/internal/catalog"
	"learnhub/gateway/internal/config"
	"learnhub/gateway/internal/session"
	"learnhub/gateway/internal/upstream"
)

const cookieName = "learnhub_session"

// issueAccessToken mimics the platform's token issuer. The gateway never
// verifies the signature, only the payload.
func issueAccessToken(t *testing.T, admin bool, expiresAt time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "user-1",
		"email":    "student@example.com",
		"is_admin": admin,
		"exp":      expiresAt.Unix(),
	}).SignedString([]byte("platform-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// fakePlatform is a stand-in for the remote learning-platform API.
// Individual tests can shadow an endpoint through overrides.
type fakePlatform struct {
	mux       *http.ServeMux
	overrides map[string]http.HandlerFunc
	requests  atomic.Int64
	access    string
}

func newFakePlatform(t *testing.T, accessToken string) *fakePlatform {
	p := &fakePlatform{
		mux:       http.NewServeMux(),
		overrides: make(map[string]http.HandlerFunc),
		access:    accessToken,
	}

	p.mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("username") == "" {
			http.Error(w, `{"detail":"invalid form"}`, http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("password") != "secret" {
			http.Error(w, `{"detail":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, `{"access_token":"`+p.access+`","refresh_token":"rt-1","token_type":"bearer"}`)
	})
	p.mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		fresh := issueAccessToken(t, true, time.Now().Add(time.Hour))
		writeJSON(w, `{"access_token":"`+fresh+`","refresh_token":"rt-2","token_type":"bearer"}`)
	})
	p.mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"user-1","email":"student@example.com","full_name":"Student","is_admin":false}`)
	})
	p.mux.HandleFunc("GET /courses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"courses":[{"id":"course-1","title":"Go Basics","price_cents":4900,"like_count":3}]}`)
	})
	p.mux.HandleFunc("POST /courses/course-1/purchase", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"course-1","title":"Go Basics","price_cents":4900,"like_count":3,"purchased":true}`)
	})
	p.mux.HandleFunc("POST /courses/course-1/like", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"liked":true,"like_count":4}`)
	})
	p.mux.HandleFunc("GET /wallet/balance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"balance_cents":12500}`)
	})
	p.mux.HandleFunc("GET /wallet/transactions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"transactions":[{"id":"tx-1","type":"deposit","status":"completed","amount_cents":10000,"reference":"ref-1"}]}`)
	})
	p.mux.HandleFunc("POST /wallet/deposits", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"reference":"ref-2","payment_url":"https://pay.example.com/ref-2","status":"pending"}`)
	})
	p.mux.HandleFunc("POST /wallet/deposits/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"tx-2","type":"deposit","status":"completed","amount_cents":5000,"reference":"ref-2"}`)
	})
	p.mux.HandleFunc("GET /admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"users":[{"id":"user-1","email":"student@example.com","is_admin":false}]}`)
	})

	return p
}

func (p *fakePlatform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.requests.Add(1)
	if handler, ok := p.overrides[r.Method+" "+r.URL.Path]; ok {
		handler(w, r)
		return
	}
	p.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, body)
}

type testGateway struct {
	engine   *gin.Engine
	platform *fakePlatform
	sessions session.Store
}

func newTestGateway(t *testing.T, platform http.Handler) *testGateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(platform)
	t.Cleanup(server.Close)

	cfg := &config.AppConfig{
		Environment: "test",
		Upstream: config.UpstreamConfig{
			BaseURL: server.URL,
			Timeout: 5 * time.Second,
		},
		Session: config.SessionConfig{
			CookieName: cookieName,
			TTL:        time.Hour,
		},
	}

	api := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, zerolog.Nop())
	sessions := session.NewMemoryStore(cfg.Session.TTL)
	courseCatalog := catalog.New(catalog.NewMemoryCache(time.Minute), api, zerolog.Nop())

	engine := gin.New()
	NewHandlerSet(zerolog.Nop(), cfg, api, sessions, courseCatalog).Register(engine.Group("/api"))

	gw := &testGateway{engine: engine, sessions: sessions}
	if fp, ok := platform.(*fakePlatform); ok {
		gw.platform = fp
	}
	return gw
}

func (g *testGateway) do(method, path, body, sessionID string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	g.engine.ServeHTTP(rec, req)
	return rec
}

func (g *testGateway) signIn(t *testing.T) string {
	t.Helper()
	rec := g.do(http.MethodPost, "/api/v1/auth/login", `{"email":"student@example.com","password":"secret"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", rec.Code, rec.Body.String())
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == cookieName && cookie.Value != "" {
			return cookie.Value
		}
	}
	t.Fatal("login did not set a session cookie")
	return ""
}

func TestLoginSetsSessionAndReturnsProfile(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)

	sessionID := gw.signIn(t)

	token, err := gw.sessions.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("expected cached token: %v", err)
	}
	if token.RefreshToken != "rt-1" || token.Admin {
		t.Fatalf("unexpected cached token %+v", token)
	}

	rec := gw.do(http.MethodGet, "/api/v1/users/me", "", sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("me failed with %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "student@example.com") {
		t.Fatalf("expected profile in response, got %s", rec.Body.String())
	}
}

func TestLoginValidationBlocksSubmission(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)

	rec := gw.do(http.MethodPost, "/api/v1/auth/login", `{"email":"not-an-email","password":"secret"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if platform.requests.Load() != 0 {
		t.Fatal("validation failure must not reach the platform")
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)

	rec := gw.do(http.MethodPost, "/api/v1/auth/login", `{"email":"student@example.com","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "invalid_credentials") {
		t.Fatalf("expected rejected-credentials notice, got %s", body)
	}
	// There is no session to expire before the first sign-in.
	if strings.Contains(body, "session_expired") {
		t.Fatalf("failed login must not read as an expired session: %s", body)
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == cookieName {
			t.Fatalf("failed login must not touch the session cookie: %v", cookie)
		}
	}
}

func TestMutatingActionWithoutSession(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)

	rec := gw.do(http.MethodPost, "/api/v1/courses/course-1/purchase", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "authentication_required") {
		t.Fatalf("expected restricted-action notice, got %s", rec.Body.String())
	}
	if platform.requests.Load() != 0 {
		t.Fatal("gated action must not reach the platform without a session")
	}
}

func TestWalletCombinedView(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)
	sessionID := gw.signIn(t)

	rec := gw.do(http.MethodGet, "/api/v1/wallet", "", sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("wallet failed with %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"balance_cents":12500`) || !strings.Contains(body, `"ref-1"`) {
		t.Fatalf("expected combined balance and ledger, got %s", body)
	}
}

func TestDepositValidationRejectsNonPositiveAmount(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)
	sessionID := gw.signIn(t)
	before := platform.requests.Load()

	rec := gw.do(http.MethodPost, "/api/v1/wallet/deposits", `{"amount_cents":0}`, sessionID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if platform.requests.Load() != before {
		t.Fatal("invalid deposit must not reach the platform")
	}
}

func TestDepositVerifyRefetchesWallet(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)
	sessionID := gw.signIn(t)

	rec := gw.do(http.MethodPost, "/api/v1/wallet/deposits", `{"amount_cents":5000}`, sessionID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("initiate failed with %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "payment_url") {
		t.Fatalf("expected payment url, got %s", rec.Body.String())
	}
	// Initiating is a mutation too: the response must carry the refetched
	// wallet alongside the pending deposit.
	if body := rec.Body.String(); !strings.Contains(body, `"wallet"`) || !strings.Contains(body, `"balance_cents":12500`) {
		t.Fatalf("expected refetched wallet with initiated deposit, got %s", body)
	}

	rec = gw.do(http.MethodPost, "/api/v1/wallet/deposits/verify", `{"reference":"ref-2"}`, sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify failed with %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"transaction"`) || !strings.Contains(body, `"wallet"`) {
		t.Fatalf("expected settled transaction plus refetched wallet, got %s", body)
	}
}

func TestPurchaseReturnsRefetchedWallet(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)
	sessionID := gw.signIn(t)

	rec := gw.do(http.MethodPost, "/api/v1/courses/course-1/purchase", "", sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("purchase failed with %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"purchased":true`) || !strings.Contains(body, `"balance_cents":12500`) {
		t.Fatalf("expected course and wallet in response, got %s", body)
	}
}

func TestLikePatchesCachedCatalog(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)
	sessionID := gw.signIn(t)

	// Warm the signed-in view, then like.
	if rec := gw.do(http.MethodGet, "/api/v1/courses", "", sessionID); rec.Code != http.StatusOK {
		t.Fatalf("list failed with %d", rec.Code)
	}
	rec := gw.do(http.MethodPost, "/api/v1/courses/course-1/like", "", sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("like failed with %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"like_count":4`) {
		t.Fatalf("expected updated like count, got %s", rec.Body.String())
	}

	rec = gw.do(http.MethodGet, "/api/v1/courses", "", sessionID)
	if !strings.Contains(rec.Body.String(), `"like_count":4`) {
		t.Fatalf("expected optimistically patched listing, got %s", rec.Body.String())
	}
}

func TestUpstreamUnauthorizedForcesLogout(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	platform.overrides["GET /wallet/balance"] = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"token revoked"}`, http.StatusUnauthorized)
	}
	gw := newTestGateway(t, platform)
	sessionID := gw.signIn(t)

	rec := gw.do(http.MethodGet, "/api/v1/wallet", "", sessionID)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "session_expired") {
		t.Fatalf("expected forced logout notice, got %s", rec.Body.String())
	}
	if _, err := gw.sessions.Get(context.Background(), sessionID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected purged session after upstream 401, got %v", err)
	}
}

func TestAdminGate(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)
	memberID := gw.signIn(t)

	if rec := gw.do(http.MethodGet, "/api/v1/admin/users", "", memberID); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	adminPlatform := newFakePlatform(t, issueAccessToken(t, true, time.Now().Add(time.Hour)))
	adminGw := newTestGateway(t, adminPlatform)
	adminID := adminGw.signIn(t)

	rec := adminGw.do(http.MethodGet, "/api/v1/admin/users", "", adminID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"users"`) {
		t.Fatalf("expected user listing, got %s", rec.Body.String())
	}
}

func TestRefreshRederivesClaims(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)
	sessionID := gw.signIn(t)

	rec := gw.do(http.MethodPost, "/api/v1/auth/refresh", "", sessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed with %d: %s", rec.Code, rec.Body.String())
	}

	token, err := gw.sessions.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("expected cached token after refresh: %v", err)
	}
	if token.RefreshToken != "rt-2" {
		t.Fatalf("expected rotated refresh token, got %s", token.RefreshToken)
	}
	if !token.Admin {
		t.Fatal("admin claim must be re-derived from the replaced token")
	}
}

func TestLogoutPurgesSession(t *testing.T) {
	platform := newFakePlatform(t, issueAccessToken(t, false, time.Now().Add(time.Hour)))
	gw := newTestGateway(t, platform)
	sessionID := gw.signIn(t)

	rec := gw.do(http.MethodPost, "/api/v1/auth/logout", "", sessionID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout failed with %d", rec.Code)
	}
	if _, err := gw.sessions.Get(context.Background(), sessionID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected purged session after logout, got %v", err)
	}

	if rec := gw.do(http.MethodGet, "/api/v1/wallet", "", sessionID); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}
