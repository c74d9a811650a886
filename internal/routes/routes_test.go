package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/toolcrib/internal/config"
	"github.com/zaqqye/toolcrib/internal/database"
	"github.com/zaqqye/toolcrib/internal/ws"
)

func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Load()
	cfg.JWTSecret = "routes-test"
	cfg.RefreshJWTSecret = "routes-test-refresh"
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.SeedAdmin(db, cfg); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := database.SeedDemoData(db); err != nil {
		t.Fatalf("seed demo: %v", err)
	}
	hubs := ws.NewHubs()
	hubs.Run()
	r := gin.New()
	Register(r, db, cfg, hubs)
	return r
}

func serve(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine, ident string) string {
	t.Helper()
	w := serve(r, http.MethodPost, "/api/v1/auth/login", "", `{"identifier":"`+ident+`","password":"password123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", ident, w.Code, w.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out.AccessToken
}

func TestPublicEndpoints(t *testing.T) {
	r := newServer(t)
	if w := serve(r, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/api/v1/config/public", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"prefix":"AVT"`) {
		t.Fatalf("config: %d %s", w.Code, w.Body.String())
	}
	if w := serve(r, http.MethodGet, "/metrics", "", ""); w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/tools", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("tools without token: expected 401, got %d", w.Code)
	}
}

func TestRoleGates(t *testing.T) {
	r := newServer(t)
	student := login(t, r, "john.smith")
	supervisor := login(t, r, "sarah.chen")

	if w := serve(r, http.MethodGet, "/api/v1/admin/users", supervisor, ""); w.Code != http.StatusForbidden {
		t.Fatalf("supervisor on admin: expected 403, got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/api/v1/tasks", student, `{"title":"x","workshop":"Aviation"}`); w.Code != http.StatusForbidden {
		t.Fatalf("student creating task: expected 403, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/tools/AVT-001", supervisor, ""); w.Code != http.StatusForbidden {
		t.Fatalf("mechanical supervisor on aviation tool: expected 403, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/tools/AVT-001", student, ""); w.Code != http.StatusOK {
		t.Fatalf("aviation student on aviation tool: expected 200, got %d", w.Code)
	}
}
