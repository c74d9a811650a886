package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/toolcrib/internal/database"
	"github.com/zaqqye/toolcrib/internal/middleware"
)

func authEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.SeedDemoData(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a := &AuthController{DB: db, AccessSecret: "a", RefreshSecret: "r", AccessTTL: time.Minute, RefreshTTL: time.Hour}
	r := gin.New()
	r.POST("/login", a.Login)
	r.POST("/refresh", a.Refresh)
	r.GET("/me", middleware.AuthMiddleware(db, middleware.AuthConfig{JWTSecret: "a"}), a.Me)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginRefreshAndMe(t *testing.T) {
	r := authEngine(t)

	if w := post(r, "/login", `{"identifier":"sarah.chen","password":"wrong"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", w.Code)
	}
	for _, ident := range []string{"sarah.chen", "sarah.chen@company.com", "sup-002"} {
		if w := post(r, "/login", `{"identifier":"`+ident+`","password":"password123"}`); w.Code != http.StatusOK {
			t.Fatalf("login as %s: %d %s", ident, w.Code, w.Body.String())
		}
	}

	w := post(r, "/login", `{"identifier":"sarah.chen","password":"password123"}`)
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decode(t, w, &tokens)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	me := httptest.NewRecorder()
	r.ServeHTTP(me, req)
	var profile map[string]interface{}
	decode(t, me, &profile)
	if profile["badge_id"] != "SUP-002" || profile["workshop"] != "Mechanical" {
		t.Fatalf("unexpected profile %v", profile)
	}

	old := tokens.RefreshToken
	w = post(r, "/refresh", `{"refresh_token":"`+old+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", w.Code, w.Body.String())
	}
	decode(t, w, &tokens)
	if tokens.RefreshToken == old {
		t.Fatalf("refresh token was not rotated")
	}
	if w := post(r, "/refresh", `{"refresh_token":"`+old+`"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: expected 401, got %d", w.Code)
	}
}
