package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/database"
	"github.com/zaqqye/toolcrib/internal/middleware"
	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/ws"
)

type fixture struct {
	db     *gorm.DB
	r      *gin.Engine
	images *cache.Cache
	tasks  *TaskController
}

// newFixture serves the controllers over the demo data set. Requests pick
// their user with the X-Badge header instead of a token.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.SeedDemoData(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	admin := models.User{BadgeID: "ADM-001", Username: "admin", Email: "admin@example.com", Role: "Admin", Workshop: "All", Active: true}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("admin: %v", err)
	}

	hubs := ws.NewHubs()
	hubs.Run()
	images := NewImageCache(time.Minute)
	tools := NewToolController(db, hubs, images)
	checkouts := NewCheckoutController(db, hubs)
	tasks := NewTaskController(db, images)
	admins := &AdminController{DB: db}

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		var u models.User
		if err := db.Where("badge_id = ?", c.GetHeader("X-Badge")).First(&u).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		middleware.SetUser(c, u)
		c.Next()
	})
	api.GET("/tools", tools.List)
	api.GET("/tools/export.xlsx", tools.Export)
	api.GET("/tools/codes/preview", tools.PreviewCodes)
	api.POST("/tools", tools.Create)
	api.GET("/tools/:id", tools.Get)
	api.PUT("/tools/:id", tools.Update)
	api.DELETE("/tools/:id", tools.Delete)
	api.GET("/tools/:id/access", tools.Access)
	api.GET("/tools/:id/barcode.png", tools.Barcode)
	api.POST("/tools/:id/transition", middleware.Require(access.CanSupervise), tools.Transition)
	api.POST("/checkouts", checkouts.Checkout)
	api.POST("/checkins", checkouts.Checkin)
	api.GET("/assignments", checkouts.ListAssignments)
	api.GET("/tasks", tasks.List)
	api.POST("/tasks", middleware.Require(access.CanSupervise), tasks.Create)
	api.GET("/tasks/:id", tasks.Get)
	api.POST("/admin/users", admins.CreateUser)
	api.POST("/admin/users/import", admins.ImportUsers)
	api.GET("/admin/users", admins.ListUsers)
	api.GET("/admin/users/:user_id", admins.GetUser)
	api.PUT("/admin/users/:user_id", admins.UpdateUser)
	api.DELETE("/admin/users/:user_id", admins.DeleteUser)

	return &fixture{db: db, r: r, images: images, tasks: tasks}
}

func (f *fixture) do(t *testing.T, method, path, badge string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Badge", badge)
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func (f *fixture) tool(t *testing.T, id string) models.Tool {
	t.Helper()
	var tool models.Tool
	if err := f.db.Where("id = ?", id).First(&tool).Error; err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return tool
}
