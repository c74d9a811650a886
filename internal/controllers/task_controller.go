package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/codegen"
	"github.com/zaqqye/toolcrib/internal/metrics"
	"github.com/zaqqye/toolcrib/internal/middleware"
	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/repository"
)

const taskPrefix = "TSK"

type TaskController struct {
	DB     *gorm.DB
	Images *cache.Cache
	Codes  *codegen.Generator
}

func NewTaskController(db *gorm.DB, images *cache.Cache) *TaskController {
	return &TaskController{DB: db, Images: images, Codes: codegen.NewGenerator()}
}

var taskSorts = map[string]string{
	"id":         "id",
	"title":      "title",
	"status":     "status",
	"priority":   "priority",
	"due_date":   "due_date",
	"created_at": "created_at",
}

func (tc *TaskController) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	session := user.Session()
	p := parseListParams(c, "id")
	sortCol, ok := taskSorts[p.SortBy]
	if !ok {
		sortCol = "id"
		p.SortBy = sortCol
	}
	status := strings.TrimSpace(c.Query("status"))
	workshop := strings.TrimSpace(c.Query("workshop"))
	if workshop != "" && !access.CanAccessWorkshop(session, workshop) {
		denied(c, "list_tasks")
		return
	}

	workshops, all := access.Scope(session)
	if !all && len(workshops) == 0 {
		c.JSON(http.StatusOK, gin.H{"data": []models.Task{}, "meta": p.meta(0)})
		return
	}
	filtered := func() *gorm.DB {
		q := tc.DB.Model(&models.Task{})
		if !all {
			names := make([]string, 0, len(workshops))
			for _, w := range workshops {
				names = append(names, string(w))
			}
			q = q.Where("workshop IN ?", names)
		}
		if workshop != "" {
			q = q.Where("workshop = ?", workshop)
		}
		if status != "" {
			q = q.Where("status = ?", status)
		}
		if c.Query("mine") == "true" {
			q = q.Where("assigned_student_id = ? OR supervisor_id = ?", user.BadgeID, user.BadgeID)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	listQ := filtered().Preload("RequiredTools").Order(fmt.Sprintf("%s %s", sortCol, p.SortDir))
	if !p.All {
		listQ = listQ.Offset((p.Page - 1) * p.Limit).Limit(p.Limit)
	}
	tasks := []models.Task{}
	if err := listQ.Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks, "meta": p.meta(total)})
}

type createTaskRequest struct {
	Title             string     `json:"title" binding:"required"`
	Description       string     `json:"description"`
	Workshop          string     `json:"workshop" binding:"required"`
	AssignedStudentID string     `json:"assigned_student_id"`
	Priority          string     `json:"priority"`
	EstimatedTime     string     `json:"estimated_time"`
	DueDate           *time.Time `json:"due_date"`
	Instructions      string     `json:"instructions"`
	SafetyNotes       string     `json:"safety_notes"`
	RequiredTools     []string   `json:"required_tools"`
}

// Create opens a task card in the supervisor's workshop. Required tools must
// belong to the same workshop.
func (tc *TaskController) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, _ := middleware.CurrentUser(c)
	if !IsValidToolWorkshop(req.Workshop) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workshop"})
		return
	}
	if !access.CanEditTool(user.Session(), req.Workshop) {
		denied(c, "create_task")
		return
	}
	priority := req.Priority
	if priority == "" {
		priority = "Medium"
	}
	if !slices.Contains(models.TaskPriorities, priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
		return
	}
	if req.AssignedStudentID != "" {
		var student models.User
		if err := tc.DB.Where("badge_id = ? AND active = ?", req.AssignedStudentID, true).First(&student).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "assigned student not found"})
			return
		}
	}
	required := make([]models.TaskTool, 0, len(req.RequiredTools))
	if len(req.RequiredTools) > 0 {
		var tools []models.Tool
		if err := tc.DB.Where("id IN ?", req.RequiredTools).Find(&tools).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		found := make(map[string]string, len(tools))
		for _, t := range tools {
			found[t.ID] = t.Workshop
		}
		for _, id := range req.RequiredTools {
			w, ok := found[id]
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("tool %s not found", id)})
				return
			}
			if w != req.Workshop {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("tool %s belongs to %s", id, w)})
				return
			}
			if !slices.ContainsFunc(required, func(tt models.TaskTool) bool { return tt.ToolID == id }) {
				required = append(required, models.TaskTool{ToolID: id})
			}
		}
	}

	task := models.Task{
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		Workshop:          req.Workshop,
		SupervisorID:      user.BadgeID,
		AssignedStudentID: req.AssignedStudentID,
		Status:            models.TaskNotStarted,
		Priority:          priority,
		EstimatedTime:     req.EstimatedTime,
		DueDate:           req.DueDate,
		Instructions:      req.Instructions,
		SafetyNotes:       req.SafetyNotes,
		Barcode:           tc.Codes.GenerateBarcode(req.Workshop),
		RequiredTools:     required,
	}
	// A unique violation may come from the id or the barcode, so every
	// retry takes a fresh sequence and a fresh barcode.
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			task.Barcode = tc.Codes.GenerateBarcode(req.Workshop)
		}
		var ids []string
		if err = tc.DB.Model(&models.Task{}).Where("id LIKE ?", taskPrefix+"-%").Pluck("id", &ids).Error; err != nil {
			break
		}
		task.ID = codegen.NextSequenceID(taskPrefix, ids)
		for i := range task.RequiredTools {
			task.RequiredTools[i].TaskID = task.ID
		}
		err = tc.DB.Create(&task).Error
		if err == nil || !repository.IsUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (tc *TaskController) load(c *gin.Context) (*models.Task, bool) {
	var task models.Task
	if err := tc.DB.Preload("RequiredTools").Where("id = ?", c.Param("id")).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if !access.CanAccessWorkshop(middleware.Session(c), task.Workshop) {
		metrics.AccessDenied.WithLabelValues("get_task").Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this workshop"})
		return nil, false
	}
	return &task, true
}

func (tc *TaskController) Get(c *gin.Context) {
	task, ok := tc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, task)
}

func (tc *TaskController) Barcode(c *gin.Context) {
	task, ok := tc.load(c)
	if !ok {
		return
	}
	writeBarcodePNG(c, tc.Images, task.Barcode)
}
