package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/codegen"
	"github.com/zaqqye/toolcrib/internal/metrics"
	"github.com/zaqqye/toolcrib/internal/middleware"
	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/repository"
	"github.com/zaqqye/toolcrib/internal/workflow"
	"github.com/zaqqye/toolcrib/internal/ws"
)

const assignmentPrefix = "ASG"

// Incident severities accepted on check-in.
var incidentSeverities = []string{"Low", "Medium", "High", "Critical"}

type CheckoutController struct {
	DB    *gorm.DB
	Tools *repository.ToolRepository
	Hubs  *ws.Hubs
}

func NewCheckoutController(db *gorm.DB, hubs *ws.Hubs) *CheckoutController {
	return &CheckoutController{DB: db, Tools: repository.NewToolRepository(db), Hubs: hubs}
}

// httpError carries the status a failed check should answer with.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func statusError(status int, format string, args ...interface{}) error {
	return &httpError{status: status, msg: fmt.Sprintf(format, args...)}
}

func writeError(c *gin.Context, err error) {
	var he *httpError
	switch {
	case errors.As(err, &he):
		c.JSON(he.status, gin.H{"error": he.msg})
	case errors.Is(err, repository.ErrStatusChanged):
		c.JSON(http.StatusConflict, gin.H{"error": "tool status changed, reload and try again"})
	case errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// findTool resolves a scanned code and checks the caller may work with the
// tool's workshop.
func (cc *CheckoutController) findTool(c *gin.Context, code, action string) (*models.Tool, error) {
	tool, err := cc.Tools.FindByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, statusError(http.StatusNotFound, "tool not found")
		}
		return nil, err
	}
	if !access.CanEditTool(middleware.Session(c), tool.Workshop) {
		metrics.AccessDenied.WithLabelValues(action).Inc()
		return nil, statusError(http.StatusForbidden, "you do not have access to this workshop")
	}
	return tool, nil
}

// findSupervisor accepts the badge of an active supervisor or admin.
func (cc *CheckoutController) findSupervisor(badgeID string) (*models.User, error) {
	var sup models.User
	err := cc.DB.Where("badge_id = ? AND active = ?", strings.ToUpper(strings.TrimSpace(badgeID)), true).First(&sup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, statusError(http.StatusBadRequest, "invalid supervisor")
		}
		return nil, err
	}
	if !access.CanSupervise(sup.Session()) {
		return nil, statusError(http.StatusBadRequest, "invalid supervisor")
	}
	return &sup, nil
}

type checkoutRequest struct {
	ToolCode     string     `json:"tool_code" binding:"required"`
	SupervisorID string     `json:"supervisor_id" binding:"required"`
	TaskID       string     `json:"task_id" binding:"required"`
	StudentID    string     `json:"student_id"`
	DueAt        *time.Time `json:"due_at"`
	Notes        string     `json:"notes"`
}

// Checkout hands an available tool to a student against a task. The
// student defaults to the task's assignee and then to the caller.
func (cc *CheckoutController) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, _ := middleware.CurrentUser(c)

	tool, err := cc.findTool(c, req.ToolCode, "checkout")
	if err != nil {
		writeError(c, err)
		return
	}
	if tool.Status != models.ToolStatusAvailable {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("tool is currently %s", tool.Status)})
		return
	}
	sup, err := cc.findSupervisor(req.SupervisorID)
	if err != nil {
		writeError(c, err)
		return
	}

	var task models.Task
	taskCode := strings.TrimSpace(req.TaskID)
	if err := cc.DB.Where("id = ? OR barcode = ?", taskCode, taskCode).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if task.Status == models.TaskCompleted || task.Status == models.TaskCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("task is %s", strings.ToLower(task.Status))})
		return
	}
	if task.Workshop != tool.Workshop {
		c.JSON(http.StatusConflict, gin.H{"error": "task belongs to a different workshop than the tool"})
		return
	}

	studentID := strings.ToUpper(strings.TrimSpace(req.StudentID))
	if studentID == "" {
		studentID = task.AssignedStudentID
	}
	if studentID == "" {
		studentID = user.BadgeID
	}
	var student models.User
	if err := cc.DB.Where("badge_id = ? AND active = ?", studentID, true).First(&student).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student"})
		return
	}

	ctx := c.Request.Context()
	next, err := workflow.Transition(ctx, tool.Status, workflow.EventCheckout)
	if err != nil {
		writeError(c, err)
		return
	}

	taskID := task.ID
	asg := models.Assignment{
		ToolID:            tool.ID,
		Workshop:          tool.Workshop,
		StudentID:         student.BadgeID,
		SupervisorID:      sup.BadgeID,
		TaskID:            &taskID,
		CheckoutAt:        time.Now().UTC(),
		DueAt:             req.DueAt,
		CheckoutCondition: tool.Condition,
		Status:            models.AssignmentActive,
		Notes:             req.Notes,
		CheckedOutBy:      user.BadgeID,
	}
	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := cc.Tools.WithTx(tx).SetStatus(ctx, tool.ID, tool.Status, next); err != nil {
			return err
		}
		if err := createAssignment(tx, &asg); err != nil {
			return err
		}
		if task.Status == models.TaskNotStarted {
			return tx.Model(&task).Update("status", models.TaskInProgress).Error
		}
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}
	tool.Status = next

	metrics.Checkouts.WithLabelValues(tool.Workshop).Inc()
	broadcastToolStatus(cc.Hubs, workflow.EventCheckout, *tool, &asg)
	notifyStudent(cc.Hubs, "checkout", *tool, asg, fmt.Sprintf("%s checked out to you for %s", tool.Name, task.ID))
	c.JSON(http.StatusCreated, gin.H{"assignment": asg, "tool": tool})
}

// createAssignment numbers asg after the highest existing assignment id.
func createAssignment(tx *gorm.DB, asg *models.Assignment) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		var ids []string
		if err = tx.Model(&models.Assignment{}).Where("id LIKE ?", assignmentPrefix+"-%").Pluck("id", &ids).Error; err != nil {
			return err
		}
		asg.ID = codegen.NextSequenceID(assignmentPrefix, ids)
		err = tx.Create(asg).Error
		if err == nil || !repository.IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

type incidentRequest struct {
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type checkinRequest struct {
	ToolCode        string           `json:"tool_code" binding:"required"`
	SupervisorID    string           `json:"supervisor_id" binding:"required"`
	ReturnCondition string           `json:"return_condition" binding:"required"`
	HasIssue        bool             `json:"has_issue"`
	Incident        *incidentRequest `json:"incident"`
	Notes           string           `json:"notes"`
}

// Checkin closes the open assignment on a tool. A reported issue sends the
// tool to maintenance and files an incident report.
func (cc *CheckoutController) Checkin(c *gin.Context) {
	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.IsValidCondition(req.ReturnCondition) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid return_condition"})
		return
	}
	var incident *models.IncidentReport
	if req.HasIssue {
		if req.Incident == nil || strings.TrimSpace(req.Incident.Description) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "incident description is required when reporting an issue"})
			return
		}
		severity := req.Incident.Severity
		if severity == "" {
			severity = "Medium"
		}
		if !slices.Contains(incidentSeverities, severity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident severity"})
			return
		}
		incident = &models.IncidentReport{Severity: severity, Description: strings.TrimSpace(req.Incident.Description)}
	}
	user, _ := middleware.CurrentUser(c)

	tool, err := cc.findTool(c, req.ToolCode, "checkin")
	if err != nil {
		writeError(c, err)
		return
	}
	if tool.Status != models.ToolStatusAssigned {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("tool is currently %s", tool.Status)})
		return
	}
	var asg models.Assignment
	if err := cc.DB.Where("tool_id = ? AND status IN ?", tool.ID, []string{models.AssignmentActive, models.AssignmentOverdue}).
		Order("checkout_at DESC").First(&asg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active assignment found for this tool"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sup, err := cc.findSupervisor(req.SupervisorID)
	if err != nil {
		writeError(c, err)
		return
	}

	event := workflow.EventCheckin
	outcome := "ok"
	if req.HasIssue {
		event = workflow.EventCheckinWithIssue
		outcome = "incident"
	}
	ctx := c.Request.Context()
	next, err := workflow.Transition(ctx, tool.Status, event)
	if err != nil {
		writeError(c, err)
		return
	}

	now := time.Now().UTC()
	asg.Status = models.AssignmentReturned
	asg.ReturnedAt = &now
	asg.ReturnCondition = req.ReturnCondition
	asg.CheckedInBy = user.BadgeID
	if req.Notes != "" {
		asg.Notes = strings.TrimSpace(asg.Notes + "\n" + req.Notes)
	}
	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := cc.Tools.WithTx(tx).SetStatus(ctx, tool.ID, tool.Status, next); err != nil {
			return err
		}
		if err := tx.Model(&models.Tool{}).Where("id = ?", tool.ID).Update("condition", req.ReturnCondition).Error; err != nil {
			return err
		}
		if err := tx.Save(&asg).Error; err != nil {
			return err
		}
		if incident != nil {
			incident.AssignmentID = asg.ID
			incident.ToolID = tool.ID
			incident.ReportedBy = sup.BadgeID
			return tx.Create(incident).Error
		}
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}
	tool.Status = next
	tool.Condition = req.ReturnCondition

	metrics.Checkins.WithLabelValues(tool.Workshop, outcome).Inc()
	broadcastToolStatus(cc.Hubs, event, *tool, &asg)
	notifyStudent(cc.Hubs, "checkin", *tool, asg, fmt.Sprintf("%s returned", tool.Name))
	c.JSON(http.StatusOK, gin.H{"assignment": asg, "tool": tool, "incident": incident})
}

// markOverdue flags active assignments whose due time has passed.
func markOverdue(db *gorm.DB, now time.Time) error {
	return db.Model(&models.Assignment{}).
		Where("status = ? AND due_at IS NOT NULL AND due_at < ?", models.AssignmentActive, now).
		Update("status", models.AssignmentOverdue).Error
}

var assignmentSorts = map[string]string{
	"id":          "id",
	"checkout_at": "checkout_at",
	"due_at":      "due_at",
	"returned_at": "returned_at",
	"tool_id":     "tool_id",
	"status":      "status",
}

// ListAssignments returns assignments in the caller's workshops. Students
// only see their own.
func (cc *CheckoutController) ListAssignments(c *gin.Context) {
	if err := markOverdue(cc.DB, time.Now().UTC()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	user, _ := middleware.CurrentUser(c)
	session := user.Session()
	p := parseListParams(c, "checkout_at")
	sortCol, ok := assignmentSorts[p.SortBy]
	if !ok {
		sortCol = "checkout_at"
		p.SortBy = sortCol
	}
	status := strings.TrimSpace(c.Query("status"))
	toolID := strings.TrimSpace(c.Query("tool_id"))
	studentID := strings.TrimSpace(c.Query("student_id"))

	workshops, all := access.Scope(session)
	filtered := func() *gorm.DB {
		q := cc.DB.Model(&models.Assignment{})
		if !all {
			names := make([]string, 0, len(workshops))
			for _, w := range workshops {
				names = append(names, string(w))
			}
			q = q.Where("workshop IN ?", names)
		}
		if session.Role == access.RoleStudent {
			q = q.Where("student_id = ?", user.BadgeID)
		} else if studentID != "" {
			q = q.Where("student_id = ?", studentID)
		}
		if status != "" {
			q = q.Where("status = ?", status)
		}
		if toolID != "" {
			q = q.Where("tool_id = ?", toolID)
		}
		return q
	}
	if !all && len(workshops) == 0 {
		c.JSON(http.StatusOK, gin.H{"data": []models.Assignment{}, "meta": p.meta(0)})
		return
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	listQ := filtered().Order(fmt.Sprintf("%s %s", sortCol, p.SortDir))
	if !p.All {
		listQ = listQ.Offset((p.Page - 1) * p.Limit).Limit(p.Limit)
	}
	assignments := []models.Assignment{}
	if err := listQ.Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	meta := p.meta(total)
	if status != "" {
		meta["status"] = status
	}
	if toolID != "" {
		meta["tool_id"] = toolID
	}
	c.JSON(http.StatusOK, gin.H{"data": assignments, "meta": meta})
}
