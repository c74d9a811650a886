package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/export"
	"github.com/zaqqye/toolcrib/internal/inventory"
	"github.com/zaqqye/toolcrib/internal/metrics"
	"github.com/zaqqye/toolcrib/internal/middleware"
	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/repository"
	"github.com/zaqqye/toolcrib/internal/workflow"
	"github.com/zaqqye/toolcrib/internal/ws"
)

type ToolController struct {
	DB        *gorm.DB
	Tools     *repository.ToolRepository
	Registrar *inventory.Registrar
	Hubs      *ws.Hubs
	Images    *cache.Cache
}

func NewToolController(db *gorm.DB, hubs *ws.Hubs, images *cache.Cache) *ToolController {
	tools := repository.NewToolRepository(db)
	return &ToolController{
		DB:        db,
		Tools:     tools,
		Registrar: inventory.NewRegistrar(repository.NewGormIdentifierStore(db), tools),
		Hubs:      hubs,
		Images:    images,
	}
}

func denied(c *gin.Context, action string) {
	metrics.AccessDenied.WithLabelValues(action).Inc()
	c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this workshop"})
}

// listQuery builds a scoped tool query from the request, or reports false
// after writing a 403 when an explicit workshop filter is out of scope.
func (tc *ToolController) listQuery(c *gin.Context) (repository.ListToolsQuery, listParams, bool) {
	session := middleware.Session(c)
	p := parseListParams(c, "id")
	workshops, all := access.Scope(session)
	q := repository.ListToolsQuery{
		All:      all,
		Workshop: strings.TrimSpace(c.Query("workshop")),
		Status:   strings.TrimSpace(c.Query("status")),
		Q:        strings.TrimSpace(c.Query("q")),
		Limit:    p.Limit,
		Page:     p.Page,
		SortBy:   p.SortBy,
		SortDir:  p.SortDir,
	}
	for _, w := range workshops {
		q.Workshops = append(q.Workshops, string(w))
	}
	if q.Workshop != "" && !access.CanAccessWorkshop(session, q.Workshop) {
		denied(c, "list_tools")
		return q, p, false
	}
	if p.All {
		q.Limit = -1
	}
	return q, p, true
}

func (tc *ToolController) List(c *gin.Context) {
	q, p, ok := tc.listQuery(c)
	if !ok {
		return
	}
	tools, total, err := tc.Tools.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	q.Normalize()
	p.SortBy, p.SortDir = q.SortBy, q.SortDir
	meta := p.meta(total)
	if q.Workshop != "" {
		meta["workshop"] = q.Workshop
	}
	if q.Status != "" {
		meta["status"] = q.Status
	}
	if q.Q != "" {
		meta["q"] = q.Q
	}
	c.JSON(http.StatusOK, gin.H{"data": tools, "meta": meta})
}

// Export streams every tool in the caller's scope as a spreadsheet. The
// list filters apply; pagination does not.
func (tc *ToolController) Export(c *gin.Context) {
	q, _, ok := tc.listQuery(c)
	if !ok {
		return
	}
	q.Limit = -1
	tools, _, err := tc.Tools.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := export.WriteTools(&buf, tools); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	filename := fmt.Sprintf("tools-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (tc *ToolController) PreviewCodes(c *gin.Context) {
	workshop := strings.TrimSpace(c.Query("workshop"))
	preview, err := tc.Registrar.Preview(c.Request.Context(), middleware.Session(c), workshop)
	if err != nil {
		tc.registrarError(c, "preview_codes", err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

type toolRequest struct {
	Name           string         `json:"name"`
	Category       string         `json:"category"`
	Workshop       string         `json:"workshop"`
	Room           string         `json:"room"`
	Shelf          string         `json:"shelf"`
	Row            FlexibleString `json:"row"`
	Section        string         `json:"section"`
	Condition      string         `json:"condition"`
	ImageURL       string         `json:"image_url"`
	Notes          string         `json:"notes"`
	LastInspection *time.Time     `json:"last_inspection"`
	NextInspection *time.Time     `json:"next_inspection"`
}

func (tc *ToolController) registrarError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, inventory.ErrForbidden):
		denied(c, action)
	case errors.Is(err, inventory.ErrInvalidWorkshop):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (tc *ToolController) Create(c *gin.Context) {
	var req toolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.Condition != "" && !models.IsValidCondition(req.Condition) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid condition"})
		return
	}
	user, _ := middleware.CurrentUser(c)
	tool, err := tc.Registrar.Register(c.Request.Context(), user.Session(), user.BadgeID, inventory.RegisterToolRequest{
		Name:           req.Name,
		Category:       req.Category,
		Workshop:       strings.TrimSpace(req.Workshop),
		Room:           req.Room,
		Shelf:          req.Shelf,
		Row:            req.Row.Int(),
		Section:        req.Section,
		Condition:      req.Condition,
		ImageURL:       req.ImageURL,
		Notes:          req.Notes,
		LastInspection: req.LastInspection,
		NextInspection: req.NextInspection,
	})
	if err != nil {
		tc.registrarError(c, "create_tool", err)
		return
	}
	metrics.ToolsRegistered.WithLabelValues(tool.Workshop).Inc()
	broadcastToolStatus(tc.Hubs, "created", *tool, nil)
	c.JSON(http.StatusCreated, tool)
}

// load fetches the tool named by :id and applies the given check, writing
// the error response itself when either fails.
func (tc *ToolController) load(c *gin.Context, action string, check func(access.User, string) bool) (*models.Tool, bool) {
	tool, err := tc.Tools.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tool not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if !check(middleware.Session(c), tool.Workshop) {
		denied(c, action)
		return nil, false
	}
	return tool, true
}

func (tc *ToolController) Get(c *gin.Context) {
	tool, ok := tc.load(c, "get_tool", access.CanAccessWorkshop)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tool)
}

// Access reports what the caller may do with the tool so clients can hide
// controls they would be refused.
func (tc *ToolController) Access(c *gin.Context) {
	tool, err := tc.Tools.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tool not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	session := middleware.Session(c)
	canEdit := access.CanEditTool(session, tool.Workshop)
	events := []string{}
	if canEdit && access.CanSupervise(session) {
		for _, ev := range workflow.AvailableEvents(tool.Status) {
			if workflow.IsManual(ev) {
				events = append(events, ev)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"tool_id":       tool.ID,
		"can_access":    access.CanAccessWorkshop(session, tool.Workshop),
		"can_edit":      canEdit,
		"manual_events": events,
	})
}

// Update edits descriptive fields. Workshop, status and codes are fixed
// here; status only moves through checkout, check-in and Transition.
func (tc *ToolController) Update(c *gin.Context) {
	tool, ok := tc.load(c, "update_tool", access.CanEditTool)
	if !ok {
		return
	}
	var req toolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if w := strings.TrimSpace(req.Workshop); w != "" && w != tool.Workshop {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a tool cannot move to another workshop"})
		return
	}
	if req.Condition != "" {
		if !models.IsValidCondition(req.Condition) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid condition"})
			return
		}
		tool.Condition = req.Condition
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		tool.Name = name
	}
	if req.Category != "" {
		tool.Category = req.Category
	}
	if req.Room != "" {
		tool.Room = req.Room
	}
	if req.Shelf != "" {
		tool.Shelf = req.Shelf
	}
	if req.Row != "" {
		tool.Row = req.Row.Int()
	}
	if req.Section != "" {
		tool.Section = req.Section
	}
	if req.ImageURL != "" {
		tool.ImageURL = req.ImageURL
	}
	if req.Notes != "" {
		tool.Notes = req.Notes
	}
	if req.LastInspection != nil {
		tool.LastInspection = req.LastInspection
	}
	if req.NextInspection != nil {
		tool.NextInspection = req.NextInspection
	}
	if err := tc.Tools.Update(c.Request.Context(), tool); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	broadcastToolStatus(tc.Hubs, "updated", *tool, nil)
	c.JSON(http.StatusOK, tool)
}

// Delete removes a tool that nobody holds. Its identifier stays reserved.
func (tc *ToolController) Delete(c *gin.Context) {
	tool, ok := tc.load(c, "delete_tool", access.CanEditTool)
	if !ok {
		return
	}
	if tool.Status == models.ToolStatusAssigned {
		c.JSON(http.StatusConflict, gin.H{"error": "tool is currently assigned"})
		return
	}
	if err := tc.Tools.Delete(c.Request.Context(), tool.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if tc.Images != nil {
		tc.Images.Delete(tool.Barcode)
	}
	broadcastToolStatus(tc.Hubs, "deleted", *tool, nil)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type transitionRequest struct {
	Event string `json:"event" binding:"required"`
	Notes string `json:"notes"`
}

// Transition fires a manual lifecycle event (repair, report_missing,
// recover). Reporting an assigned tool missing marks its assignment
// overdue; recovering a tool closes any assignment still open on it.
// Notes, when given, replace the notes on that assignment.
func (tc *ToolController) Transition(c *gin.Context) {
	tool, ok := tc.load(c, "transition_tool", access.CanEditTool)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !workflow.IsManual(req.Event) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("event %q cannot be triggered directly", req.Event)})
		return
	}
	ctx := c.Request.Context()
	next, err := workflow.Transition(ctx, tool.Status, req.Event)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	user, _ := middleware.CurrentUser(c)
	from := tool.Status
	err = tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tc.Tools.WithTx(tx).SetStatus(ctx, tool.ID, from, next); err != nil {
			return err
		}
		var changes map[string]interface{}
		switch req.Event {
		case workflow.EventReportMissing:
			changes = map[string]interface{}{"status": models.AssignmentOverdue}
		case workflow.EventRecover:
			now := time.Now().UTC()
			changes = map[string]interface{}{
				"status":        models.AssignmentReturned,
				"returned_at":   &now,
				"checked_in_by": user.BadgeID,
			}
		default:
			return nil
		}
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			changes["notes"] = notes
		}
		return tx.Model(&models.Assignment{}).
			Where("tool_id = ? AND status IN ?", tool.ID, []string{models.AssignmentActive, models.AssignmentOverdue}).
			Updates(changes).Error
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			c.JSON(http.StatusConflict, gin.H{"error": "tool status changed, reload and try again"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	tool.Status = next
	broadcastToolStatus(tc.Hubs, req.Event, *tool, nil)
	c.JSON(http.StatusOK, gin.H{"tool": tool, "from": from, "event": req.Event})
}

func (tc *ToolController) Barcode(c *gin.Context) {
	tool, ok := tc.load(c, "tool_barcode", access.CanAccessWorkshop)
	if !ok {
		return
	}
	writeBarcodePNG(c, tc.Images, tool.Barcode)
}
