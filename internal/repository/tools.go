package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/models"
)

type ToolRepository struct {
	DB *gorm.DB
}

func NewToolRepository(db *gorm.DB) *ToolRepository {
	return &ToolRepository{DB: db}
}

// ListToolsQuery filters a tool listing. When All is false only tools in
// Workshops are returned.
type ListToolsQuery struct {
	All       bool
	Workshops []string
	Workshop  string
	Status    string
	Q         string
	Limit     int
	Page      int
	SortBy    string
	SortDir   string
}

var toolSorts = map[string]string{
	"id":         "id",
	"name":       "name",
	"workshop":   "workshop",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// Normalize fills defaults and rejects unknown sort columns.
func (q *ListToolsQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if _, ok := toolSorts[strings.ToLower(q.SortBy)]; ok {
		q.SortBy = strings.ToLower(q.SortBy)
	} else {
		q.SortBy = "id"
	}
	q.SortDir = strings.ToUpper(q.SortDir)
	if q.SortDir != "ASC" && q.SortDir != "DESC" {
		q.SortDir = "ASC"
	}
}

func (r *ToolRepository) filtered(ctx context.Context, q ListToolsQuery) *gorm.DB {
	base := r.DB.WithContext(ctx).Model(&models.Tool{})
	if !q.All {
		base = base.Where("workshop IN ?", q.Workshops)
	}
	if q.Workshop != "" {
		base = base.Where("workshop = ?", q.Workshop)
	}
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	if q.Q != "" {
		like := "%" + strings.ToLower(q.Q) + "%"
		base = base.Where("(LOWER(name) LIKE ? OR LOWER(id) LIKE ? OR LOWER(category) LIKE ?)", like, like, like)
	}
	return base
}

// List returns one page of tools plus the total matching count. A limit of
// -1 returns every match.
func (r *ToolRepository) List(ctx context.Context, q ListToolsQuery) ([]models.Tool, int64, error) {
	all := q.Limit < 0
	q.Normalize()
	if !q.All && len(q.Workshops) == 0 {
		return []models.Tool{}, 0, nil
	}
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	listQ := r.filtered(ctx, q).Order(fmt.Sprintf("%s %s", toolSorts[q.SortBy], q.SortDir))
	if !all {
		listQ = listQ.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
	}
	var tools []models.Tool
	if err := listQ.Find(&tools).Error; err != nil {
		return nil, 0, err
	}
	return tools, total, nil
}

func (r *ToolRepository) Create(ctx context.Context, tool *models.Tool) error {
	if err := r.DB.WithContext(ctx).Create(tool).Error; err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	return nil
}

func (r *ToolRepository) Get(ctx context.Context, id string) (*models.Tool, error) {
	var tool models.Tool
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&tool).Error; err != nil {
		return nil, notFound(err)
	}
	return &tool, nil
}

// FindByCode looks a tool up by its identifier or its barcode, which is what
// a scanner field may contain.
func (r *ToolRepository) FindByCode(ctx context.Context, code string) (*models.Tool, error) {
	code = strings.TrimSpace(code)
	var tool models.Tool
	if err := r.DB.WithContext(ctx).Where("id = ? OR barcode = ?", code, code).First(&tool).Error; err != nil {
		return nil, notFound(err)
	}
	return &tool, nil
}

// descriptiveColumns are the columns Update may write. Status only moves
// through SetStatus; id, workshop and codes never change after Create.
var descriptiveColumns = []string{
	"name", "category", "room", "shelf", "row", "section", "condition",
	"image_url", "last_inspection", "next_inspection", "notes", "updated_at",
}

// Update writes the descriptive fields of tool and reloads it, so the
// returned status is whatever is stored now rather than what tool was
// loaded with.
func (r *ToolRepository) Update(ctx context.Context, tool *models.Tool) error {
	db := r.DB.WithContext(ctx)
	res := db.Model(&models.Tool{ID: tool.ID}).Select(descriptiveColumns).Updates(tool)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return fmt.Errorf("%w: %v", ErrDuplicate, res.Error)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return db.Where("id = ?", tool.ID).First(tool).Error
}

// SetStatus moves a tool from one status to another. It fails with
// ErrStatusChanged when the stored status is no longer from.
func (r *ToolRepository) SetStatus(ctx context.Context, id, from, to string) error {
	res := r.DB.WithContext(ctx).Model(&models.Tool{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

// AllIDs returns every stored tool id with the given prefix.
func (r *ToolRepository) AllIDs(ctx context.Context, prefix string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&models.Tool{}).Where("id LIKE ?", prefix+"-%").Pluck("id", &ids).Error
	return ids, err
}

func (r *ToolRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Tool{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// WithTx returns a repository bound to tx.
func (r *ToolRepository) WithTx(tx *gorm.DB) *ToolRepository {
	return &ToolRepository{DB: tx}
}
