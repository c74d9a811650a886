package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment statuses.
const (
	AssignmentActive   = "Active"
	AssignmentReturned = "Returned"
	AssignmentOverdue  = "Overdue"
)

// Assignment is one checkout of a tool. Student, supervisor and task are
// referenced by their printed codes.
type Assignment struct {
	ID                string     `gorm:"primaryKey;size:32" json:"id"`
	ToolID            string     `gorm:"index" json:"tool_id"`
	Workshop          string     `gorm:"index" json:"workshop"`
	StudentID         string     `gorm:"index" json:"student_id"`
	SupervisorID      string     `json:"supervisor_id"`
	TaskID            *string    `gorm:"index" json:"task_id"`
	CheckoutAt        time.Time  `json:"checkout_at"`
	DueAt             *time.Time `json:"due_at"`
	ReturnedAt        *time.Time `json:"returned_at"`
	CheckoutCondition string     `json:"checkout_condition"`
	ReturnCondition   string     `json:"return_condition"`
	Status            string     `gorm:"index" json:"status"`
	Notes             string     `gorm:"type:text" json:"notes"`
	CheckedOutBy      string     `json:"checked_out_by"`
	CheckedInBy       string     `json:"checked_in_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type IncidentReport struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID string    `gorm:"index" json:"assignment_id"`
	ToolID       string    `gorm:"index" json:"tool_id"`
	Severity     string    `json:"severity"`
	Description  string    `gorm:"type:text" json:"description"`
	ReportedBy   string    `json:"reported_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *IncidentReport) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
