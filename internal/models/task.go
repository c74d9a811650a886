package models

import "time"

// Task statuses.
const (
	TaskNotStarted = "Not Started"
	TaskInProgress = "In Progress"
	TaskCompleted  = "Completed"
	TaskCancelled  = "Cancelled"
)

var TaskPriorities = []string{"Low", "Medium", "High"}

// Task is a printable task card that tools are checked out against.
type Task struct {
	ID                string     `gorm:"primaryKey;size:32" json:"id"`
	Title             string     `json:"title"`
	Description       string     `gorm:"type:text" json:"description"`
	Workshop          string     `gorm:"index" json:"workshop"`
	SupervisorID      string     `json:"supervisor_id"`
	AssignedStudentID string     `json:"assigned_student_id"`
	Status            string     `gorm:"index" json:"status"`
	Priority          string     `json:"priority"`
	EstimatedTime     string     `json:"estimated_time"`
	DueDate           *time.Time `json:"due_date"`
	CompletedDate     *time.Time `json:"completed_date"`
	Instructions      string     `gorm:"type:text" json:"instructions"`
	SafetyNotes       string     `gorm:"type:text" json:"safety_notes"`
	Barcode           string     `gorm:"uniqueIndex" json:"barcode"`
	RequiredTools     []TaskTool `gorm:"foreignKey:TaskID" json:"required_tools"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type TaskTool struct {
	TaskID string `gorm:"primaryKey;size:32" json:"task_id"`
	ToolID string `gorm:"primaryKey;size:32" json:"tool_id"`
}

// ToolIDs returns the ids of the tools the task requires.
func (t Task) ToolIDs() []string {
	out := make([]string, 0, len(t.RequiredTools))
	for _, rt := range t.RequiredTools {
		out = append(out, rt.ToolID)
	}
	return out
}
