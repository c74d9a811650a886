package models

import "time"

// Tool statuses.
const (
	ToolStatusAvailable        = "Available"
	ToolStatusAssigned         = "Assigned"
	ToolStatusUnderMaintenance = "Under Maintenance"
	ToolStatusMissing          = "Missing"
)

// Tool conditions.
const (
	ConditionExcellent = "Excellent"
	ConditionGood      = "Good"
	ConditionFair      = "Fair"
	ConditionPoor      = "Poor"
)

var ToolStatuses = []string{ToolStatusAvailable, ToolStatusAssigned, ToolStatusUnderMaintenance, ToolStatusMissing}

var ToolConditions = []string{ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor}

var ToolCategories = []string{
	"Hand Tools",
	"Power Tools",
	"Electrical Testing",
	"Testing Equipment",
	"Measurement",
	"Heavy Equipment",
	"Machinery",
	"Cutting Tools",
	"Assembly Tools",
	"Inspection Tools",
	"Safety Equipment",
}

type Tool struct {
	ID             string     `gorm:"primaryKey;size:32" json:"id"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Workshop       string     `gorm:"index" json:"workshop"`
	Status         string     `gorm:"index" json:"status"`
	Room           string     `json:"room"`
	Shelf          string     `json:"shelf"`
	Row            int        `json:"row"`
	Section        string     `json:"section"`
	QRCode         string     `json:"qr_code"`
	Barcode        string     `gorm:"uniqueIndex" json:"barcode"`
	Condition      string     `json:"condition"`
	ImageURL       string     `json:"image_url"`
	LastInspection *time.Time `json:"last_inspection"`
	NextInspection *time.Time `json:"next_inspection"`
	Notes          string     `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToolIdentifier records an identifier once it has been handed out, so a
// concurrent registration cannot reuse it.
type ToolIdentifier struct {
	ID         string `gorm:"primaryKey;size:32"`
	Workshop   string `gorm:"index"`
	ReservedBy string
	CreatedAt  time.Time
}

func IsValidCondition(s string) bool {
	for _, c := range ToolConditions {
		if c == s {
			return true
		}
	}
	return false
}
