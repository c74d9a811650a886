package database

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/config"
	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/utils"
)

func SeedAdmin(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", string(access.RoleAdmin)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := cfg.AdminEmail
	if email == "" {
		email = "admin@example.com"
	}
	fullName := cfg.AdminFullName
	if fullName == "" {
		fullName = "Administrator"
	}
	password := cfg.AdminPassword
	if password == "" {
		password = "admin123"
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		BadgeID:  "ADM-001",
		Username: "admin",
		FullName: fullName,
		Email:    email,
		Password: hashed,
		Role:     string(access.RoleAdmin),
		Workshop: string(access.WorkshopAll),
		Active:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Println("Seeded initial admin:", email)
	return nil
}

const demoPassword = "password123"

// SeedDemoData loads the workshop fixtures used for demos. It does nothing
// once any tool exists.
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Tool{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hashed, err := utils.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	users := []models.User{
		{BadgeID: "STF-001", Username: "john.smith", FullName: "John Smith", Email: "john.smith@company.com", Role: "Student", Workshop: "Aviation", Department: "Maintenance"},
		{BadgeID: "STF-002", Username: "sarah.johnson", FullName: "Sarah Johnson", Email: "sarah.johnson@company.com", Role: "Student", Workshop: "Mechanical", Department: "Maintenance"},
		{BadgeID: "STF-003", Username: "robert.garcia", FullName: "Robert Garcia", Email: "robert.garcia@company.com", Role: "Student", Workshop: "Electrical", Department: "Electrical"},
		{BadgeID: "SUP-001", Username: "john.doe", FullName: "John Doe", Email: "john.doe@company.com", Role: "Supervisor", Workshop: "Aviation", Department: "Aviation Lab"},
		{BadgeID: "SUP-002", Username: "sarah.chen", FullName: "Sarah Chen", Email: "sarah.chen@company.com", Role: "Supervisor", Workshop: "Mechanical", Department: "Mechanical Lab"},
		{BadgeID: "SUP-003", Username: "david.wilson", FullName: "David Wilson", Email: "david.wilson@company.com", Role: "Supervisor", Workshop: "Electrical", Department: "Electrical Lab"},
	}

	tools := []models.Tool{
		{ID: "AVT-001", Name: `Torque Wrench 3/8"`, Category: "Hand Tools", Workshop: "Aviation", Status: models.ToolStatusAssigned, Room: "Hangar A", Shelf: "SHELF-01", Row: 1, Section: "SEC-03", Condition: models.ConditionExcellent},
		{ID: "AVT-002", Name: "Digital Multimeter", Category: "Electrical Testing", Workshop: "Aviation", Status: models.ToolStatusAvailable, Room: "Hangar A", Shelf: "SHELF-02", Row: 2, Section: "SEC-01", Condition: models.ConditionGood},
		{ID: "AVT-003", Name: "Rivet Gun Kit", Category: "Power Tools", Workshop: "Aviation", Status: models.ToolStatusUnderMaintenance, Room: "Hangar A", Shelf: "SHELF-03", Row: 1, Condition: models.ConditionFair},
		{ID: "MCH-001", Name: "Hydraulic Press 20T", Category: "Heavy Equipment", Workshop: "Mechanical", Status: models.ToolStatusAvailable, Room: "Workshop B", Shelf: "BAY-01", Row: 1, Condition: models.ConditionGood},
		{ID: "MCH-002", Name: `Socket Set 1/2" Drive`, Category: "Hand Tools", Workshop: "Mechanical", Status: models.ToolStatusAssigned, Room: "Workshop B", Shelf: "SHELF-04", Row: 2, Condition: models.ConditionExcellent},
		{ID: "ELC-001", Name: "Oscilloscope 100MHz", Category: "Testing Equipment", Workshop: "Electrical", Status: models.ToolStatusAvailable, Room: "Lab C", Shelf: "SHELF-01", Row: 1, Condition: models.ConditionExcellent},
		{ID: "ELC-002", Name: "Cable Crimping Tool", Category: "Hand Tools", Workshop: "Electrical", Status: models.ToolStatusAvailable, Room: "Lab C", Shelf: "SHELF-02", Row: 3, Condition: models.ConditionGood},
	}
	for i := range tools {
		// Fixture codes follow the legacy printed-label format.
		tools[i].Barcode = "BC-" + tools[i].ID
		tools[i].QRCode = "QR-" + tools[i].ID
	}

	due := time.Now().UTC().Add(48 * time.Hour)
	tasks := []models.Task{
		{ID: "TSK-001", Title: "Aircraft Maintenance Task", Description: "Perform routine maintenance on aircraft.", Workshop: "Aviation", SupervisorID: "SUP-001", AssignedStudentID: "STF-001", Status: models.TaskInProgress, Priority: "High", EstimatedTime: "2 hours", DueDate: &due, Instructions: "Follow the maintenance checklist provided.", SafetyNotes: "Wear safety goggles and gloves.", Barcode: "TSK-001", RequiredTools: []models.TaskTool{{ToolID: "AVT-001"}}},
		{ID: "TSK-002", Title: "Engine Repair", Description: "Repair a faulty engine.", Workshop: "Mechanical", SupervisorID: "SUP-002", AssignedStudentID: "STF-002", Status: models.TaskInProgress, Priority: "Medium", EstimatedTime: "4 hours", DueDate: &due, Instructions: "Diagnose before disassembly.", Barcode: "TSK-002", RequiredTools: []models.TaskTool{{ToolID: "MCH-002"}}},
		{ID: "TSK-003", Title: "Wiring Project", Description: "Wire a distribution panel.", Workshop: "Electrical", SupervisorID: "SUP-003", AssignedStudentID: "STF-003", Status: models.TaskNotStarted, Priority: "Low", EstimatedTime: "3 hours", DueDate: &due, Instructions: "Isolate supply before starting.", Barcode: "TSK-003"},
	}

	taskAVT, taskMCH := "TSK-001", "TSK-002"
	now := time.Now().UTC()
	assignments := []models.Assignment{
		{ID: "ASG-001", ToolID: "AVT-001", Workshop: "Aviation", StudentID: "STF-001", SupervisorID: "SUP-001", TaskID: &taskAVT, CheckoutAt: now.Add(-2 * time.Hour), DueAt: &due, CheckoutCondition: models.ConditionExcellent, Status: models.AssignmentActive, Notes: "For aircraft maintenance task"},
		{ID: "ASG-002", ToolID: "MCH-002", Workshop: "Mechanical", StudentID: "STF-002", SupervisorID: "SUP-002", TaskID: &taskMCH, CheckoutAt: now.Add(-26 * time.Hour), DueAt: &due, CheckoutCondition: models.ConditionExcellent, Status: models.AssignmentActive},
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for i := range users {
			users[i].Password = hashed
			users[i].Active = true
			if err := tx.Where(models.User{BadgeID: users[i].BadgeID}).FirstOrCreate(&users[i]).Error; err != nil {
				return err
			}
		}
		for i := range tools {
			if err := tx.Create(&tools[i]).Error; err != nil {
				return err
			}
			ident := models.ToolIdentifier{ID: tools[i].ID, Workshop: tools[i].Workshop, ReservedBy: "seed"}
			if err := tx.Create(&ident).Error; err != nil {
				return err
			}
		}
		for i := range tasks {
			if err := tx.Create(&tasks[i]).Error; err != nil {
				return err
			}
		}
		for i := range assignments {
			if err := tx.Create(&assignments[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("Seeded demo data: %d users, %d tools, %d tasks (password %q)", len(users), len(tools), len(tasks), demoPassword)
	return nil
}
