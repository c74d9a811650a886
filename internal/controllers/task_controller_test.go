package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/zaqqye/toolcrib/internal/codegen"
	"github.com/zaqqye/toolcrib/internal/models"
)

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	body := map[string]interface{}{
		"title":               "Landing Gear Inspection",
		"workshop":            "Aviation",
		"assigned_student_id": "STF-001",
		"priority":            "High",
		"required_tools":      []string{"AVT-002", "AVT-002", "AVT-003"},
	}
	w := f.do(t, http.MethodPost, "/api/v1/tasks", "SUP-001", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var task models.Task
	decode(t, w, &task)
	if task.ID != "TSK-004" || task.Status != models.TaskNotStarted || task.SupervisorID != "SUP-001" {
		t.Fatalf("unexpected task %+v", task)
	}
	if len(task.RequiredTools) != 2 || len(task.Barcode) != 12 {
		t.Fatalf("required tools %v barcode %q", task.RequiredTools, task.Barcode)
	}

	w = f.do(t, http.MethodGet, "/api/v1/tasks/TSK-004", "STF-001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	decode(t, w, &task)
	if len(task.ToolIDs()) != 2 {
		t.Fatalf("required tools not stored: %+v", task.RequiredTools)
	}
}

func TestCreateTaskRejections(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name  string
		badge string
		body  map[string]interface{}
		want  int
	}{
		{"student", "STF-001", map[string]interface{}{"title": "x", "workshop": "Aviation"}, http.StatusForbidden},
		{"other workshop", "SUP-001", map[string]interface{}{"title": "x", "workshop": "Mechanical"}, http.StatusForbidden},
		{"foreign tool", "SUP-001", map[string]interface{}{"title": "x", "workshop": "Aviation", "required_tools": []string{"MCH-001"}}, http.StatusBadRequest},
		{"bad priority", "SUP-001", map[string]interface{}{"title": "x", "workshop": "Aviation", "priority": "Urgent"}, http.StatusBadRequest},
		{"unknown student", "SUP-001", map[string]interface{}{"title": "x", "workshop": "Aviation", "assigned_student_id": "STF-404"}, http.StatusBadRequest},
		{"all workshop", "ADM-001", map[string]interface{}{"title": "x", "workshop": "All"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if w := f.do(t, http.MethodPost, "/api/v1/tasks", tc.badge, tc.body); w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestListTasksScoped(t *testing.T) {
	f := newFixture(t)
	var list struct {
		Data []models.Task `json:"data"`
	}
	decode(t, f.do(t, http.MethodGet, "/api/v1/tasks", "SUP-003", nil), &list)
	if len(list.Data) != 1 || list.Data[0].ID != "TSK-003" {
		t.Fatalf("electrical supervisor: %+v", list.Data)
	}
	if w := f.do(t, http.MethodGet, "/api/v1/tasks/TSK-001", "SUP-003", nil); w.Code != http.StatusForbidden {
		t.Fatalf("aviation task: expected 403, got %d", w.Code)
	}
	decode(t, f.do(t, http.MethodGet, "/api/v1/tasks?status=In%20Progress", "ADM-001", nil), &list)
	if len(list.Data) != 2 {
		t.Fatalf("in-progress tasks: %+v", list.Data)
	}
}

func TestCreateTaskRegeneratesDuplicateBarcode(t *testing.T) {
	f := newFixture(t)
	digits := []string{"111", "111", "222"}
	f.tasks.Codes = &codegen.Generator{
		Now: func() time.Time { return time.UnixMilli(42) },
		Digits: func(int) string {
			d := digits[0]
			digits = digits[1:]
			return d
		},
	}
	body := map[string]interface{}{"title": "Rivet Practice", "workshop": "Aviation"}

	var first, second models.Task
	w := f.do(t, http.MethodPost, "/api/v1/tasks", "SUP-001", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("first create: %d %s", w.Code, w.Body.String())
	}
	decode(t, w, &first)
	w = f.do(t, http.MethodPost, "/api/v1/tasks", "SUP-001", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("second create: %d %s", w.Code, w.Body.String())
	}
	decode(t, w, &second)

	if first.Barcode != "100000042111" || second.Barcode != "100000042222" {
		t.Fatalf("barcodes %s and %s", first.Barcode, second.Barcode)
	}
	if first.ID != "TSK-004" || second.ID != "TSK-005" {
		t.Fatalf("ids %s and %s", first.ID, second.ID)
	}
}
