package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zaqqye/toolcrib/internal/models"
)

func TestCreateUserAssignsBadge(t *testing.T) {
	f := newFixture(t)
	body := map[string]interface{}{
		"full_name":      "Maria Lopez",
		"email":          "Maria.Lopez@company.com",
		"password":       "secret123",
		"role":           "Student",
		"workshop":       "Electrical",
		"student_number": 20231234,
	}
	w := f.do(t, http.MethodPost, "/api/v1/admin/users", "ADM-001", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var got map[string]interface{}
	decode(t, w, &got)
	if got["badge_id"] != "STF-004" || got["username"] != "stf-004" || got["email"] != "maria.lopez@company.com" {
		t.Fatalf("unexpected user %v", got)
	}
	if got["student_number"] != "20231234" {
		t.Fatalf("student number %v", got["student_number"])
	}
	if _, leaked := got["password"]; leaked {
		t.Fatalf("password hash exposed")
	}

	if w := f.do(t, http.MethodPost, "/api/v1/admin/users", "ADM-001", body); w.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", w.Code)
	}
	body["email"] = "other@company.com"
	body["workshop"] = "Welding"
	if w := f.do(t, http.MethodPost, "/api/v1/admin/users", "ADM-001", body); w.Code != http.StatusBadRequest {
		t.Fatalf("bad workshop: expected 400, got %d", w.Code)
	}

	body["workshop"] = "Aviation"
	body["role"] = "Supervisor"
	w = f.do(t, http.MethodPost, "/api/v1/admin/users", "ADM-001", body)
	decode(t, w, &got)
	if got["badge_id"] != "SUP-004" {
		t.Fatalf("supervisor badge = %v", got["badge_id"])
	}
}

func TestUserLifecycle(t *testing.T) {
	f := newFixture(t)
	var student models.User
	f.db.Where("badge_id = ?", "STF-003").First(&student)

	if w := f.do(t, http.MethodGet, "/api/v1/admin/users/not-a-uuid", "ADM-001", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", w.Code)
	}
	path := "/api/v1/admin/users/" + student.UserID
	w := f.do(t, http.MethodPut, path, "ADM-001", map[string]interface{}{"workshop": "Mechanical", "active": false})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	f.db.First(&student, student.ID)
	if student.Workshop != "Mechanical" || student.Active || student.BadgeID != "STF-003" {
		t.Fatalf("update not applied: %+v", student)
	}
	if w := f.do(t, http.MethodDelete, path, "ADM-001", nil); w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}

	// STF-001 still holds AVT-001
	var holder models.User
	f.db.Where("badge_id = ?", "STF-001").First(&holder)
	if w := f.do(t, http.MethodDelete, "/api/v1/admin/users/"+holder.UserID, "ADM-001", nil); w.Code != http.StatusConflict {
		t.Fatalf("delete holder: expected 409, got %d", w.Code)
	}
}

func TestListUsersFilters(t *testing.T) {
	f := newFixture(t)
	var list struct {
		Data []map[string]interface{} `json:"data"`
		Meta map[string]interface{}   `json:"meta"`
	}
	decode(t, f.do(t, http.MethodGet, "/api/v1/admin/users?role=Supervisor&sort_dir=desc", "ADM-001", nil), &list)
	if len(list.Data) != 3 || list.Data[0]["badge_id"] != "SUP-003" {
		t.Fatalf("supervisors: %+v", list.Data)
	}
	if w := f.do(t, http.MethodGet, "/api/v1/admin/users?role=Janitor", "ADM-001", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad role: expected 400, got %d", w.Code)
	}
	decode(t, f.do(t, http.MethodGet, "/api/v1/admin/users?q=chen", "ADM-001", nil), &list)
	if len(list.Data) != 1 || list.Data[0]["badge_id"] != "SUP-002" {
		t.Fatalf("search: %+v", list.Data)
	}
}

func TestImportUsers(t *testing.T) {
	f := newFixture(t)
	csvBody := "\xEF\xBB\xBFfull_name;email;password;role;workshop\n" +
		"Ana Cruz;ana.cruz@company.com;secret123;Student;Aviation\n" +
		"Ben Ode;ben.ode@company.com;abc;Student;Aviation\n" +
		"Cy Park;cy.park@company.com;secret123;Janitor;Aviation\n" +
		"Dee Roy;john.smith@company.com;secret123;Student;Mechanical\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "users.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write([]byte(csvBody))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Badge", "ADM-001")
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import: %d %s", w.Code, w.Body.String())
	}
	var got struct {
		Summary struct {
			Inserted int `json:"inserted"`
			Failed   int `json:"failed"`
		} `json:"summary"`
		Errors []userImportError `json:"errors"`
	}
	decode(t, w, &got)
	if got.Summary.Inserted != 1 || got.Summary.Failed != 3 {
		t.Fatalf("unexpected summary %+v", got)
	}
	if got.Errors[0].Row != 3 || got.Errors[0].Error != "password must be at least 6 characters" {
		t.Fatalf("first failure %+v", got.Errors[0])
	}
	var ana models.User
	if err := f.db.Where("email = ?", "ana.cruz@company.com").First(&ana).Error; err != nil {
		t.Fatalf("imported user missing: %v", err)
	}
	if ana.BadgeID != "STF-004" || !ana.Active {
		t.Fatalf("imported user %+v", ana)
	}
}
