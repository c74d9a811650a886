package controllers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/codegen"
	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/repository"
	"github.com/zaqqye/toolcrib/internal/utils"
)

type AdminController struct {
	DB *gorm.DB
}

type createUserRequest struct {
	FullName      string         `json:"full_name" binding:"required"`
	Email         string         `json:"email" binding:"required,email"`
	Password      string         `json:"password" binding:"required,min=6"`
	Username      string         `json:"username"`
	Role          string         `json:"role" binding:"required"`
	Workshop      string         `json:"workshop" binding:"required"`
	Department    string         `json:"department"`
	StudentNumber FlexibleString `json:"student_number"`
	Active        *bool          `json:"active"`
}

var errUserExists = errors.New("email or username already exists")

// createUser assigns the next badge id for the user's role and inserts it,
// retrying when a concurrent insert took the same badge.
func createUser(db *gorm.DB, user *models.User) error {
	prefix := models.BadgePrefix(user.Role)
	var taken int64
	q := db.Model(&models.User{}).Where("email = ?", user.Email)
	if user.Username != "" {
		q = q.Or("username = ?", user.Username)
	}
	if err := q.Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return errUserExists
	}

	pickUsername := user.Username == ""
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		var existing []string
		if err = db.Model(&models.User{}).Where("badge_id LIKE ?", prefix+"-%").Pluck("badge_id", &existing).Error; err != nil {
			return err
		}
		user.BadgeID = codegen.NextSequenceID(prefix, existing)
		if pickUsername {
			user.Username = strings.ToLower(user.BadgeID)
		}
		err = db.Create(user).Error
		if err == nil || !repository.IsUniqueViolation(err) {
			return err
		}
		user.ID = 0
		user.UserID = ""
	}
	return err
}

func (a *AdminController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !IsValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	if !IsValidUserWorkshop(req.Workshop) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workshop"})
		return
	}
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	user := models.User{
		Username:      strings.TrimSpace(req.Username),
		FullName:      strings.TrimSpace(req.FullName),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Password:      hashed,
		Role:          req.Role,
		Workshop:      req.Workshop,
		Department:    req.Department,
		StudentNumber: req.StudentNumber.String(),
		Active:        active,
	}
	if err := createUser(a.DB, &user); err != nil {
		if errors.Is(err, errUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, userResponse(user))
}

type userImportError struct {
	Row   int    `json:"row"`
	Email string `json:"email,omitempty"`
	Error string `json:"error"`
}

func parseBoolDefaultTrue(val string) (bool, bool) {
	if val == "" {
		return true, false
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "y", "active":
		return true, true
	case "false", "0", "no", "n", "inactive":
		return false, true
	default:
		return true, false
	}
}

// ImportUsers bulk-creates users from a CSV upload.
// Header columns (case-insensitive): full_name, email, password, role,
// workshop, and optionally username, department, student_number, active.
func (a *AdminController) ImportUsers(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form"})
		return
	}
	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(fileHeader.Filename)), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .csv files are allowed"})
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		return
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	data = bytes.ReplaceAll(data, []byte{'\r', '\n'}, []byte{'\n'})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	if firstLine, _, _ := bytes.Cut(data, []byte{'\n'}); bytes.Contains(firstLine, []byte{';'}) && !bytes.Contains(firstLine, []byte{','}) {
		reader.Comma = ';'
	}

	header, err := reader.Read()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read header"})
		return
	}
	headerIdx := make(map[string]int, len(header))
	for idx, col := range header {
		key := strings.ToLower(strings.Trim(strings.TrimSpace(col), "\"'"))
		if key != "" {
			headerIdx[key] = idx
		}
	}
	for _, key := range []string{"full_name", "email", "password", "role", "workshop"} {
		if _, ok := headerIdx[key]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing header column: %s", key)})
			return
		}
	}
	getVal := func(record []string, key string) string {
		idx, ok := headerIdx[key]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var (
		totalRows   int
		createdRows int
		failures    = []userImportError{}
	)
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			failures = append(failures, userImportError{Row: rowNum, Error: fmt.Sprintf("failed to read row: %v", err)})
			continue
		}
		totalRows++

		email := strings.ToLower(getVal(row, "email"))
		fail := func(msg string) {
			failures = append(failures, userImportError{Row: rowNum, Email: email, Error: msg})
		}
		fullName := getVal(row, "full_name")
		password := getVal(row, "password")
		if fullName == "" || email == "" || password == "" {
			fail("full_name, email, and password are required")
			continue
		}
		role, ok := access.ParseRole(getVal(row, "role"))
		if !ok {
			fail("invalid role")
			continue
		}
		workshop := getVal(row, "workshop")
		if !IsValidUserWorkshop(workshop) {
			fail("invalid workshop")
			continue
		}
		activeStr := getVal(row, "active")
		active, provided := parseBoolDefaultTrue(activeStr)
		if activeStr != "" && !provided {
			fail("invalid active value")
			continue
		}
		hashed, err := utils.HashPassword(password)
		if errors.Is(err, utils.ErrPasswordTooShort) {
			fail(err.Error())
			continue
		}
		if err != nil {
			fail(fmt.Sprintf("failed to hash password: %v", err))
			continue
		}
		user := models.User{
			Username:      getVal(row, "username"),
			FullName:      fullName,
			Email:         email,
			Password:      hashed,
			Role:          string(role),
			Workshop:      workshop,
			Department:    getVal(row, "department"),
			StudentNumber: getVal(row, "student_number"),
			Active:        active,
		}
		if err := createUser(a.DB, &user); err != nil {
			if errors.Is(err, errUserExists) {
				fail(err.Error())
				continue
			}
			fail(fmt.Sprintf("failed to insert user: %v", err))
			continue
		}
		createdRows++
	}
	log.Printf("user import: %d rows, %d inserted, %d failed", totalRows, createdRows, len(failures))

	c.JSON(http.StatusOK, gin.H{
		"summary": gin.H{
			"total_rows": totalRows,
			"inserted":   createdRows,
			"failed":     len(failures),
		},
		"errors": failures,
	})
}

var userSorts = map[string]string{
	"id":         "id",
	"badge_id":   "badge_id",
	"created_at": "created_at",
	"full_name":  "full_name",
	"email":      "email",
	"role":       "role",
	"workshop":   "workshop",
	"active":     "active",
}

func (a *AdminController) ListUsers(c *gin.Context) {
	p := parseListParams(c, "badge_id")
	sortCol, ok := userSorts[p.SortBy]
	if !ok {
		sortCol = "badge_id"
		p.SortBy = sortCol
	}

	qText := strings.TrimSpace(c.Query("q"))
	role := strings.TrimSpace(c.Query("role"))
	workshop := strings.TrimSpace(c.Query("workshop"))
	activeStr := strings.TrimSpace(strings.ToLower(c.Query("active")))

	filtered := func() (*gorm.DB, error) {
		q := a.DB.Model(&models.User{})
		if qText != "" {
			like := "%" + strings.ToLower(qText) + "%"
			q = q.Where("(LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(badge_id) LIKE ?)", like, like, like)
		}
		if role != "" {
			if !IsValidRole(role) {
				return nil, errors.New("invalid role")
			}
			q = q.Where("role = ?", role)
		}
		if workshop != "" {
			if !IsValidUserWorkshop(workshop) {
				return nil, errors.New("invalid workshop")
			}
			q = q.Where("workshop = ?", workshop)
		}
		switch activeStr {
		case "":
		case "true", "1":
			q = q.Where("active = ?", true)
		case "false", "0":
			q = q.Where("active = ?", false)
		default:
			return nil, errors.New("invalid active value")
		}
		return q, nil
	}

	base, err := filtered()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var total int64
	if err := base.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	listQ, _ := filtered()
	listQ = listQ.Order(fmt.Sprintf("%s %s", sortCol, p.SortDir))
	if !p.All {
		listQ = listQ.Offset((p.Page - 1) * p.Limit).Limit(p.Limit)
	}
	var users []models.User
	if err := listQ.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse(u))
	}
	meta := p.meta(total)
	if qText != "" {
		meta["q"] = qText
	}
	if role != "" {
		meta["role"] = role
	}
	if workshop != "" {
		meta["workshop"] = workshop
	}
	if activeStr != "" {
		meta["active"] = activeStr
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "meta": meta})
}

func (a *AdminController) findUser(c *gin.Context) (models.User, bool) {
	userID, ok := parseUserID(c.Param("user_id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return models.User{}, false
	}
	var u models.User
	if err := a.DB.Where("user_id = ?", userID).First(&u).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return models.User{}, false
	}
	return u, true
}

func (a *AdminController) GetUser(c *gin.Context) {
	u, ok := a.findUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, userResponse(u))
}

type updateUserRequest struct {
	FullName      *string         `json:"full_name"`
	Email         *string         `json:"email"`
	Username      *string         `json:"username"`
	Password      *FlexibleString `json:"password"`
	Role          *string         `json:"role"`
	Workshop      *string         `json:"workshop"`
	Department    *string         `json:"department"`
	StudentNumber *FlexibleString `json:"student_number"`
	Active        *bool           `json:"active"`
}

// UpdateUser edits profile fields. The badge id is kept even when the role
// changes, since it is already printed.
func (a *AdminController) UpdateUser(c *gin.Context) {
	u, ok := a.findUser(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) != "" {
		u.Username = strings.TrimSpace(*req.Username)
	}
	if req.Role != nil {
		if !IsValidRole(*req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		u.Role = *req.Role
	}
	if req.Workshop != nil {
		if !IsValidUserWorkshop(*req.Workshop) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workshop"})
			return
		}
		u.Workshop = *req.Workshop
	}
	if req.Department != nil {
		u.Department = *req.Department
	}
	if req.StudentNumber != nil {
		u.StudentNumber = req.StudentNumber.String()
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if req.Password != nil {
		if raw := strings.TrimSpace(req.Password.String()); raw != "" {
			pw, err := utils.HashPassword(raw)
			if errors.Is(err, utils.ErrPasswordTooShort) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
				return
			}
			u.Password = pw
		}
	}

	if err := a.DB.Save(&u).Error; err != nil {
		if repository.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email or username already exists"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, userResponse(u))
}

// DeleteUser removes a user and their refresh tokens. Users still holding
// a tool cannot be deleted; deactivate them instead.
func (a *AdminController) DeleteUser(c *gin.Context) {
	u, ok := a.findUser(c)
	if !ok {
		return
	}
	var open int64
	if err := a.DB.Model(&models.Assignment{}).
		Where("student_id = ? AND status IN ?", u.BadgeID, []string{models.AssignmentActive, models.AssignmentOverdue}).
		Count(&open).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if open > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "user still has tools checked out"})
		return
	}
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id_ref = ?", u.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
