package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/middleware"
	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/utils"
)

type AuthController struct {
	DB            *gorm.DB
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Identifier may be an email, a username or a badge id.
type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func (a *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident := strings.TrimSpace(req.Identifier)
	var user models.User
	if err := a.DB.Where("email = ? OR username = ? OR badge_id = ?", ident, ident, strings.ToUpper(ident)).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.Active || !utils.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	accessToken, refresh, err := a.issueTokens(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":       accessToken,
		"token_type":         "Bearer",
		"expires_in":         int(a.AccessTTL.Seconds()),
		"refresh_token":      refresh.Token,
		"refresh_expires_in": int(a.RefreshTTL.Seconds()),
		"user":               userResponse(user),
	})
}

func (a *AuthController) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}

type refreshPair struct {
	Token string
	JTI   string
}

func (a *AuthController) issueTokens(user models.User) (string, refreshPair, error) {
	accessToken, err := middleware.NewAccessToken(user, a.AccessSecret, a.AccessTTL)
	if err != nil {
		return "", refreshPair{}, err
	}

	now := time.Now().UTC()
	jti := uuid.NewString()
	rcl := jwt.RegisteredClaims{
		Issuer:    "toolcrib",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.RefreshTTL)),
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		ID:        jti,
	}
	rtStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rcl).SignedString([]byte(a.RefreshSecret))
	if err != nil {
		return "", refreshPair{}, err
	}

	// only the hash is stored
	rec := models.RefreshToken{
		TokenID:   jti,
		UserIDRef: user.ID,
		TokenHash: utils.HashToken(rtStr),
		ExpiresAt: now.Add(a.RefreshTTL),
	}
	if err := a.DB.Create(&rec).Error; err != nil {
		return "", refreshPair{}, err
	}
	return accessToken, refreshPair{Token: rtStr, JTI: jti}, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (a *AuthController) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tok, err := jwt.ParseWithClaims(req.RefreshToken, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(a.RefreshSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	var rec models.RefreshToken
	if err := a.DB.Where("token_hash = ?", utils.HashToken(req.RefreshToken)).First(&rec).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token not found"})
		return
	}
	if rec.RevokedAt != nil || time.Now().UTC().After(rec.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token expired or revoked"})
		return
	}
	var user models.User
	if err := a.DB.First(&user, rec.UserIDRef).Error; err != nil || !user.Active {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or inactive"})
		return
	}

	accessToken, next, err := a.issueTokens(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	now := time.Now().UTC()
	a.DB.Model(&rec).Updates(map[string]interface{}{
		"revoked_at":           &now,
		"replaced_by_token_id": next.JTI,
	})
	c.JSON(http.StatusOK, gin.H{
		"access_token":       accessToken,
		"token_type":         "Bearer",
		"expires_in":         int(a.AccessTTL.Seconds()),
		"refresh_token":      next.Token,
		"refresh_expires_in": int(a.RefreshTTL.Seconds()),
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	All          bool   `json:"all"`
}

// Logout revokes one refresh token or all of the caller's. Access tokens stay
// valid until they expire.
func (a *AuthController) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)
	now := time.Now().UTC()
	if req.RefreshToken != "" {
		a.DB.Model(&models.RefreshToken{}).
			Where("token_hash = ? AND revoked_at IS NULL", utils.HashToken(req.RefreshToken)).
			Update("revoked_at", &now)
	}
	if req.All {
		if user, ok := middleware.CurrentUser(c); ok {
			a.DB.Model(&models.RefreshToken{}).Where("user_id_ref = ? AND revoked_at IS NULL", user.ID).Update("revoked_at", &now)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func userResponse(u models.User) gin.H {
	return gin.H{
		"user_id":        u.UserID,
		"badge_id":       u.BadgeID,
		"username":       u.Username,
		"full_name":      u.FullName,
		"email":          u.Email,
		"role":           u.Role,
		"workshop":       u.Workshop,
		"department":     u.Department,
		"student_number": u.StudentNumber,
		"active":         u.Active,
		"created_at":     u.CreatedAt,
		"updated_at":     u.UpdatedAt,
	}
}
