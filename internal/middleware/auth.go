package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/models"
)

const userKey = "user"

type AuthConfig struct {
	JWTSecret string
}

type Claims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	Workshop string `json:"workshop"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and loads the active user it
// names. Role and workshop always come from the database row, not the token,
// so changes apply without waiting for the token to expire.
func AuthMiddleware(db *gorm.DB, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if err := db.Where("user_id = ? AND active = ?", claims.UserID, true).First(&user).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found or inactive"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// a websocket handshake, so upgrades may pass access_token in the query.
func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		tok := strings.TrimSpace(auth[len("Bearer "):])
		return tok, tok != ""
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		tok := c.Query("access_token")
		return tok, tok != ""
	}
	return "", false
}

// CurrentUser returns the authenticated user set by AuthMiddleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	uVal, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := uVal.(models.User)
	return user, ok
}

// Session returns the access snapshot of the authenticated user. Requests
// without one get the zero value, which every check denies.
func Session(c *gin.Context) access.User {
	user, ok := CurrentUser(c)
	if !ok {
		return access.User{}
	}
	return user.Session()
}

// SetUser stores user on the request as AuthMiddleware would.
func SetUser(c *gin.Context, user models.User) {
	c.Set(userKey, user)
}

// Require aborts with 403 unless the session passes check, e.g.
// access.CanSupervise or access.CanManageUsers.
func Require(check func(access.User) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !check(user.Session()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
