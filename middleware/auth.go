package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	apperrors "github.com/Nappiz/tcmudah-storefront/errors"
	"github.com/Nappiz/tcmudah-storefront/models"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// Identity resolves who is calling without rejecting anonymous visitors.
// With a JWT secret only a valid access token (Bearer header or access_token
// cookie) is trusted. Without one, the X-User-ID/X-User-Role headers or
// user_id/user_role cookies set by the API gateway are used.
func Identity(jwtSecret string) gin.HandlerFunc {
	secret := []byte(strings.TrimSpace(jwtSecret))
	return func(c *gin.Context) {
		var userID, role string
		if len(secret) > 0 {
			if tok := bearerToken(c); tok != "" {
				if claims, err := parseAccessToken(tok, secret); err == nil {
					userID, _ = claims["sub"].(string)
					role, _ = claims["role"].(string)
				}
			}
		} else {
			userID = c.GetHeader("X-User-ID")
			role = c.GetHeader("X-User-Role")
			if userID == "" {
				userID, _ = c.Cookie("user_id")
			}
			if role == "" {
				role, _ = c.Cookie("user_role")
			}
		}

		if userID != "" {
			c.Set(UserIDKey, userID)
			c.Set(RoleKey, models.ParseRole(role))
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if v, err := c.Cookie("access_token"); err == nil {
		return v
	}
	return ""
}

func parseAccessToken(tokenStr string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if typ, ok := claims["typ"].(string); ok && typ != "access" {
		return nil, fmt.Errorf("invalid token type")
	}
	return claims, nil
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (string, error) {
	if id := c.GetString(UserIDKey); id != "" {
		return id, nil
	}
	return "", errors.New("user ID not found in context")
}

// GetRole returns the caller's role, participant when anonymous.
func GetRole(c *gin.Context) models.Role {
	if v, ok := c.Get(RoleKey); ok {
		if r, ok := v.(models.Role); ok {
			return r
		}
	}
	return models.RoleParticipant
}

// CMSAccess gates the CMS: reads need a CMS role, writes need CanWrite.
func CMSAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := GetUserID(c); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperrors.ErrUnauthorized)
			return
		}
		role := GetRole(c)
		allowed := models.CanRead(role)
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			allowed = models.CanWrite(role)
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
