package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Nappiz/tcmudah-storefront/clients"
)

const SessionIDKey = "session_id"

// SessionCookie makes sure every visitor carries a storefront session id.
// Missing or malformed cookies are replaced with a fresh one.
func SessionCookie(name string, secure bool, maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(name)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(name, sid, int(maxAge.Seconds()), "/", "", secure, true)
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}

// GetSessionID returns the id set by SessionCookie.
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

// ForwardCredentials stores the visitor's cookies and Authorization header on
// the request context so upstream calls carry them. Cookies owned by the
// storefront itself are not forwarded.
func ForwardCredentials(ownCookies ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := clients.CredentialsFromRequest(c.Request, ownCookies...)
		c.Request = c.Request.WithContext(clients.WithCredentials(c.Request.Context(), creds))
		c.Next()
	}
}
