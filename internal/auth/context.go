package auth

import "github.com/gin-gonic/gin"

const (
	userIDKey    = "userID"
	userEmailKey = "userEmail"
	isAdminKey   = "isAdmin"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}

// IsAdmin reports whether the token of the current request carries the admin flag.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(isAdminKey)
}
