package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillblog/quill/config"
	"github.com/quillblog/quill/models"
)

// Capability decides whether a user may pass a guarded route group.
type Capability func(*models.User) bool

// IsAdmin returns the capability check for the configured admin user.
func IsAdmin(cfg config.AppConfig) Capability {
	return func(u *models.User) bool {
		return u.ID == cfg.AdminUserID
	}
}

// RequireCapability rejects requests whose session user fails the check.
// Anonymous requests fail it too; both get a bare 403.
func RequireCapability(allow Capability) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := UserFrom(ctx)
		if !ok || !allow(user) {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}
		ctx.Next()
	}
}
