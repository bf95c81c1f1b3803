package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quillblog/quill/config"
	"github.com/quillblog/quill/models"
	"github.com/quillblog/quill/session"
)

const (
	// ContextUserKey is the key used to store the authenticated user in Gin context.
	ContextUserKey = "current_user"
	// ContextIsAdminKey marks the request as coming from the admin user.
	ContextIsAdminKey = "is_admin"
)

// CurrentUser resolves the session's user id to a database row and stores it in
// the request context. Anonymous requests pass through with no user set; a
// session pointing at a vanished user is cleared.
func CurrentUser(db *gorm.DB, cfg config.AppConfig) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if id, ok := session.UserID(ctx); ok {
			var user models.User
			if err := db.First(&user, id).Error; err == nil {
				ctx.Set(ContextUserKey, &user)
				ctx.Set(ContextIsAdminKey, user.ID == cfg.AdminUserID)
			} else {
				_ = session.Clear(ctx)
			}
		}
		ctx.Next()
	}
}

// UserFrom returns the authenticated user placed in context by CurrentUser.
func UserFrom(ctx *gin.Context) (*models.User, bool) {
	if v, exists := ctx.Get(ContextUserKey); exists {
		if user, ok := v.(*models.User); ok {
			return user, true
		}
	}
	return nil, false
}

// IsAdminRequest reports whether the request user is the admin.
func IsAdminRequest(ctx *gin.Context) bool {
	return ctx.GetBool(ContextIsAdminKey)
}

// LoginRequired redirects anonymous requests to the login page with a notice.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := UserFrom(ctx); !ok {
			session.Flash(ctx, "You must be logged in to do that.")
			ctx.Redirect(http.StatusFound, "/login")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
