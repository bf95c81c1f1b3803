package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/quillblog/quill/middleware"
	"github.com/quillblog/quill/session"
)

// render executes an HTML template with the base context every page needs:
// the current user, queued flash notices and the footer year.
func render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := middleware.UserFrom(ctx); ok {
		data["CurrentUser"] = user
		data["IsAdmin"] = middleware.IsAdminRequest(ctx)
	}
	data["Flashes"] = session.TakeFlashes(ctx)
	data["Year"] = time.Now().Year()
	ctx.HTML(status, name, data)
}

// validationMessage turns a binding error into a user-facing field message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required.", fe.Field())
		case "email":
			return "Invalid email address."
		case "min":
			return fmt.Sprintf("%s must be at least %s characters long.", fe.Field(), fe.Param())
		case "eqfield":
			return "Passwords must match."
		}
	}
	return "Please check the form and try again."
}
