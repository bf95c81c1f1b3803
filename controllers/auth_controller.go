package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quillblog/quill/models"
	"github.com/quillblog/quill/session"
	"github.com/quillblog/quill/utils"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

type registerForm struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=8"`
	Confirm  string `form:"confirm" binding:"required,eqfield=Password"`
}

type loginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

// ShowRegister renders the registration form.
func (a *AuthController) ShowRegister(ctx *gin.Context) {
	render(ctx, http.StatusOK, "register.html", gin.H{"Form": registerForm{}})
}

// Register creates a local account with a bcrypt-hashed password and starts
// the session. Registering an email that already exists redirects to login
// with a notice instead of creating a second user.
func (a *AuthController) Register(ctx *gin.Context) {
	var form registerForm
	if err := ctx.ShouldBind(&form); err != nil {
		render(ctx, http.StatusBadRequest, "register.html", gin.H{
			"Error": validationMessage(err),
			"Form":  form,
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(form.Email))

	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		session.Flash(ctx, "You've already signed up with that email, log in instead!")
		ctx.Redirect(http.StatusFound, "/login")
		return
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		utils.Sugar.Errorf("password hashing failed: %v", err)
		render(ctx, http.StatusInternalServerError, "register.html", gin.H{
			"Error": "Registration failed, please try again.",
			"Form":  form,
		})
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(form.Name),
		Email:        email,
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Sugar.Errorf("failed to create user: %v", err)
		render(ctx, http.StatusInternalServerError, "register.html", gin.H{
			"Error": "Registration failed, please try again.",
			"Form":  form,
		})
		return
	}

	if err := session.SetUserID(ctx, user.ID); err != nil {
		utils.Sugar.Errorf("failed to save session: %v", err)
	}
	session.Flash(ctx, "Registration successful! Welcome!")
	ctx.Redirect(http.StatusFound, "/")
}

// ShowLogin renders the login form.
func (a *AuthController) ShowLogin(ctx *gin.Context) {
	render(ctx, http.StatusOK, "login.html", gin.H{"Form": loginForm{}})
}

// Login verifies credentials and establishes the session. An unknown email
// and a wrong password produce the same generic notice.
func (a *AuthController) Login(ctx *gin.Context) {
	var form loginForm
	if err := ctx.ShouldBind(&form); err != nil {
		render(ctx, http.StatusBadRequest, "login.html", gin.H{
			"Error": validationMessage(err),
			"Form":  form,
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(form.Email))

	var user models.User
	err := a.db.Where("email = ?", email).First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, form.Password) {
		render(ctx, http.StatusUnauthorized, "login.html", gin.H{
			"Error": "Invalid email or password. Please try again.",
			"Form":  form,
		})
		return
	}

	if err := session.SetUserID(ctx, user.ID); err != nil {
		utils.Sugar.Errorf("failed to save session: %v", err)
	}
	ctx.Redirect(http.StatusFound, "/")
}

// Logout clears the session. The route is login-gated.
func (a *AuthController) Logout(ctx *gin.Context) {
	if err := session.Clear(ctx); err != nil {
		utils.Sugar.Errorf("failed to clear session: %v", err)
	}
	ctx.Redirect(http.StatusFound, "/")
}
