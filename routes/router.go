package routes

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quillblog/quill/config"
	"github.com/quillblog/quill/controllers"
	"github.com/quillblog/quill/middleware"
	"github.com/quillblog/quill/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, cfg config.AppConfig) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 16 << 20
	if utils.Logger != nil {
		r.Use(utils.RequestLogger(utils.Logger))
		r.Use(utils.Recovery(utils.Logger))
	} else {
		r.Use(gin.Recovery())
	}

	r.Use(gzip.Gzip(gzip.DefaultCompression))

	store := cookie.NewStore([]byte(cfg.SecretKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions("quill_session", store))

	// Post bodies and comments are sanitized with bluemonday before storage,
	// so templates may render them as trusted HTML.
	r.SetFuncMap(template.FuncMap{
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	})
	r.LoadHTMLGlob(cfg.TemplateGlob)
	r.Static("/static", cfg.StaticDir)

	r.Use(middleware.CurrentUser(db, cfg))

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db, cfg)
	pageController := controllers.NewPageController()

	pageCache := middleware.CachePage(time.Hour)

	r.GET("/", pageCache, postController.List)
	r.GET("/post/:id", pageCache, postController.Show)
	r.POST("/post/:id", middleware.LoginRequired(), postController.CreateComment)

	authGroup := r.Group("")
	authGroup.Use(middleware.RateLimit(cfg))
	authGroup.GET("/register", authController.ShowRegister)
	authGroup.POST("/register", authController.Register)
	authGroup.GET("/login", authController.ShowLogin)
	authGroup.POST("/login", authController.Login)
	r.GET("/logout", middleware.LoginRequired(), authController.Logout)

	admin := r.Group("")
	admin.Use(middleware.RequireCapability(middleware.IsAdmin(cfg)))
	admin.GET("/new-post", postController.ShowNew)
	admin.POST("/new-post", postController.Create)
	admin.GET("/edit-post/:id", postController.ShowEdit)
	admin.POST("/edit-post/:id", postController.Update)
	admin.GET("/delete/:id", postController.Delete)

	r.GET("/about", pageController.About)
	r.GET("/contact", pageController.Contact)
	r.GET("/health", pageController.Health)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.AbortWithStatus(http.StatusNotFound)
	})

	return r
}
