package controllers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quillblog/quill/config"
	"github.com/quillblog/quill/middleware"
	"github.com/quillblog/quill/models"
	"github.com/quillblog/quill/session"
	"github.com/quillblog/quill/utils"
)

// publishDateLayout is the display format stored on each post.
const publishDateLayout = "January 02, 2006"

// maxUploadSize caps uploaded post images at 16 MB.
const maxUploadSize = 16 << 20

// PostController manages the post listing, detail pages, comments and the
// admin-only post management routes.
type PostController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, cfg config.AppConfig) *PostController {
	return &PostController{db: db, cfg: cfg}
}

type postForm struct {
	Title    string `form:"title" binding:"required"`
	Subtitle string `form:"subtitle" binding:"required"`
	Body     string `form:"body" binding:"required"`
	ImageURL string `form:"img_url"`
}

type commentForm struct {
	Body string `form:"body" binding:"required"`
}

// List renders all posts, newest first.
func (p *PostController) List(ctx *gin.Context) {
	var posts []models.Post
	if err := p.db.Preload("User").Order("created_at DESC").Find(&posts).Error; err != nil {
		utils.Sugar.Errorf("failed to list posts: %v", err)
		ctx.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	render(ctx, http.StatusOK, "index.html", gin.H{"Posts": posts})
}

// Show renders a single post with its comments and the comment form.
func (p *PostController) Show(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "post.html", gin.H{"Post": post})
}

// CreateComment inserts a comment by the session user. The route is
// login-gated; anonymous submissions never reach this handler.
func (p *PostController) CreateComment(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	user, _ := middleware.UserFrom(ctx)

	var form commentForm
	body := ""
	if err := ctx.ShouldBind(&form); err == nil {
		body = utils.Sanitize(strings.TrimSpace(form.Body))
	}
	if body == "" {
		session.Flash(ctx, "Comment cannot be empty.")
		ctx.Redirect(http.StatusFound, "/post/"+strconv.Itoa(int(post.ID)))
		return
	}

	comment := models.Comment{
		PostID: post.ID,
		UserID: user.ID,
		Body:   body,
	}
	if err := p.db.Create(&comment).Error; err != nil {
		utils.Sugar.Errorf("failed to create comment: %v", err)
		ctx.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	utils.InvalidateByPrefix(middleware.PageCachePrefix)
	session.Flash(ctx, "Comment added successfully!")
	ctx.Redirect(http.StatusFound, "/post/"+strconv.Itoa(int(post.ID)))
}

// ShowNew renders the empty post form.
func (p *PostController) ShowNew(ctx *gin.Context) {
	render(ctx, http.StatusOK, "make-post.html", gin.H{"Form": postForm{}})
}

// Create inserts a new post authored by the admin. The image comes from a
// pasted URL or an uploaded file; both missing is rejected.
func (p *PostController) Create(ctx *gin.Context) {
	var form postForm
	if err := ctx.ShouldBind(&form); err != nil {
		render(ctx, http.StatusBadRequest, "make-post.html", gin.H{
			"Error": validationMessage(err),
			"Form":  form,
		})
		return
	}

	imageURL, errMsg := p.resolveImage(ctx, form, "")
	if errMsg != "" {
		render(ctx, http.StatusBadRequest, "make-post.html", gin.H{
			"Error": errMsg,
			"Form":  form,
		})
		return
	}

	user, _ := middleware.UserFrom(ctx)

	post := models.Post{
		UserID:   user.ID,
		Title:    utils.SanitizeStrict(strings.TrimSpace(form.Title)),
		Subtitle: utils.SanitizeStrict(strings.TrimSpace(form.Subtitle)),
		Body:     utils.Sanitize(form.Body),
		ImageURL: imageURL,
		Date:     time.Now().Format(publishDateLayout),
	}
	if err := p.db.Create(&post).Error; err != nil {
		msg := "Failed to create the post, please try again."
		if isUniqueViolation(err) {
			msg = "A post with that title already exists."
		} else {
			utils.Sugar.Errorf("failed to create post: %v", err)
		}
		render(ctx, http.StatusBadRequest, "make-post.html", gin.H{
			"Error": msg,
			"Form":  form,
		})
		return
	}

	utils.InvalidateByPrefix(middleware.PageCachePrefix)
	ctx.Redirect(http.StatusFound, "/")
}

// ShowEdit renders the post form prefilled from an existing post.
func (p *PostController) ShowEdit(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "make-post.html", gin.H{
		"IsEdit": true,
		"PostID": post.ID,
		"Form": postForm{
			Title:    post.Title,
			Subtitle: post.Subtitle,
			Body:     post.Body,
			ImageURL: post.ImageURL,
		},
	})
}

// Update edits an existing post. When neither a new URL nor a new file is
// supplied, the stored image reference is preserved exactly.
func (p *PostController) Update(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	var form postForm
	if err := ctx.ShouldBind(&form); err != nil {
		render(ctx, http.StatusBadRequest, "make-post.html", gin.H{
			"Error":  validationMessage(err),
			"IsEdit": true,
			"PostID": post.ID,
			"Form":   form,
		})
		return
	}

	imageURL, errMsg := p.resolveImage(ctx, form, post.ImageURL)
	if errMsg != "" {
		render(ctx, http.StatusBadRequest, "make-post.html", gin.H{
			"Error":  errMsg,
			"IsEdit": true,
			"PostID": post.ID,
			"Form":   form,
		})
		return
	}

	post.Title = utils.SanitizeStrict(strings.TrimSpace(form.Title))
	post.Subtitle = utils.SanitizeStrict(strings.TrimSpace(form.Subtitle))
	post.Body = utils.Sanitize(form.Body)
	post.ImageURL = imageURL

	if err := p.db.Save(post).Error; err != nil {
		msg := "Failed to update the post, please try again."
		if isUniqueViolation(err) {
			msg = "A post with that title already exists."
		} else {
			utils.Sugar.Errorf("failed to update post %d: %v", post.ID, err)
		}
		render(ctx, http.StatusBadRequest, "make-post.html", gin.H{
			"Error":  msg,
			"IsEdit": true,
			"PostID": post.ID,
			"Form":   form,
		})
		return
	}

	utils.InvalidateByPrefix(middleware.PageCachePrefix)
	ctx.Redirect(http.StatusFound, "/post/"+strconv.Itoa(int(post.ID)))
}

// Delete removes a post and its comments in one transaction.
func (p *PostController) Delete(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		utils.Sugar.Errorf("failed to delete post %d: %v", post.ID, err)
		ctx.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	utils.InvalidateByPrefix(middleware.PageCachePrefix)
	ctx.Redirect(http.StatusFound, "/")
}

// loadPost fetches the post named by the :id param, aborting with 404/500.
func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		ctx.AbortWithStatus(http.StatusNotFound)
		return nil, false
	}

	var post models.Post
	err = p.db.Preload("User").Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("comments.created_at ASC")
	}).Preload("Comments.User").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.AbortWithStatus(http.StatusNotFound)
		} else {
			utils.Sugar.Errorf("failed to load post %d: %v", id, err)
			ctx.AbortWithStatus(http.StatusInternalServerError)
		}
		return nil, false
	}
	return &post, true
}

// resolveImage picks the post image: a pasted URL wins, then an uploaded file,
// then the previous value. An empty fallback with no input is a user error.
func (p *PostController) resolveImage(ctx *gin.Context, form postForm, fallback string) (string, string) {
	if url := strings.TrimSpace(form.ImageURL); url != "" {
		return url, ""
	}

	file, err := ctx.FormFile("img_file")
	if err == nil && file != nil && file.Filename != "" {
		if !utils.AllowedImageExt(file.Filename) {
			return "", "Only jpg, jpeg, png, gif and webp images are accepted."
		}
		if file.Size > maxUploadSize {
			return "", "Image uploads are limited to 16 MB."
		}
		name := utils.SecureFilename(file.Filename)
		dst := filepath.Join(p.cfg.UploadsDir, name)
		if err := ctx.SaveUploadedFile(file, dst); err != nil {
			utils.Sugar.Errorf("failed to save upload %s: %v", dst, err)
			return "", "Failed to store the uploaded image, please try again."
		}
		return "/static/uploads/" + name, ""
	}

	if fallback != "" {
		return fallback, ""
	}
	return "", "You must paste an image URL or upload an image."
}

// isUniqueViolation sniffs driver-specific unique constraint errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
