package routes

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quillblog/quill/config"
	"github.com/quillblog/quill/models"
	"github.com/quillblog/quill/utils"
)

func newTestEnv(t *testing.T) (*gin.Engine, *gorm.DB, config.AppConfig) {
	return newTestEnvCfg(t, nil)
}

func newTestEnvCfg(t *testing.T, mutate func(*config.AppConfig)) (*gin.Engine, *gorm.DB, config.AppConfig) {
	t.Helper()

	_ = utils.InitLogger(config.AppConfig{LogLevel: "error"})

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	cfg := config.AppConfig{
		AppPort:            "0",
		SecretKey:          "test-secret",
		GinMode:            "test",
		AdminUserID:        1,
		UploadsDir:         t.TempDir(),
		RateLimitPerMinute: 10000,
		TemplateGlob:       filepath.Join("..", "templates", "*.html"),
		StaticDir:          filepath.Join("..", "static"),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	return SetupRouter(db, cfg), db, cfg
}

// client carries session cookies across requests like a browser would.
type client struct {
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func newClient(router *gin.Engine) *client {
	return &client{router: router, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c.send(t, req)
}

func (c *client) send(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) register(t *testing.T, name, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return c.do(t, http.MethodPost, "/register", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
		"confirm":  {password},
	})
}

func (c *client) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return c.do(t, http.MethodPost, "/login", url.Values{
		"email":    {email},
		"password": {password},
	})
}

func wantRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusFound, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("redirect location = %q, want %q", got, location)
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestRegisterDuplicateEmailRedirectsToLogin(t *testing.T) {
	router, db, _ := newTestEnv(t)

	c := newClient(router)
	wantRedirect(t, c.register(t, "Alice", "alice@x.com", "password1"), "/")

	if n := countRows(t, db, &models.User{}); n != 1 {
		t.Fatalf("user count = %d, want 1", n)
	}

	// second registration with the same email must not create a row
	c2 := newClient(router)
	wantRedirect(t, c2.register(t, "Alice Again", "alice@x.com", "password1"), "/login")

	if n := countRows(t, db, &models.User{}); n != 1 {
		t.Fatalf("user count after duplicate = %d, want 1", n)
	}
}

func TestRegisterValidation(t *testing.T) {
	router, db, _ := newTestEnv(t)
	c := newClient(router)

	w := c.do(t, http.MethodPost, "/register", url.Values{
		"name":     {"Bob"},
		"email":    {"bob@x.com"},
		"password": {"short"},
		"confirm":  {"short"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if n := countRows(t, db, &models.User{}); n != 0 {
		t.Fatalf("user count = %d, want 0", n)
	}
}

func TestLoginWrongPasswordNeverSucceeds(t *testing.T) {
	router, _, _ := newTestEnv(t)

	newClient(router).register(t, "Alice", "alice@x.com", "password1")

	c := newClient(router)
	w := c.login(t, "alice@x.com", "wrongpassword")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid email or password") {
		t.Fatalf("expected generic invalid-credentials notice, got: %s", w.Body.String())
	}

	// unknown email yields the same notice
	w = c.login(t, "nobody@x.com", "password1")
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Invalid email or password") {
		t.Fatalf("unknown email should be indistinguishable from wrong password")
	}

	wantRedirect(t, c.login(t, "alice@x.com", "password1"), "/")
}

func TestLogoutClearsSession(t *testing.T) {
	router, _, _ := newTestEnv(t)

	c := newClient(router)
	c.register(t, "Alice", "alice@x.com", "password1")
	wantRedirect(t, c.do(t, http.MethodGet, "/logout", nil), "/")

	// session is gone, logout now requires login again
	wantRedirect(t, c.do(t, http.MethodGet, "/logout", nil), "/login")
}

func seedAdminAndPost(t *testing.T, router *gin.Engine) *client {
	t.Helper()
	admin := newClient(router)
	wantRedirect(t, admin.register(t, "Admin", "admin@x.com", "password1"), "/")
	wantRedirect(t, admin.do(t, http.MethodPost, "/new-post", url.Values{
		"title":    {"Hello"},
		"subtitle": {"First post"},
		"body":     {"<p>Welcome to the blog.</p>"},
		"img_url":  {"http://img/x.png"},
	}), "/")
	return admin
}

func TestAnonymousCommentNeverInserts(t *testing.T) {
	router, db, _ := newTestEnv(t)
	seedAdminAndPost(t, router)

	anon := newClient(router)
	wantRedirect(t, anon.do(t, http.MethodPost, "/post/1", url.Values{"body": {"hi"}}), "/login")

	if n := countRows(t, db, &models.Comment{}); n != 0 {
		t.Fatalf("comment count = %d, want 0", n)
	}
}

func TestCommentWithSession(t *testing.T) {
	router, db, _ := newTestEnv(t)
	seedAdminAndPost(t, router)

	c := newClient(router)
	c.register(t, "Bob", "bob@x.com", "password1")
	wantRedirect(t, c.do(t, http.MethodPost, "/post/1", url.Values{"body": {"Nice post!"}}), "/post/1")

	var comment models.Comment
	if err := db.First(&comment).Error; err != nil {
		t.Fatalf("expected one comment: %v", err)
	}
	if comment.PostID != 1 || comment.UserID != 2 {
		t.Fatalf("comment links = post %d user %d, want post 1 user 2", comment.PostID, comment.UserID)
	}

	// read-after-write: the comment shows on the post page
	w := c.do(t, http.MethodGet, "/post/1", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Nice post!") {
		t.Fatalf("comment not visible on post page")
	}
}

func TestAdminGate(t *testing.T) {
	router, _, _ := newTestEnv(t)

	admin := newClient(router)
	admin.register(t, "Admin", "admin@x.com", "password1") // id 1

	other := newClient(router)
	other.register(t, "Bob", "bob@x.com", "password1") // id 2

	anon := newClient(router)

	for _, path := range []string{"/new-post", "/edit-post/1", "/delete/1"} {
		if w := anon.do(t, http.MethodGet, path, nil); w.Code != http.StatusForbidden {
			t.Fatalf("anonymous %s status = %d, want 403", path, w.Code)
		}
		if w := other.do(t, http.MethodGet, path, nil); w.Code != http.StatusForbidden {
			t.Fatalf("non-admin %s status = %d, want 403", path, w.Code)
		}
	}

	if w := admin.do(t, http.MethodGet, "/new-post", nil); w.Code != http.StatusOK {
		t.Fatalf("admin /new-post status = %d, want 200", w.Code)
	}
}

func TestCreatePostWithoutImageRejected(t *testing.T) {
	router, db, _ := newTestEnv(t)

	admin := newClient(router)
	admin.register(t, "Admin", "admin@x.com", "password1")

	w := admin.do(t, http.MethodPost, "/new-post", url.Values{
		"title":    {"No Image"},
		"subtitle": {"sub"},
		"body":     {"body"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "paste an image URL or upload an image") {
		t.Fatalf("expected missing-image notice, got: %s", w.Body.String())
	}
	if n := countRows(t, db, &models.Post{}); n != 0 {
		t.Fatalf("post count = %d, want 0", n)
	}
}

func TestCreatePostShowsOnListing(t *testing.T) {
	router, _, _ := newTestEnv(t)
	seedAdminAndPost(t, router)

	w := newClient(router).do(t, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("listing status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Hello") || !strings.Contains(body, "http://img/x.png") {
		t.Fatalf("listing missing created post, got: %s", body)
	}
}

func TestDuplicateTitleRejected(t *testing.T) {
	router, db, _ := newTestEnv(t)
	admin := seedAdminAndPost(t, router)

	w := admin.do(t, http.MethodPost, "/new-post", url.Values{
		"title":    {"Hello"},
		"subtitle": {"another"},
		"body":     {"body"},
		"img_url":  {"http://img/y.png"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if n := countRows(t, db, &models.Post{}); n != 1 {
		t.Fatalf("post count = %d, want 1", n)
	}
}

func TestEditPreservesImageWhenNoneSupplied(t *testing.T) {
	router, db, _ := newTestEnv(t)
	admin := seedAdminAndPost(t, router)

	wantRedirect(t, admin.do(t, http.MethodPost, "/edit-post/1", url.Values{
		"title":    {"Hello Again"},
		"subtitle": {"Edited"},
		"body":     {"<p>Edited body.</p>"},
		"img_url":  {""},
	}), "/post/1")

	var post models.Post
	if err := db.First(&post, 1).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if post.ImageURL != "http://img/x.png" {
		t.Fatalf("image reference = %q, want preserved %q", post.ImageURL, "http://img/x.png")
	}
	if post.Title != "Hello Again" {
		t.Fatalf("title = %q, want %q", post.Title, "Hello Again")
	}
}

func multipartPostForm(t *testing.T, fields map[string]string, fileField, filename string, fileBody []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile(fileField, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(fileBody); err != nil {
		t.Fatalf("write file body: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func TestUploadedImageStoredUnderUploadsDir(t *testing.T) {
	router, db, cfg := newTestEnv(t)

	admin := newClient(router)
	admin.register(t, "Admin", "admin@x.com", "password1")

	buf, contentType := multipartPostForm(t, map[string]string{
		"title":    "Uploaded",
		"subtitle": "sub",
		"body":     "body",
	}, "img_file", "My Photo (1).png", []byte("png-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/new-post", buf)
	req.Header.Set("Content-Type", contentType)
	w := admin.send(t, req)
	wantRedirect(t, w, "/")

	var post models.Post
	if err := db.First(&post).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if !strings.HasPrefix(post.ImageURL, "/static/uploads/") {
		t.Fatalf("image reference = %q, want /static/uploads/ path", post.ImageURL)
	}
	stored := filepath.Join(cfg.UploadsDir, strings.TrimPrefix(post.ImageURL, "/static/uploads/"))
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("uploaded file not written: %v", err)
	}
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	router, db, _ := newTestEnv(t)

	admin := newClient(router)
	admin.register(t, "Admin", "admin@x.com", "password1")

	buf, contentType := multipartPostForm(t, map[string]string{
		"title":    "Bad Upload",
		"subtitle": "sub",
		"body":     "body",
	}, "img_file", "evil.sh", []byte("#!/bin/sh"))

	req := httptest.NewRequest(http.MethodPost, "/new-post", buf)
	req.Header.Set("Content-Type", contentType)
	w := admin.send(t, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if n := countRows(t, db, &models.Post{}); n != 0 {
		t.Fatalf("post count = %d, want 0", n)
	}
}

func TestUploadRejectsOversizedImage(t *testing.T) {
	router, db, _ := newTestEnv(t)

	admin := newClient(router)
	admin.register(t, "Admin", "admin@x.com", "password1")

	big := bytes.Repeat([]byte("a"), 17<<20)
	buf, contentType := multipartPostForm(t, map[string]string{
		"title":    "Huge Upload",
		"subtitle": "sub",
		"body":     "body",
	}, "img_file", "big.png", big)

	req := httptest.NewRequest(http.MethodPost, "/new-post", buf)
	req.Header.Set("Content-Type", contentType)
	w := admin.send(t, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "limited to 16 MB") {
		t.Fatalf("expected size-limit notice, got: %s", w.Body.String())
	}
	if n := countRows(t, db, &models.Post{}); n != 0 {
		t.Fatalf("post count = %d, want 0", n)
	}
}

func TestRateLimitOnAuthEndpoints(t *testing.T) {
	// tight limit: 2/min means a burst of 1 token
	router, _, _ := newTestEnvCfg(t, func(c *config.AppConfig) {
		c.RateLimitPerMinute = 2
	})

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := hit("203.0.113.7"); code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", code)
	}
	if code := hit("203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", code)
	}

	// a different client IP holds its own bucket
	if code := hit("203.0.113.8"); code != http.StatusOK {
		t.Fatalf("other IP status = %d, want 200", code)
	}
}

func TestDeletePostCascadesComments(t *testing.T) {
	router, db, _ := newTestEnv(t)
	admin := seedAdminAndPost(t, router)

	commenter := newClient(router)
	commenter.register(t, "Bob", "bob@x.com", "password1")
	commenter.do(t, http.MethodPost, "/post/1", url.Values{"body": {"first!"}})

	wantRedirect(t, admin.do(t, http.MethodGet, "/delete/1", nil), "/")

	if n := countRows(t, db, &models.Post{}); n != 0 {
		t.Fatalf("post count = %d, want 0", n)
	}
	if n := countRows(t, db, &models.Comment{}); n != 0 {
		t.Fatalf("comment count = %d, want 0 (cascade)", n)
	}
}

func TestPostNotFound(t *testing.T) {
	router, _, _ := newTestEnv(t)

	if w := newClient(router).do(t, http.MethodGet, "/post/999", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestStaticPagesAndHealth(t *testing.T) {
	router, _, _ := newTestEnv(t)
	c := newClient(router)

	for _, path := range []string{"/about", "/contact"} {
		if w := c.do(t, http.MethodGet, path, nil); w.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, w.Code)
		}
	}

	w := c.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("health check failed: %d %s", w.Code, w.Body.String())
	}
}
