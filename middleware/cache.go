package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quillblog/quill/session"
	"github.com/quillblog/quill/utils"
)

// PageCachePrefix namespaces cached page bodies in Redis. Write handlers
// invalidate the whole prefix after any post or comment mutation.
const PageCachePrefix = "cache:page:"

type cachingWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *cachingWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

// CachePage serves anonymous GET responses from Redis and stores misses.
// Requests with a logged-in session or a pending flash notice bypass the cache
// entirely, so personalised chrome and one-time notices always render fresh.
func CachePage(ttl time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}
		if _, ok := UserFrom(ctx); ok || session.HasFlashes(ctx) {
			ctx.Next()
			return
		}

		key := PageCachePrefix + ctx.Request.URL.Path
		if b, ok := utils.CacheGetBytes(key); ok {
			ctx.Data(http.StatusOK, "text/html; charset=utf-8", b)
			ctx.Abort()
			return
		}

		cw := &cachingWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = cw
		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK && len(cw.body) > 0 {
			utils.CacheSetBytes(key, cw.body, ttl)
		}
	}
}
