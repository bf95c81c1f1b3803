// Package session wraps gin-contrib/sessions with the two pieces of state the
// application keeps between requests: the logged-in user id and one-time flash
// notices surfaced on the next rendered page.
package session

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func init() {
	gob.Register([]string{})
}

const (
	userIDKey  = "user_id"
	flashesKey = "flashes"
)

// SetUserID marks the session as authenticated for the given user.
func SetUserID(c *gin.Context, id uint) error {
	s := sessions.Default(c)
	s.Set(userIDKey, id)
	return s.Save()
}

// UserID returns the authenticated user id stored in the session, if any.
func UserID(c *gin.Context) (uint, bool) {
	s := sessions.Default(c)
	if v := s.Get(userIDKey); v != nil {
		if id, ok := v.(uint); ok && id != 0 {
			return id, true
		}
	}
	return 0, false
}

// Clear removes all session state and expires the cookie.
func Clear(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}

// Flash queues a one-time notice for the next rendered page.
func Flash(c *gin.Context, msg string) {
	s := sessions.Default(c)
	flashes := readFlashes(s)
	s.Set(flashesKey, append(flashes, msg))
	_ = s.Save()
}

// TakeFlashes returns queued notices and removes them from the session.
func TakeFlashes(c *gin.Context) []string {
	s := sessions.Default(c)
	flashes := readFlashes(s)
	if len(flashes) > 0 {
		s.Delete(flashesKey)
		_ = s.Save()
	}
	return flashes
}

// HasFlashes reports whether notices are queued without consuming them.
// Cached page serving checks this so a pending notice is never swallowed.
func HasFlashes(c *gin.Context) bool {
	return len(readFlashes(sessions.Default(c))) > 0
}

func readFlashes(s sessions.Session) []string {
	if v := s.Get(flashesKey); v != nil {
		if flashes, ok := v.([]string); ok {
			return flashes
		}
	}
	return nil
}
