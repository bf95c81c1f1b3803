package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// allowedImageExts is the extension allow-list for uploaded post images.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// AllowedImageExt reports whether the filename carries an accepted image extension.
func AllowedImageExt(filename string) bool {
	return allowedImageExts[strings.ToLower(filepath.Ext(filename))]
}

// SecureFilename reduces an uploaded filename to a filesystem-safe form:
// the base name with anything outside [A-Za-z0-9._-] replaced by underscores,
// prefixed with a short uuid to avoid collisions.
func SecureFilename(filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == "/" || name == "" {
		name = fmt.Sprintf("file_%d", time.Now().UnixNano())
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	safe := strings.Trim(b.String(), "._")
	if safe == "" {
		safe = fmt.Sprintf("file_%d", time.Now().UnixNano())
	}

	return uuid.NewString()[:8] + "_" + safe
}
