package utils

import (
	"strings"
	"testing"
)

func TestAllowedImageExt(t *testing.T) {
	allowed := []string{"photo.jpg", "photo.JPEG", "a.png", "b.gif", "c.webp", "dir/x.PNG"}
	for _, name := range allowed {
		if !AllowedImageExt(name) {
			t.Errorf("AllowedImageExt(%q) = false, want true", name)
		}
	}

	denied := []string{"evil.sh", "shell.php", "noext", "archive.tar.gz", "x.svg", ""}
	for _, name := range denied {
		if AllowedImageExt(name) {
			t.Errorf("AllowedImageExt(%q) = true, want false", name)
		}
	}
}

func TestSecureFilenameSanitizes(t *testing.T) {
	got := SecureFilename("My Photo (1).png")

	if !strings.HasSuffix(got, "My_Photo__1_.png") {
		t.Errorf("SecureFilename = %q, want suffix %q", got, "My_Photo__1_.png")
	}
	for _, r := range got {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			r == '.' || r == '-' || r == '_'
		if !ok {
			t.Errorf("SecureFilename = %q contains unsafe rune %q", got, r)
		}
	}
}

func TestSecureFilenameStripsPath(t *testing.T) {
	got := SecureFilename("../../etc/passwd.png")
	if strings.Contains(got, "/") || strings.Contains(got, "..") {
		t.Errorf("SecureFilename = %q, path components must be removed", got)
	}
}

func TestSecureFilenameNeverEmpty(t *testing.T) {
	for _, name := range []string{"", ".", "...", "///"} {
		got := SecureFilename(name)
		if len(got) <= 9 { // uuid prefix + underscore alone
			t.Errorf("SecureFilename(%q) = %q, want a non-empty safe name", name, got)
		}
	}
}

func TestSecureFilenameUnique(t *testing.T) {
	a := SecureFilename("same.png")
	b := SecureFilename("same.png")
	if a == b {
		t.Errorf("SecureFilename produced colliding names: %q", a)
	}
}
