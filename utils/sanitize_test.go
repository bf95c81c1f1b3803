package utils

import (
	"strings"
	"testing"
)

func TestSanitizeStripsScripts(t *testing.T) {
	got := Sanitize(`<p>hello</p><script>alert(1)</script>`)
	if strings.Contains(got, "<script") {
		t.Errorf("Sanitize left a script tag: %q", got)
	}
	if !strings.Contains(got, "<p>hello</p>") {
		t.Errorf("Sanitize removed benign markup: %q", got)
	}
}

func TestSanitizeStrictStripsAllTags(t *testing.T) {
	got := SanitizeStrict(`<b>Bold</b> Title`)
	if got != "Bold Title" {
		t.Errorf("SanitizeStrict = %q, want %q", got, "Bold Title")
	}
}
