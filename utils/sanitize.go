package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans rich-text HTML (post bodies, comments) to prevent XSS attacks.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizeStrict strips all HTML, for plain-text fields like titles.
func SanitizeStrict(input string) string {
	return strictPolicy.Sanitize(input)
}
