package utils

import "github.com/microcosm-cc/bluemonday"

var richTextPolicy = bluemonday.UGCPolicy()

// SanitizeRichText strips unsafe HTML from authored rich-text content.
func SanitizeRichText(input string) string {
	return richTextPolicy.Sanitize(input)
}
