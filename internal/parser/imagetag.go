// Package parser recognises the image tag a cell description may carry.
package parser

import (
	"fmt"
	"regexp"
)

// imageTagRe matches a description that is exactly one image tag.
var imageTagRe = regexp.MustCompile(`^\[image='(.+)'\]$`)

// ImageRef returns the filename referenced by description when the whole
// description is an image tag.
func ImageRef(description string) (string, bool) {
	m := imageTagRe.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ImageTag formats filename as an image tag.
func ImageTag(filename string) string {
	return fmt.Sprintf("[image='%s']", filename)
}

// SameImage reports whether both descriptions reference the same image file.
func SameImage(a, b string) bool {
	ra, okA := ImageRef(a)
	rb, okB := ImageRef(b)
	return okA && okB && ra == rb
}
