package utils

import (
    "regexp"
    "strings"
)

var (
    slugStrip    = regexp.MustCompile(`[^\w\s-]`)
    slugCollapse = regexp.MustCompile(`[\s_-]+`)
)

// Slugify lower-cases s, drops everything but word characters, spaces and
// hyphens, collapses runs of whitespace, underscores and hyphens into a
// single hyphen and trims hyphens from both ends.
func Slugify(s string) string {
    s = strings.ToLower(strings.TrimSpace(s))
    s = slugStrip.ReplaceAllString(s, "")
    s = slugCollapse.ReplaceAllString(s, "-")
    return strings.Trim(s, "-")
}
