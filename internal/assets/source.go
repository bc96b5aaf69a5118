// Package assets fetches and decodes the source photos that the engine
// reveals.
package assets

import (
	"strconv"
	"strings"
)

// DefaultTemplates are the four photos shown in rotation. {width} and
// {height} are replaced with the viewport size at startup.
var DefaultTemplates = []string{
	"https://picsum.photos/id/95/{width}/{height}",
	"https://picsum.photos/id/545/{width}/{height}",
	"https://picsum.photos/id/354/{width}/{height}",
	"https://picsum.photos/id/154/{width}/{height}",
}

// Expand fills in the size placeholders of every template.
func Expand(templates []string, width, height int) []string {
	r := strings.NewReplacer(
		"{width}", strconv.Itoa(width),
		"{height}", strconv.Itoa(height),
	)
	urls := make([]string, len(templates))
	for i, t := range templates {
		urls[i] = r.Replace(t)
	}
	return urls
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
