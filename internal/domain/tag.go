package domain

import "regexp"

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#3b82f6"

var tagColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Tag is a named label with a display color. Tickets reference tags by name.
type Tag struct {
	ID    string
	Name  string
	Color string
}

// IsValidTagColor reports whether color is a #rgb or #rrggbb hex value.
func IsValidTagColor(color string) bool {
	return tagColorPattern.MatchString(color)
}
