package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

const chartPrefix = "charts"

// BuildChartKey returns the object key of a chart image with the given id
// and extension, e.g. charts/<id>.png.
func BuildChartKey(id, ext string) (string, error) {
	if err := validatePathComponent(id, "chart id"); err != nil {
		return "", err
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if err := validatePathComponent(ext, "extension"); err != nil {
		return "", err
	}
	return path.Join(chartPrefix, id+"."+ext), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
