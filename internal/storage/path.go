package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var artifactIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// ChartKey is charts/date=YYYY-MM-DD/<id>.png, dated in UTC.
func ChartKey(id string, at time.Time) (string, error) {
	return artifactKey("charts", id, ".png", at)
}

// ExportKey is exports/date=YYYY-MM-DD/<id>.parquet, dated in UTC.
func ExportKey(id string, at time.Time) (string, error) {
	return artifactKey("exports", id, ".parquet", at)
}

// ValidArtifactID reports whether id can be used as a file or object name.
func ValidArtifactID(id string) bool {
	return artifactIDPattern.MatchString(id)
}

func artifactKey(kind, id, ext string, at time.Time) (string, error) {
	if !ValidArtifactID(id) {
		return "", fmt.Errorf("invalid artifact id: %q", id)
	}
	ts := at.UTC()
	return path.Join(
		kind,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		id+ext,
	), nil
}
