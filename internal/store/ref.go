package store

import (
	"fmt"
	"strings"
)

// refRoot is the first segment of every concept reference.
const refRoot = "COURSES"

// FormatRef builds the reference COURSES/<course>/<id>.
func FormatRef(course, id string) string {
	return refRoot + "/" + course + "/" + id
}

// ParseRef splits a concept reference into course and concept ID. It
// reports false for anything that is not exactly three segments rooted
// at COURSES.
func ParseRef(ref string) (course, id string, ok bool) {
	parts := strings.Split(ref, "/")
	if len(parts) != 3 || parts[0] != refRoot {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// ConceptIDPrefix returns "<first two letters of course, lowercased>-<date>-"
// where date is the part of timestamp before 'T'.
func ConceptIDPrefix(course, timestamp string) string {
	date, _, _ := strings.Cut(timestamp, "T")
	return firstRunes(strings.ToLower(course), 2) + "-" + date + "-"
}

// NextConceptID returns the next sequential ID for the prefix given the IDs
// already present in the course, e.g. "so-2025-08-11-003".
func NextConceptID(course, timestamp string, existing []string) string {
	prefix := ConceptIDPrefix(course, timestamp)
	count := 0
	for _, id := range existing {
		if strings.HasPrefix(id, prefix) {
			count++
		}
	}
	return fmt.Sprintf("%s%03d", prefix, count+1)
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
