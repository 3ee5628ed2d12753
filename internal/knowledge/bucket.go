package knowledge

import (
	"math"
	"time"
)

// Bucket is an age class of concepts.
type Bucket string

const (
	BucketToday     Bucket = "TODAY"
	BucketShortTerm Bucket = "SHORT_TERM"
	BucketLongTerm  Bucket = "LONG_TERM"
)

// ShortTermDays is the oldest age, in whole days, still counted as short term.
const ShortTermDays = 30

// Classify buckets a concept by its age. Age is floored to whole days, so
// a timestamp later than now is -1 days old or less and lands in
// SHORT_TERM with the recent concepts.
func Classify(age time.Duration) Bucket {
	days := AgeDays(age)
	switch {
	case days == 0:
		return BucketToday
	case days <= ShortTermDays:
		return BucketShortTerm
	default:
		return BucketLongTerm
	}
}

// AgeDays returns age in whole days, rounded toward negative infinity.
func AgeDays(age time.Duration) int {
	return int(math.Floor(age.Hours() / 24))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 creation timestamp. Zone-less values
// are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
