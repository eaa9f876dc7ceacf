package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a time ordered UUIDv7 string.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NowMillis returns the current time as epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// ToMillis converts t to epoch milliseconds.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// SearchText folds text fields into the lower-cased form matched by
// substring search. Both repository adapters compare against this value.
func SearchText(fields ...string) string {
	return strings.ToLower(strings.Join(fields, "\n"))
}
