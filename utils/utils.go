package utils

import (
	"reflect"
	"time"
)

func DefaultIfZero[T any](v T, fallback T) T {
	if reflect.ValueOf(v).IsZero() {
		return fallback
	}
	return v
}

func Pointer[T any](v T) *T {
	return &v
}

// DurationMs converts a millisecond count to a time.Duration.
func DurationMs(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
