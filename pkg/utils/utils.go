package utils

import (
	"log"
	"math"
	"runtime/debug"
)

// GoSafe runs fn in a new goroutine and recovers panics so a single bad task
// cannot take the worker down.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}

// NilIfNaN maps NaN and infinities to nil so vendor gaps become SQL NULLs.
func NilIfNaN(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ScrubNaN replaces NaN/Inf float values in a row map with nil in place.
func ScrubNaN(row map[string]interface{}) {
	for k, v := range row {
		if f, ok := v.(float64); ok {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				row[k] = nil
			}
		}
	}
}
