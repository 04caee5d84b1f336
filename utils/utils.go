// Package utils provides utility functions for the application.
package utils

import "strings"

func ToPtr[T any](v T) *T {
	return &v
}

func IsTrue(b *bool) bool {
	return b != nil && *b
}

// Deref returns the pointed value or the zero value for nil.
func Deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// NonEmptyPtr returns nil for blank strings.
func NonEmptyPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// InRange reports whether every code lies in [lo, hi].
func InRange(codes []int, lo, hi int) bool {
	for _, c := range codes {
		if c < lo || c > hi {
			return false
		}
	}
	return true
}
