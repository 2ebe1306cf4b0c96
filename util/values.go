package util

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T { return &v }

// Coalesce returns the first non-zero value.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
