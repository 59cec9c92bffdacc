package util

// GetPtr returns a pointer to v.
func GetPtr[T any](v T) *T {
	return &v
}
