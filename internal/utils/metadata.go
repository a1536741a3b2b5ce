package utils

// ToStringSlice keeps the string members of a decoded JSON array.
func ToStringSlice(slice []any) []string {
	stringSlice := make([]string, 0)
	for _, v := range slice {
		if s, ok := v.(string); ok {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}

// StringValue reads a string entry from a metadata map.
func StringValue(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// StringSliceValue reads a string list from a metadata map. Both decoded JSON
// arrays and native string slices are accepted.
func StringSliceValue(m map[string]any, key string) []string {
	if m == nil {
		return []string{}
	}
	switch v := m[key].(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		return ToStringSlice(v)
	}
	return []string{}
}

// CloneMap returns a shallow copy of m (nil stays nil).
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Value dereferences v, returning the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}
