package utils

import "strings"

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Intersect returns the elements present in both slices, preserving the
// order of the first slice.
func Intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(b))
	for _, item := range b {
		set[item] = struct{}{}
	}
	var shared []string
	for _, item := range a {
		if _, ok := set[item]; ok {
			shared = append(shared, item)
		}
	}
	return shared
}

// Head returns at most n leading elements of items.
func Head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
