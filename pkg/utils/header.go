package utils

import "strings"

// ColumnIndex returns the position of name in a header row, or -1 when no
// cell matches. An exact match wins; otherwise surrounding whitespace on
// either side is ignored.
func ColumnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	want := strings.TrimSpace(name)
	for i, h := range header {
		if strings.TrimSpace(h) == want {
			return i
		}
	}
	return -1
}
