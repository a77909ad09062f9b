package utils

import "strings"

// StringInSlice returns a boolean value if a particular
// string has been found in a slice of strings.
func StringInSlice(a string, list []string) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

// OneOf returns the error message for a value which must be one of
// the allowed values.
func OneOf(list []string) string {
	return "allowed values are [" + strings.Join(list, ", ") + "]"
}
