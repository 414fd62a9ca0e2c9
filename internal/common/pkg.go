package common

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownStr is the String() form of out-of-range enum values.
const UnknownStr = "unknown"

// PkgAlias returns the package alias (last element of path) for a given package path.
// Returns empty string if pkgPath is empty.
func PkgAlias(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}

	return path.Base(pkgPath)
}

// Export returns s with its first letter upper-cased.
func Export(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}

	return string(unicode.ToUpper(r)) + s[n:]
}

// Unexport returns s with its first letter lower-cased.
func Unexport(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}

	return string(unicode.ToLower(r)) + s[n:]
}

// IsExported reports whether s starts with an upper-case letter.
func IsExported(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// LowerFirst returns a JSON-style field name: "ID" -> "id", "OrderID" -> "orderID".
func LowerFirst(s string) string {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}

	switch {
	case i == 0:
		return s
	case i == len(s):
		return strings.ToLower(s)
	case i == 1:
		return strings.ToLower(s[:1]) + s[1:]
	}

	// Keep the last upper-case letter of an acronym prefix: "URLPath" -> "urlPath".
	return strings.ToLower(s[:i-1]) + s[i-1:]
}
