package transform

import (
	"unicode"
	"unicode/utf8"
)

// DeriveName derives a declaration name from a field name by upper-casing
// its first character. Names are not checked for uniqueness: two nested
// shapes under the same field name produce the same declaration name.
func DeriveName(fieldName string) string {
	r, size := utf8.DecodeRuneInString(fieldName)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + fieldName[size:]
}
