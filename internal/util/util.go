// Package util holds string helpers for the host line protocol.
package util

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Unquote strips one pair of surrounding double quotes and turns doubled
// quotes inside them into single ones, the way the host escapes a quoted
// argument. Arguments that are not quoted, JSON included, are returned
// unchanged.
func Unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
}

// JSONString renders s as a JSON string literal. Markup characters are kept
// as they are, since replies are read by the host and never by a browser.
func JSONString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
