// Package extract locates JSON payloads that pages embed as a global variable
// assignment inside a script block, and provides helpers for reading them.
package extract

import (
	"regexp"
	"strings"
)

// Empty is returned when no payload can be located.
const Empty = "{}"

const scriptEnd = "</script>"

// bracketSpelling rewrites window.NAME as window["NAME"].
func bracketSpelling(marker string) string {
	i := strings.IndexByte(marker, '.')
	if i < 0 {
		return marker
	}
	return marker[:i] + `["` + marker[i+1:] + `"]`
}

func locate(page, marker string) int {
	if i := strings.Index(page, marker); i >= 0 {
		return i
	}
	if alt := bracketSpelling(marker); alt != marker {
		return strings.Index(page, alt)
	}
	return -1
}

// HasMarker reports whether page assigns marker, in either the dotted or the
// bracket-subscript spelling.
func HasMarker(page, marker string) bool {
	return locate(page, marker) >= 0
}

// EmbeddedJSON returns the object literal assigned to marker.
//
// The search is bounded by the first </script> after the marker. Within that
// block the payload runs from the first '{' to the last '}'. Any trailing
// statement that itself contains braces ends up in the result and makes it
// fail to decode; callers treat that as a parse failure. Returns Empty when the
// marker is missing or the block has no brace pair.
func EmbeddedJSON(page, marker string) string {
	start := locate(page, marker)
	if start < 0 {
		return Empty
	}

	block := page[start:]
	if end := strings.Index(block, scriptEnd); end >= 0 {
		block = block[:end]
	}

	open := strings.IndexByte(block, '{')
	last := strings.LastIndexByte(block, '}')
	if open < 0 || last <= open {
		return Empty
	}
	return block[open : last+1]
}

var undefinedValue = regexp.MustCompile(`([:\[,]\s*)undefined(\s*[,\]}])`)

// NormalizeJSLiterals rewrites bare undefined values as null so that a
// serialized JS object decodes as JSON. Occurrences inside string values are
// left alone unless they look exactly like a value position.
func NormalizeJSLiterals(s string) string {
	for {
		next := undefinedValue.ReplaceAllString(s, "${1}null${2}")
		if next == s {
			return s
		}
		s = next
	}
}

// IsChallenge reports whether page contains any of the given interstitial markers.
func IsChallenge(page string, markers ...string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(page, m) {
			return true
		}
	}
	return false
}
