// Package text holds the content helpers every provider relies on before
// sending user content to a vendor: HTML stripping and word counting.
package text

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy removes every tag and the content of script/style elements.
// bluemonday policies are safe for concurrent use once built.
var stripPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// Sanitize converts HTML (or plain text) into compact plain text suitable
// for a prompt. It is deterministic and has no side effects.
func Sanitize(content string) string {
	if content == "" {
		return ""
	}
	stripped := html.UnescapeString(stripPolicy.Sanitize(content))

	lines := strings.Split(stripped, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// CountWords returns the number of whitespace-separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
