// Package sanitize cleans user-submitted text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// Text strips markup and surrounding whitespace and returns the unescaped text.
// Templates escape on output, so the stored value stays readable plain text.
func Text(val string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(val)))
}
