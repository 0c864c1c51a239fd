// Package htmlsanitize strips markup from user-controlled profile strings.
//
// Display names and email addresses come from the OAuth provider and are
// attacker-influenced; templates escape them contextually, and this package
// removes any embedded markup before the values ever reach a template or a
// log line.
package htmlsanitize

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Clean returns s with all HTML elements and attributes removed.
func Clean(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// CleanURL returns s only if it parses as an absolute http(s) URL, otherwise
// the empty string. Avatar URLs are interpolated into img src attributes and
// must never carry another scheme.
func CleanURL(s string) string {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
