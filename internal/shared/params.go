// Utilities for pulling query parameters out of loosely formed callback URLs.
package shared

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// paramValue restricts extracted values to the URL-safe alphabet providers use for codes and error slugs.
var paramValue = regexp.MustCompile(`^[A-Za-z0-9._~+/=-]+$`)

// ExtractQueryParam finds the first occurrence of name in the query or fragment of rawURL.
//
// The scan is a regular expression over the raw string rather than [url.Parse]: deep-link handlers
// hand back strings like "upl://callback?code=..#" that do not always survive strict URI parsing.
// Returns false when the parameter is missing, empty, or fails percent-decoding.
func ExtractQueryParam(rawURL, name string) (string, bool) {
	re := regexp.MustCompile(`[?&#]` + regexp.QuoteMeta(name) + `=([^&#]*)`)
	match := re.FindStringSubmatch(rawURL)
	if len(match) < 2 || match[1] == "" {
		return "", false
	}

	value, err := url.QueryUnescape(match[1])
	if err != nil {
		return "", false
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// ValidateParamValue checks that an extracted value only uses characters from the URL-safe alphabet.
func ValidateParamValue(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: empty %s", ErrInvalidRedirect, name)
	}
	if !paramValue.MatchString(value) {
		return fmt.Errorf("%w: unexpected characters in %s", ErrInvalidRedirect, name)
	}
	return nil
}
