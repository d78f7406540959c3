package sanitizer

import (
	"net/url"
	"strings"
)

// SanitizeImageURL accepts only absolute https URLs, such as LINE profile
// pictures, and returns "" for anything else.
func SanitizeImageURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return ""
	}
	return u.String()
}
