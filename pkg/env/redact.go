package env

import (
	"net/url"
	"strings"
)

// Mask hides all but the first and last 4 characters of s.
// Values of 8 characters or fewer are fully masked.
func Mask(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

// RedactURL masks the password and any token-like query values
// in a page address before it is logged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.User != nil {
		if password, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), Mask(password))
		}
	}
	q := u.Query()
	changed := false
	for key, values := range q {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "token") || strings.Contains(lower, "key") {
			for i := range values {
				values[i] = Mask(values[i])
			}
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
