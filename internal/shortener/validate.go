package shortener

import (
	"net/url"
	"strings"
)

// ValidateURL checks that rawURL can be used as a redirect target and returns it in a
// canonical form.
// - Requires an http or https scheme and a host
// - Lowercases the scheme and host
// - Removes default ports (80 for http, 443 for https)
// Path, query and fragment are left untouched.
func ValidateURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrEmptyURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrInvalidURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}

	if u.Hostname() == "" {
		return "", ErrInvalidURL
	}

	host := u.Host
	if strings.HasSuffix(host, ":80") && u.Scheme == "http" {
		u.Host = strings.TrimSuffix(host, ":80")
	} else if strings.HasSuffix(host, ":443") && u.Scheme == "https" {
		u.Host = strings.TrimSuffix(host, ":443")
	}

	return u.String(), nil
}
