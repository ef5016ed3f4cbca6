package common

import (
	"net/url"
	"strings"
)

const schemePrefix = "http"

// DeriveHost returns the host part of a value starting with "http", empty when it has none. Other
// values are considered hosts already and are returned unchanged.
func DeriveHost(uri string) string {
	if !strings.HasPrefix(uri, schemePrefix) {
		return uri
	}

	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}

	return u.Hostname()
}
