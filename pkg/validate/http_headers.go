package validate

import (
	"net"
	"strings"
)

// headers and paths end up in logs, so they are sanitized rather than rejected:
// a bad value is truncated or replaced, never returned as an error.

const (
	MaxPathLength      = 500
	MaxUserAgentLength = 300
	MaxRequestIdLength = 64
)

// SanitizeMethod truncates unexpected methods; known methods pass through.
func SanitizeMethod(method string) string {

	if len(method) > 10 {
		method = method[:10] + "..."
	}

	return dropControl(method)
}

// SanitizePath removes characters that could break log lines and truncates long paths.
// The path is not decoded: parameter names arrive percent-encoded in the query
// and the path is logged exactly as received.
func SanitizePath(path string) string {

	if len(path) > MaxPathLength {
		path = path[:MaxPathLength] + "..."
	}

	return dropControl(path)
}

// SanitizeIp strips a port if present and returns "invalid" for anything that is not an ip.
func SanitizeIp(ip string) string {

	if len(ip) > 45 {
		ip = ip[:45]
	}

	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	if net.ParseIP(ip) == nil {
		return "invalid"
	}

	return ip
}

// SanitizeUserAgent truncates the user agent and removes control characters.
func SanitizeUserAgent(userAgent string) string {

	if len(userAgent) > MaxUserAgentLength {
		userAgent = userAgent[:MaxUserAgentLength] + "..."
	}

	return dropControl(userAgent)
}

// SanitizeRequestId keeps caller-provided request ids short and printable.
func SanitizeRequestId(id string) string {

	if len(id) > MaxRequestIdLength {
		id = id[:MaxRequestIdLength]
	}

	return dropControl(id)
}

// dropControl removes ascii control characters, including newlines and null bytes.
func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
