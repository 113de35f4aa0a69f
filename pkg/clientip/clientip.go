package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Unknown is returned when no valid address can be derived from a request. Rate limit
// keys for anonymous submissions collapse into one bucket in that case.
const Unknown = "unknown"

// DefaultHeaders is the proxy header priority used by GetIP.
var DefaultHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP returns the client address using DefaultHeaders, then RemoteAddr.
func GetIP(r *http.Request) string {
	return Resolve(r, DefaultHeaders)
}

// Resolve walks headers in order and returns the first valid address. For
// X-Forwarded-For style lists the left-most valid entry wins. Falls back to
// RemoteAddr, then Unknown.
func Resolve(r *http.Request, headers []string) string {
	for _, h := range headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		for part := range strings.SplitSeq(v, ",") {
			if ip := parseIP(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := parseIP(host); ip != "" {
		return ip
	}
	return Unknown
}

// parseIP validates and normalizes an address. Invalid input yields "".
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
