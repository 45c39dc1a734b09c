package helpers

import (
	"net/url"
	"strings"
)

// ResolveURL resolves href against base and drops the fragment.
// It returns "" when either side cannot be parsed.
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil || href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

// WithinBase reports whether target lives under base: same scheme, same host
// and a path that starts with the base path.
func WithinBase(base *url.URL, target string) bool {
	if base == nil {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	if !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) {
		return false
	}
	prefix := strings.TrimSuffix(base.Path, "/")
	return prefix == "" || u.Path == prefix || strings.HasPrefix(u.Path, prefix+"/")
}

// SameHost reports whether target is served by the same host as base.
func SameHost(base *url.URL, target string) bool {
	if base == nil {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, base.Host)
}

// ContainsAny reports whether s contains any of the given substrings.
func ContainsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// IsNavigableHref reports whether href points to a page rather than a
// fragment, script or mail/phone handler.
func IsNavigableHref(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	if lower == "" {
		return false
	}
	return !ContainsAny(lower, []string{"#", "javascript:", "mailto:", "tel:"})
}

// NormalizeSpace collapses runs of whitespace and trims the result.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
