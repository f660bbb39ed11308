// Package imageurl performs purely syntactic checks on image URLs. No network
// access is made.
package imageurl

import (
	"net/url"
	"regexp"
	"strings"
)

var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

var urlPattern = regexp.MustCompile(`(?i)^https?://(www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)$`)

// IsValid reports whether raw is an http(s) URL whose path ends with an
// allowed image extension.
func IsValid(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	if !urlPattern.MatchString(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// Validate returns the entries failing IsValid verbatim and in input order.
func Validate(urls []string) (ok bool, invalid []string) {
	invalid = []string{}
	for _, u := range urls {
		if !IsValid(u) {
			invalid = append(invalid, u)
		}
	}
	return len(invalid) == 0, invalid
}

// Dedupe drops repeated entries, keeping the first occurrence.
func Dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
