package playlist

import "strings"

const videoScheme = "bilibili://video/"

// KeyFromURL derives the canonical queue-entry key from a server-provided
// media URL. The scheme prefix is stripped and query syntax is folded away
// ("?" becomes "-", "=" is dropped) because many renderers reject raw
// query characters in URIs. "bilibili://video/BV1x?page=2" -> "BV1x-page2".
// Idempotent: applying it to a key returns the key unchanged.
func KeyFromURL(rawURL string) string {
	s := rawURL
	if idx := strings.Index(s, videoScheme); idx >= 0 {
		s = s[idx+len(videoScheme):]
	}
	s = strings.ReplaceAll(s, "?", "-")
	s = strings.ReplaceAll(s, "=", "")
	return s
}
