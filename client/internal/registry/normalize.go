package registry

import "strings"

// Normalize turns raw user input into a canonical, scheme-qualified server
// URL. It is pure and total: existing http/https schemes are kept verbatim,
// localhost addresses get http, everything else gets https.
func Normalize(input string) string {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return input
	}

	if strings.Contains(input, "localhost:") {
		return "http://" + input
	}

	return "https://" + input
}
