package metadata

import (
	"net/url"
	"sort"
	"strings"
)

// URLKeywords derives search keywords from the URL alone: hostname labels
// without "www" and "com", path segments with dashes and underscores turned
// into spaces, and query keys and values except utm_source and utm_medium.
// Results are deduplicated and shorter than three characters are dropped.
func URLKeywords(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}

	var candidates []string
	for _, label := range strings.Split(strings.ToLower(u.Hostname()), ".") {
		if label != "www" && label != "com" {
			candidates = append(candidates, label)
		}
	}

	replacer := strings.NewReplacer("-", " ", "_", " ")
	for _, segment := range strings.Split(u.Path, "/") {
		if len(segment) > 2 {
			candidates = append(candidates, replacer.Replace(segment))
		}
	}

	query := u.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key == "utm_source" || key == "utm_medium" {
			continue
		}
		candidates = append(candidates, key)
		candidates = append(candidates, query[key]...)
	}

	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		if len(c) > 2 {
			out = append(out, c)
		}
	}
	return out
}
