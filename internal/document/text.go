// Package document builds the normalized text blobs the search and clustering
// engines work on. Field weighting is done by literal repetition, so a field
// repeated three times contributes three times the raw term frequency.
package document

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/gcbaptista/bookmark-engine/model"
)

var (
	nonWordRegex    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Hostname returns the lowercased host of rawURL with a leading "www." removed.
// ok is false when rawURL is not an absolute URL with a host.
func Hostname(rawURL string) (host string, ok bool) {
	if strings.TrimSpace(rawURL) == "" {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	host = strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return strings.TrimPrefix(host, "www."), true
}

// repeat joins n copies of s with single spaces.
func repeat(s string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s
	}
	return strings.Join(parts, " ")
}

// SearchText returns the text the ranker scores an item against.
// Folders contribute their name only.
func SearchText(item model.Item) string {
	switch item.Kind {
	case model.KindBookmark:
		if item.Bookmark == nil {
			return ""
		}
		return bookmarkSearchText(item.Bookmark)
	case model.KindFolder:
		if item.Folder == nil {
			return ""
		}
		return item.Folder.Name
	default:
		return ""
	}
}

func bookmarkSearchText(b *model.Bookmark) string {
	parts := make([]string, 0, 12)
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}

	meta := b.Metadata
	if meta == nil {
		meta = &model.Metadata{}
	}

	if b.Title != "" {
		add(repeat(b.Title, 3))
	}
	if meta.Title != "" && meta.Title != b.Title {
		add(repeat(meta.Title, 2))
	}
	if len(meta.Keywords) > 0 {
		add(repeat(strings.Join(meta.Keywords, " "), 2))
	}
	if len(b.Tags) > 0 {
		add(repeat(strings.Join(b.Tags, " "), 2))
	}
	add(b.Description)
	if meta.Description != b.Description {
		add(meta.Description)
	}
	if meta.OGTitle != b.Title {
		add(meta.OGTitle)
	}
	add(meta.OGDescription)
	add(meta.OGSiteName)

	if host, ok := Hostname(b.URL); ok {
		add(host)
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

// ClusterText returns the normalized clustering text for a bookmark: title x3,
// description, metadata description, metadata keywords x2, site name, tags x2 and
// hostname, with punctuation replaced by spaces, whitespace collapsed and lowercased.
func ClusterText(b *model.Bookmark) string {
	if b == nil {
		return ""
	}

	parts := make([]string, 0, 8)
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}

	if b.Title != "" {
		add(repeat(b.Title, 3))
	}
	add(b.Description)
	if b.Metadata != nil {
		add(b.Metadata.Description)
		if len(b.Metadata.Keywords) > 0 {
			add(repeat(strings.Join(b.Metadata.Keywords, " "), 2))
		}
		add(b.Metadata.OGSiteName)
	}
	if len(b.Tags) > 0 {
		add(repeat(strings.Join(b.Tags, " "), 2))
	}
	if host, ok := Hostname(b.URL); ok {
		add(host)
	}

	return Normalize(strings.Join(parts, " "))
}

// Normalize replaces punctuation with spaces, collapses whitespace, trims and lowercases.
func Normalize(text string) string {
	cleaned := nonWordRegex.ReplaceAllString(text, " ")
	cleaned = whitespaceRegex.ReplaceAllString(cleaned, " ")
	return strings.ToLower(strings.TrimSpace(cleaned))
}
