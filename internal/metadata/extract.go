// Package metadata fetches a bookmarked page and extracts the metadata the
// organizer uses to enrich titles, descriptions and keywords.
package metadata

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gcbaptista/bookmark-engine/internal/document"
	"github.com/gcbaptista/bookmark-engine/model"
)

// Extract parses an HTML document. Title and Description hold the best
// available value: Open Graph first, then Twitter, then the plain tags.
func Extract(r io.Reader, pageURL string) (*model.Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	md := &model.Metadata{
		Author:             metaContent(doc, "author", "article:author", "twitter:creator"),
		OGTitle:            metaContent(doc, "og:title"),
		OGDescription:      metaContent(doc, "og:description"),
		OGSiteName:         metaContent(doc, "og:site_name"),
		OGImage:            metaContent(doc, "og:image"),
		OGType:             metaContent(doc, "og:type"),
		TwitterTitle:       metaContent(doc, "twitter:title"),
		TwitterDescription: metaContent(doc, "twitter:description"),
		Canonical:          linkHref(doc, "canonical", pageURL),
	}

	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		md.Language = strings.TrimSpace(lang)
	}
	if md.Language == "" {
		md.Language = metaContent(doc, "language", "og:locale")
	}
	if host, ok := document.Hostname(pageURL); ok {
		md.Domain = host
	}

	plainTitle := collapse(doc.Find("title").First().Text())
	md.Title = firstNonEmpty(md.OGTitle, md.TwitterTitle, plainTitle)
	md.Description = firstNonEmpty(md.OGDescription, md.TwitterDescription, metaContent(doc, "description"))
	md.Keywords = keywords(doc)

	return md, nil
}

// metaContent returns the first non-empty content of a meta tag matching any
// of names through either the name or the property attribute.
func metaContent(doc *goquery.Document, names ...string) string {
	for _, name := range names {
		selector := fmt.Sprintf("meta[name='%s'], meta[property='%s']", name, name)
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if content, ok := s.Attr("content"); ok && strings.TrimSpace(content) != "" {
				found = collapse(content)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func linkHref(doc *goquery.Document, rel, pageURL string) string {
	href, ok := doc.Find(fmt.Sprintf("link[rel='%s']", rel)).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	href = strings.TrimSpace(href)
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// keywords merges the keywords meta tag, article tags and the article section,
// lowercased and deduplicated in document order.
func keywords(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
	}

	doc.Find("meta[name='keywords'], meta[name='Keywords']").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		for _, k := range strings.Split(content, ",") {
			add(k)
		}
	})
	doc.Find("meta[property='article:tag']").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		add(content)
	})
	add(metaContent(doc, "article:section"))

	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
