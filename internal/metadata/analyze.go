package metadata

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/gcbaptista/bookmark-engine/internal/document"
	bmerrors "github.com/gcbaptista/bookmark-engine/internal/errors"
	"github.com/gcbaptista/bookmark-engine/model"
)

// Content types assigned from the URL alone.
const (
	TypeVideo         = "video"
	TypeRepository    = "repository"
	TypeArticle       = "article"
	TypeDocumentation = "documentation"
	TypeProduct       = "product"
	TypeWebsite       = "website"
)

// platforms maps a registered domain to its display name.
var platforms = []struct {
	domain string
	name   string
}{
	{"youtube.com", "YouTube"},
	{"github.com", "GitHub"},
	{"twitter.com", "Twitter"},
	{"x.com", "X"},
	{"linkedin.com", "LinkedIn"},
	{"medium.com", "Medium"},
	{"reddit.com", "Reddit"},
	{"stackoverflow.com", "Stack Overflow"},
	{"wikipedia.org", "Wikipedia"},
	{"arxiv.org", "arXiv"},
	{"npmjs.com", "npm"},
	{"dev.to", "DEV Community"},
}

var pageSuffixes = []string{".html", ".htm", ".php", ".asp", ".aspx"}

// AnalyzeURL returns the metadata that can be derived without fetching the
// page: a readable title, the domain, a content type, the platform and the
// URL keywords.
func AnalyzeURL(rawURL string) (*model.Metadata, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, bmerrors.NewValidationError("url", fmt.Sprintf("'%s' is not an http(s) URL", rawURL))
	}

	md := &model.Metadata{
		Title:     TitleFromURL(u),
		Type:      ContentType(u),
		Platform:  Platform(u.Hostname()),
		Keywords:  URLKeywords(rawURL),
		FetchedAt: time.Now().UTC(),
	}
	if host, ok := document.Hostname(rawURL); ok {
		md.Domain = host
	}
	return md, nil
}

// TitleFromURL builds a title from the last meaningful path segment. GitHub
// repositories become "owner/repo - GitHub". Numeric segments and page file
// names are skipped; without a usable segment the hostname is returned.
func TitleFromURL(u *url.URL) string {
	host := u.Hostname()
	parts := pathSegments(u.Path)

	if hasDomain(host, "github.com") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1] + " - GitHub"
	}

	for i := len(parts) - 1; i >= 0; i-- {
		segment := parts[i]
		if isDigits(segment) || hasPageSuffix(segment) {
			continue
		}
		segment = strings.NewReplacer("-", " ", "_", " ").Replace(segment)
		segment = strings.TrimSpace(strings.TrimSuffix(segment, path.Ext(segment)))
		if segment == "" {
			break
		}
		return capitalizeWords(segment)
	}
	return host
}

// ContentType classifies a URL as video, repository, article, documentation,
// product or website. Host rules take precedence over path rules.
func ContentType(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	p := strings.ToLower(u.Path)

	switch {
	case hasDomain(host, "youtube.com") || hasDomain(host, "vimeo.com"):
		return TypeVideo
	case hasDomain(host, "github.com") || hasDomain(host, "gitlab.com"):
		return TypeRepository
	case containsAny(p, "/blog/", "/post/", "/article/") || hasDomain(host, "medium.com"):
		return TypeArticle
	case containsAny(p, "/docs/", "/documentation/"):
		return TypeDocumentation
	case containsAny(p, "/product/", "/item/"):
		return TypeProduct
	default:
		return TypeWebsite
	}
}

// Platform returns the display name of a well-known site, or "" for others.
func Platform(host string) string {
	host = strings.ToLower(host)
	for _, p := range platforms {
		if hasDomain(host, p.domain) {
			return p.name
		}
	}
	return ""
}

// hasDomain reports whether host is domain or one of its subdomains.
func hasDomain(host, domain string) bool {
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func pathSegments(p string) []string {
	var parts []string
	for _, segment := range strings.Split(p, "/") {
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return parts
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func hasPageSuffix(segment string) bool {
	lower := strings.ToLower(segment)
	for _, suffix := range pageSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// capitalizeWords upper-cases the first letter of every word and leaves the
// rest untouched.
func capitalizeWords(s string) string {
	runes := []rune(s)
	startOfWord := true
	for i, r := range runes {
		isWordRune := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
		if isWordRune && startOfWord {
			runes[i] = unicode.ToUpper(r)
		}
		startOfWord = !isWordRune
	}
	return string(runes)
}
