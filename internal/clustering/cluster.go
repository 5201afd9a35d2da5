package clustering

import (
	"crypto/rand"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/gcbaptista/bookmark-engine/internal/document"
	"github.com/gcbaptista/bookmark-engine/internal/vector"
	"github.com/gcbaptista/bookmark-engine/model"
	"github.com/gcbaptista/bookmark-engine/services"
)

const (
	rootID    = "root"
	rootLabel = "All Bookmarks"

	// topTermCount is how many centroid terms a cluster summary lists.
	topTermCount = 5
)

// Member is one bookmark stored in a cluster with its own vector.
type Member struct {
	ID     string        `json:"id"`
	URL    string        `json:"url"`
	Vector vector.Sparse `json:"vector"`
}

// Cluster is a flat child of the root.
type Cluster struct {
	ID           string        `json:"id"`
	Label        string        `json:"label"`
	Centroid     vector.Sparse `json:"centroid"`
	Members      []Member      `json:"members"`
	CreatedAt    time.Time     `json:"created_at"`
	OverCapacity bool          `json:"over_capacity"`
}

// recomputeCentroid sets the centroid to the mean of the member vectors.
func (c *Cluster) recomputeCentroid() {
	vectors := make([]vector.Sparse, len(c.Members))
	for i, m := range c.Members {
		vectors[i] = m.Vector
	}
	c.Centroid = vector.Mean(vectors)
}

func (c *Cluster) summary() services.ClusterSummary {
	ids := make([]string, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.ID
	}
	return services.ClusterSummary{
		ID:           c.ID,
		Label:        c.Label,
		Size:         len(c.Members),
		MemberIDs:    ids,
		TopTerms:     topTerms(c.Centroid, topTermCount),
		CreatedAt:    c.CreatedAt,
		OverCapacity: c.OverCapacity,
	}
}

// topTerms returns up to n terms of v by descending weight, ties by term.
func topTerms(v vector.Sparse, n int) []string {
	entries := v.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Weight > entries[j].Weight
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	terms := make([]string, len(entries))
	for i, e := range entries {
		terms[i] = e.Term
	}
	return terms
}

// Tree is the implicit root holding the flat cluster list.
type Tree struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Children []*Cluster `json:"children"`
}

func newTree() *Tree {
	return &Tree{ID: rootID, Label: rootLabel, Children: []*Cluster{}}
}

// newClusterID returns "folder-" followed by a ULID.
func newClusterID(now time.Time) string {
	return "folder-" + ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

// generateLabel names a cluster after the bookmark that founded it: the hostname
// with its first letter capitalized, else the first three title words, else a
// timestamp placeholder.
func generateLabel(b *model.Bookmark, now time.Time) string {
	if host, ok := document.Hostname(b.URL); ok {
		return capitalize(host) + " Resources"
	}
	if b.Title != "" {
		words := strings.Split(b.Title, " ")
		if len(words) > 3 {
			words = words[:3]
		}
		return strings.Join(words, " ") + " Collection"
	}
	return fmt.Sprintf("Cluster %d", now.UnixMilli())
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
