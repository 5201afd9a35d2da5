// Package model defines the records the organizer works with: bookmarks, folders,
// their optional page metadata and the cluster assignments produced for them.
package model

import (
	"time"
)

// Metadata is the optional page metadata scraped for a bookmark.
// Every field is optional; consumers must treat empty values as absent.
type Metadata struct {
	Title              string    `json:"title,omitempty"`
	Description        string    `json:"description,omitempty"`
	Keywords           []string  `json:"keywords,omitempty"`
	Author             string    `json:"author,omitempty"`
	OGTitle            string    `json:"og_title,omitempty"`
	OGDescription      string    `json:"og_description,omitempty"`
	OGSiteName         string    `json:"og_site_name,omitempty"`
	OGImage            string    `json:"og_image,omitempty"`
	OGType             string    `json:"og_type,omitempty"`
	TwitterTitle       string    `json:"twitter_title,omitempty"`
	TwitterDescription string    `json:"twitter_description,omitempty"`
	Canonical          string    `json:"canonical,omitempty"`
	Language           string    `json:"language,omitempty"`
	Domain             string    `json:"domain,omitempty"`
	Type               string    `json:"type,omitempty"`     // video, repository, article, documentation, product or website
	Platform           string    `json:"platform,omitempty"` // display name of a well-known site
	FetchedAt          time.Time `json:"fetched_at,omitempty"`
}

// Bookmark is a saved link.
type Bookmark struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Description string      `json:"description,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Metadata    *Metadata   `json:"metadata,omitempty"`
	FolderID    string      `json:"folder_id,omitempty"` // empty means root
	CreatedAt   time.Time   `json:"created_at"`
	Clustered   bool        `json:"clustered"`
	ClusterInfo *Assignment `json:"cluster_info,omitempty"`
}

// RootFolderID addresses the implicit root folder. Bookmarks at the root have an
// empty FolderID.
const RootFolderID = "root"

// Folder groups bookmarks. Folders created by the clustering flow carry the
// cluster they mirror in ClusterID and have IsAutoGenerated set.
type Folder struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ParentID        string    `json:"parent_id,omitempty"`
	ClusterID       string    `json:"cluster_id,omitempty"`
	IsAutoGenerated bool      `json:"is_auto_generated"`
	CreatedAt       time.Time `json:"created_at"`
}

// ItemKind discriminates the Item variant.
type ItemKind string

const (
	KindBookmark ItemKind = "bookmark"
	KindFolder   ItemKind = "folder"
)

// Item is the searchable sum of Bookmark and Folder. Exactly one of Bookmark
// or Folder is set, matching Kind.
type Item struct {
	Kind     ItemKind  `json:"kind"`
	Bookmark *Bookmark `json:"bookmark,omitempty"`
	Folder   *Folder   `json:"folder,omitempty"`
}

// BookmarkItem wraps a bookmark as an Item.
func BookmarkItem(b *Bookmark) Item {
	return Item{Kind: KindBookmark, Bookmark: b}
}

// FolderItem wraps a folder as an Item.
func FolderItem(f *Folder) Item {
	return Item{Kind: KindFolder, Folder: f}
}

// ID returns the identifier of the wrapped record.
func (i Item) ID() string {
	switch i.Kind {
	case KindBookmark:
		if i.Bookmark != nil {
			return i.Bookmark.ID
		}
	case KindFolder:
		if i.Folder != nil {
			return i.Folder.ID
		}
	}
	return ""
}

// Assignment is the clustering result for one bookmark.
type Assignment struct {
	ClusterID    string  `json:"cluster_id"`
	Label        string  `json:"label"`
	Similarity   float64 `json:"similarity"`
	IsNewCluster bool    `json:"is_new_cluster"`
}
