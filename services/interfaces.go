package services

import (
	"context"
	"time"

	"github.com/gcbaptista/bookmark-engine/model"
)

// HitResult is a single ranked item. Item holds a *model.Bookmark or a *model.Folder,
// matching Kind.
type HitResult struct {
	Kind  model.ItemKind `json:"kind"`
	Item  interface{}    `json:"item"`
	Score float64        `json:"score"`
}

type SearchResult struct {
	Hits    []HitResult `json:"hits"`
	Total   int         `json:"total"`
	Took    int64       `json:"took"`     // milliseconds
	QueryId string      `json:"query_id"` // unique UUID for this search query
}

// Searcher ranks a corpus snapshot against free-text queries
type Searcher interface {
	SetData(bookmarks []*model.Bookmark, folders []*model.Folder)
	Search(query string) SearchResult
}

// ClusterStats summarizes the clustering engine state
type ClusterStats struct {
	ClusterCount   int      `json:"cluster_count"`
	TotalMembers   int      `json:"total_members"`
	VocabularySize int      `json:"vocabulary_size"`
	Threshold      float64  `json:"threshold"`
	OverCapacity   []string `json:"over_capacity"` // ids of clusters above the soft size cap
}

// ClusterSummary is a read-only view of one cluster
type ClusterSummary struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	Size         int       `json:"size"`
	MemberIDs    []string  `json:"member_ids"`
	TopTerms     []string  `json:"top_terms"`
	CreatedAt    time.Time `json:"created_at"`
	OverCapacity bool      `json:"over_capacity"`
}

// Organizer assigns bookmarks to similarity-based clusters
type Organizer interface {
	Initialize(ctx context.Context) error
	AddBookmark(ctx context.Context, bookmark *model.Bookmark) (*model.Assignment, error)
	Stats() ClusterStats
	Clusters() []ClusterSummary
	Reset(ctx context.Context) error
}

// MetadataSource fetches page metadata for a URL
type MetadataSource interface {
	Fetch(ctx context.Context, pageURL string) (*model.Metadata, error)
}

// AddBookmarkInput describes a bookmark to create
type AddBookmarkInput struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	FolderID     string   `json:"folder_id"`
	AutoOrganize *bool    `json:"auto_organize,omitempty"` // nil means on
}

// AddBookmarkResult is what the library returns for a created bookmark
type AddBookmarkResult struct {
	Bookmark   *model.Bookmark   `json:"bookmark"`
	Assignment *model.Assignment `json:"assignment,omitempty"`
	JobID      string            `json:"job_id,omitempty"` // set when metadata is fetched in the background
}

// UpdateBookmarkInput replaces the editable fields of a bookmark. The bookmark
// keeps its id, creation time and cluster membership.
type UpdateBookmarkInput struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	FolderID    string   `json:"folder_id"`
}

// UpdateBookmarkResult is what the library returns for an edited bookmark
type UpdateBookmarkResult struct {
	Bookmark *model.Bookmark `json:"bookmark"`
	JobID    string          `json:"job_id,omitempty"` // set when a changed URL is refetched in the background
}

// Library is the application surface the API, MCP and CLI layers depend on
type Library interface {
	AddBookmark(ctx context.Context, input AddBookmarkInput) (*AddBookmarkResult, error)
	GetBookmark(id string) (*model.Bookmark, error)
	ListBookmarks(folderID string) []*model.Bookmark
	UpdateBookmark(ctx context.Context, id string, input UpdateBookmarkInput) (*UpdateBookmarkResult, error)
	DeleteBookmark(ctx context.Context, id string) error
	RefreshMetadata(ctx context.Context, id string) (jobID string, err error)
	AddFolder(ctx context.Context, name, parentID string) (*model.Folder, error)
	UpdateFolder(ctx context.Context, id, name, parentID string) (*model.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
	ListFolders() []*model.Folder
	Search(query string) SearchResult
	ClusterStats() ClusterStats
	Clusters() []ClusterSummary
	ResetClustering(ctx context.Context) error
}

// JobManager defines operations for inspecting background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(status *model.JobStatus) []*model.Job
}
