// Package engine wires the search and clustering engines to the bookmark and
// folder records. It implements services.Library.
package engine

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/bookmark-engine/internal/errors"
	"github.com/gcbaptista/bookmark-engine/internal/jobs"
	"github.com/gcbaptista/bookmark-engine/model"
	"github.com/gcbaptista/bookmark-engine/services"
	"github.com/gcbaptista/bookmark-engine/store"
)

// Dependencies are the collaborators of a Library. Metadata and Jobs are
// optional: without Metadata no page is fetched, without Jobs nothing is
// fetched in the background.
type Dependencies struct {
	Items           *store.ItemStore
	Organizer       services.Organizer
	Searcher        services.Searcher
	Metadata        services.MetadataSource
	Jobs            *jobs.Manager
	MetadataTimeout time.Duration
	Logger          logrus.FieldLogger
}

// Library is the application layer over the engines. All mutating calls are
// serialized, and so are calls into the organizer, which is not safe for
// concurrent use.
type Library struct {
	mu              sync.Mutex
	items           *store.ItemStore
	organizer       services.Organizer
	searcher        services.Searcher
	metadata        services.MetadataSource
	jobs            *jobs.Manager
	metadataTimeout time.Duration
	closers         []func() error
	logger          logrus.FieldLogger
	now             func() time.Time
}

var _ services.Library = (*Library)(nil)

// New creates a Library. Call Open before use.
func New(deps Dependencies) *Library {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	timeout := deps.MetadataTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Library{
		items:           deps.Items,
		organizer:       deps.Organizer,
		searcher:        deps.Searcher,
		metadata:        deps.Metadata,
		jobs:            deps.Jobs,
		metadataTimeout: timeout,
		logger:          logger.WithField("component", "library"),
		now:             time.Now,
	}
}

// Open loads the stored records and initializes the organizer. Corrupt records
// are logged and replaced by an empty library; read failures are returned.
func (l *Library) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.items.Load(ctx); err != nil {
		if !errors.Is(err, errors.ErrStateCorrupt) {
			return err
		}
		l.logger.WithError(err).Warn("Stored library is corrupt, starting empty")
	}
	if err := l.organizer.Initialize(ctx); err != nil {
		return err
	}

	bookmarks, folders := l.items.Counts()
	l.logger.WithFields(logrus.Fields{
		"bookmarks": bookmarks,
		"folders":   folders,
	}).Info("Library opened")
	return nil
}

// Close stops background jobs and releases the resources registered by Build.
func (l *Library) Close() error {
	if l.jobs != nil {
		l.jobs.Stop()
	}
	var firstErr error
	for _, closeFn := range l.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AddBookmark validates input and stores a new bookmark. With auto-organize on
// and no folder chosen, page metadata is fetched first and the bookmark is
// filed into the folder mirroring its cluster. Otherwise it goes to the chosen
// folder, or the root, and metadata is fetched by a background job.
//
// The page fetch runs without holding the library lock. Once the organizer is
// called, the cluster state and the stored records are written under a context
// that ignores cancellation of ctx so that one is never saved without the other.
func (l *Library) AddBookmark(ctx context.Context, input services.AddBookmarkInput) (*services.AddBookmarkResult, error) {
	l.mu.Lock()
	bookmark, err := l.newBookmark(input)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	organize := (input.AutoOrganize == nil || *input.AutoOrganize) && bookmark.FolderID == ""
	if organize {
		l.enrichForClustering(ctx, bookmark)
	}

	persistCtx := context.WithoutCancel(ctx)

	l.mu.Lock()
	// the chosen folder may have been deleted while unlocked
	if bookmark.FolderID != "" {
		if _, ok := l.items.GetFolder(bookmark.FolderID); !ok {
			l.mu.Unlock()
			return nil, errors.NewFolderNotFoundError(bookmark.FolderID)
		}
	}

	var assignment *model.Assignment
	if organize {
		assignment, err = l.organizer.AddBookmark(persistCtx, bookmark)
		if err != nil {
			l.mu.Unlock()
			return nil, err
		}
		if assignment != nil {
			folder := l.ensureClusterFolder(assignment)
			bookmark.FolderID = folder.ID
			bookmark.Clustered = true
			bookmark.ClusterInfo = assignment
		}
	}

	l.items.PutBookmark(bookmark)
	if err := l.items.Save(persistCtx); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	l.mu.Unlock()

	entry := l.logger.WithFields(logrus.Fields{
		"bookmark_id": bookmark.ID,
		"folder_id":   bookmark.FolderID,
	})
	if assignment != nil {
		entry.WithFields(logrus.Fields{
			"cluster_id":  assignment.ClusterID,
			"new_cluster": assignment.IsNewCluster,
			"similarity":  assignment.Similarity,
		}).Info("Bookmark added and organized")
	} else {
		entry.Info("Bookmark added")
	}

	result := &services.AddBookmarkResult{Bookmark: bookmark, Assignment: assignment}
	if assignment == nil && bookmark.Metadata == nil {
		result.JobID = l.scheduleMetadataFetch(bookmark)
	}
	return result, nil
}

// newBookmark builds the bookmark record for input without storing it.
func (l *Library) newBookmark(input services.AddBookmarkInput) (*model.Bookmark, error) {
	rawURL, u, err := parseBookmarkURL(input.URL)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = u.Hostname()
	}

	folderID, err := l.resolveFolder(input.FolderID)
	if err != nil {
		return nil, err
	}

	return &model.Bookmark{
		ID:          store.NewBookmarkID(),
		Title:       title,
		URL:         rawURL,
		Description: strings.TrimSpace(input.Description),
		Tags:        cleanTags(input.Tags),
		FolderID:    folderID,
		CreatedAt:   l.now().UTC(),
	}, nil
}

func parseBookmarkURL(raw string) (string, *url.URL, error) {
	rawURL := strings.TrimSpace(raw)
	if rawURL == "" {
		return "", nil, errors.NewValidationError("url", "url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", nil, errors.NewValidationError("url", "'"+rawURL+"' is not an absolute URL")
	}
	return rawURL, u, nil
}

// resolveFolder normalizes a folder reference and checks that it exists. The
// root is returned as the empty string. Callers hold l.mu.
func (l *Library) resolveFolder(folderID string) (string, error) {
	folderID = strings.TrimSpace(folderID)
	if folderID == model.RootFolderID {
		folderID = ""
	}
	if folderID != "" {
		if _, ok := l.items.GetFolder(folderID); !ok {
			return "", errors.NewFolderNotFoundError(folderID)
		}
	}
	return folderID, nil
}

// enrichForClustering fetches metadata for b within the metadata timeout. A
// longer metadata title replaces the given one and a metadata description
// fills a missing one. Fetch failures only degrade clustering to basic data.
func (l *Library) enrichForClustering(ctx context.Context, b *model.Bookmark) {
	if l.metadata == nil {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, l.metadataTimeout)
	defer cancel()

	md, err := l.metadata.Fetch(fetchCtx, b.URL)
	if err != nil {
		l.logger.WithError(err).WithField("url", b.URL).Warn("Metadata fetch failed, clustering with basic data")
		return
	}
	if md == nil {
		return
	}

	b.Metadata = md
	if len(md.Title) > len(b.Title) {
		b.Title = md.Title
	}
	if b.Description == "" && md.Description != "" {
		b.Description = md.Description
	}
}

// ensureClusterFolder returns the folder mirroring the assignment's cluster.
// An auto-generated folder with the cluster's label is adopted before a new
// one is created.
func (l *Library) ensureClusterFolder(a *model.Assignment) *model.Folder {
	if folder, ok := l.items.FindFolder(func(f *model.Folder) bool { return f.ClusterID == a.ClusterID }); ok {
		return folder
	}

	if folder, ok := l.items.FindFolder(func(f *model.Folder) bool { return f.IsAutoGenerated && f.Name == a.Label }); ok {
		folder.ClusterID = a.ClusterID
		l.items.PutFolder(folder)
		l.logger.WithFields(logrus.Fields{
			"folder_id":  folder.ID,
			"cluster_id": a.ClusterID,
		}).Info("Reusing existing cluster folder")
		return folder
	}

	folder := &model.Folder{
		ID:              store.NewFolderID(),
		Name:            a.Label,
		ClusterID:       a.ClusterID,
		IsAutoGenerated: true,
		CreatedAt:       l.now().UTC(),
	}
	l.items.PutFolder(folder)
	l.logger.WithFields(logrus.Fields{
		"folder_id":  folder.ID,
		"cluster_id": a.ClusterID,
		"name":       folder.Name,
	}).Info("Created cluster folder")
	return folder
}

// GetBookmark returns the bookmark with id.
func (l *Library) GetBookmark(id string) (*model.Bookmark, error) {
	b, ok := l.items.GetBookmark(id)
	if !ok {
		return nil, errors.NewBookmarkNotFoundError(id)
	}
	return b, nil
}

// ListBookmarks returns every bookmark when folderID is empty, otherwise the
// bookmarks in that folder. model.RootFolderID selects the root.
func (l *Library) ListBookmarks(folderID string) []*model.Bookmark {
	if folderID == "" {
		return l.items.Bookmarks()
	}
	return l.items.BookmarksInFolder(folderID)
}

// DeleteBookmark removes a bookmark from the library. Cluster membership is
// kept; the clustering engine has no removal operation.
func (l *Library) DeleteBookmark(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.items.DeleteBookmark(id) {
		return errors.NewBookmarkNotFoundError(id)
	}
	return l.items.Save(ctx)
}

// AddFolder creates a user folder under parentID (empty or root for the top level).
func (l *Library) AddFolder(ctx context.Context, name, parentID string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "folder name is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	parentID, err := l.resolveFolder(parentID)
	if err != nil {
		return nil, err
	}

	folder := &model.Folder{
		ID:        store.NewFolderID(),
		Name:      name,
		ParentID:  parentID,
		CreatedAt: l.now().UTC(),
	}
	l.items.PutFolder(folder)
	if err := l.items.Save(ctx); err != nil {
		return nil, err
	}
	return folder, nil
}

// ListFolders returns every folder in creation order.
func (l *Library) ListFolders() []*model.Folder {
	return l.items.Folders()
}

// Search ranks every bookmark and folder against query.
func (l *Library) Search(query string) services.SearchResult {
	l.mu.Lock()
	l.searcher.SetData(l.items.Bookmarks(), l.items.Folders())
	result := l.searcher.Search(query)
	l.mu.Unlock()
	return result
}

// ClusterStats returns the organizer statistics.
func (l *Library) ClusterStats() services.ClusterStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.organizer.Stats()
}

// Clusters returns a snapshot of every cluster.
func (l *Library) Clusters() []services.ClusterSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.organizer.Clusters()
}

// ResetClustering clears the organizer, then removes every cluster folder and
// moves its bookmarks back to the root as unclustered.
func (l *Library) ResetClustering(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.organizer.Reset(ctx); err != nil {
		return err
	}

	removed, moved := 0, 0
	for _, folder := range l.items.Folders() {
		if !folder.IsAutoGenerated && folder.ClusterID == "" {
			continue
		}
		for _, b := range l.items.BookmarksInFolder(folder.ID) {
			b.FolderID = ""
			b.Clustered = false
			b.ClusterInfo = nil
			l.items.PutBookmark(b)
			moved++
		}
		l.items.DeleteFolder(folder.ID)
		removed++
	}

	if err := l.items.Save(ctx); err != nil {
		return err
	}
	l.logger.WithFields(logrus.Fields{
		"folders_removed": removed,
		"bookmarks_moved": moved,
	}).Info("Clustering reset")
	return nil
}

func cleanTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
