package engine

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/bookmark-engine/internal/errors"
	"github.com/gcbaptista/bookmark-engine/model"
	"github.com/gcbaptista/bookmark-engine/services"
)

// UpdateBookmark replaces the editable fields of a bookmark. Edits are never
// clustered. A changed URL drops the stored metadata and refetches it in the
// background; moving the bookmark to another folder drops its cluster flags.
func (l *Library) UpdateBookmark(ctx context.Context, id string, input services.UpdateBookmarkInput) (*services.UpdateBookmarkResult, error) {
	rawURL, u, err := parseBookmarkURL(input.URL)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	b, ok := l.items.GetBookmark(id)
	if !ok {
		l.mu.Unlock()
		return nil, errors.NewBookmarkNotFoundError(id)
	}
	folderID, err := l.resolveFolder(input.FolderID)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = u.Hostname()
	}

	urlChanged := b.URL != rawURL
	if urlChanged {
		b.Metadata = nil
	}
	if b.FolderID != folderID {
		b.Clustered = false
		b.ClusterInfo = nil
	}
	b.Title = title
	b.URL = rawURL
	b.Description = strings.TrimSpace(input.Description)
	b.Tags = cleanTags(input.Tags)
	b.FolderID = folderID

	l.items.PutBookmark(b)
	if err := l.items.Save(ctx); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	l.mu.Unlock()

	l.logger.WithFields(logrus.Fields{
		"bookmark_id": b.ID,
		"folder_id":   b.FolderID,
		"url_changed": urlChanged,
	}).Info("Bookmark updated")

	result := &services.UpdateBookmarkResult{Bookmark: b}
	if urlChanged {
		result.JobID = l.scheduleMetadataFetch(b)
	}
	return result, nil
}

// UpdateFolder renames a folder and moves it under parentID (empty or root for
// the top level). A folder cannot be moved below itself. Cluster folders keep
// their cluster link.
func (l *Library) UpdateFolder(ctx context.Context, id, name, parentID string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "folder name is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	folder, ok := l.items.GetFolder(id)
	if !ok {
		return nil, errors.NewFolderNotFoundError(id)
	}
	parentID, err := l.resolveFolder(parentID)
	if err != nil {
		return nil, err
	}
	if l.isDescendant(parentID, id) {
		return nil, errors.NewValidationError("parent_id", "folder cannot be moved below itself")
	}

	folder.Name = name
	folder.ParentID = parentID
	l.items.PutFolder(folder)
	if err := l.items.Save(ctx); err != nil {
		return nil, err
	}
	return folder, nil
}

// isDescendant reports whether folderID is ancestorID or lies below it.
func (l *Library) isDescendant(folderID, ancestorID string) bool {
	seen := make(map[string]bool)
	for folderID != "" && !seen[folderID] {
		if folderID == ancestorID {
			return true
		}
		seen[folderID] = true
		f, ok := l.items.GetFolder(folderID)
		if !ok {
			return false
		}
		folderID = f.ParentID
	}
	return false
}

// DeleteFolder removes a folder. Its bookmarks move to the root and its
// subfolders move to its parent. Cluster membership is kept.
func (l *Library) DeleteFolder(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	folder, ok := l.items.GetFolder(id)
	if !ok {
		return errors.NewFolderNotFoundError(id)
	}

	moved := 0
	for _, b := range l.items.BookmarksInFolder(id) {
		b.FolderID = ""
		l.items.PutBookmark(b)
		moved++
	}
	for _, child := range l.items.Folders() {
		if child.ParentID == id {
			child.ParentID = folder.ParentID
			l.items.PutFolder(child)
		}
	}
	l.items.DeleteFolder(id)

	if err := l.items.Save(ctx); err != nil {
		return err
	}
	l.logger.WithFields(logrus.Fields{
		"folder_id":       id,
		"bookmarks_moved": moved,
	}).Info("Folder deleted")
	return nil
}
