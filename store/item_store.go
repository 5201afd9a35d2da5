// Package store keeps the bookmark and folder records of the library and
// persists them as a single JSON document.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/gcbaptista/bookmark-engine/internal/errors"
	"github.com/gcbaptista/bookmark-engine/internal/persistence"
	"github.com/gcbaptista/bookmark-engine/model"
)

// ItemStore holds bookmarks and folders in insertion order. Every accessor
// returns copies, so callers never share records with the store.
type ItemStore struct {
	mu            sync.RWMutex
	bookmarks     map[string]*model.Bookmark
	bookmarkOrder []string
	folders       map[string]*model.Folder
	folderOrder   []string
	backend       persistence.Store
}

// itemsPayload is the persisted form of the store.
type itemsPayload struct {
	Bookmarks []*model.Bookmark `json:"bookmarks"`
	Folders   []*model.Folder   `json:"folders"`
}

// NewItemStore creates an empty store persisting through backend.
func NewItemStore(backend persistence.Store) *ItemStore {
	return &ItemStore{
		bookmarks: make(map[string]*model.Bookmark),
		folders:   make(map[string]*model.Folder),
		backend:   backend,
	}
}

// NewBookmarkID returns a fresh, time-ordered bookmark ID.
func NewBookmarkID() string {
	return "bm-" + ulid.Make().String()
}

// NewFolderID returns a fresh, time-ordered folder ID.
func NewFolderID() string {
	return "fld-" + ulid.Make().String()
}

// Load replaces the content of the store with the persisted records. A missing
// key leaves the store empty.
func (s *ItemStore) Load(ctx context.Context) error {
	data, found, err := s.backend.Get(ctx, persistence.KeyLibraryItems)
	if err != nil {
		return errors.NewPersistenceError("get", persistence.KeyLibraryItems, err)
	}

	var payload itemsPayload
	if found {
		if err := json.Unmarshal(data, &payload); err != nil {
			return errors.NewStateCorruptError(persistence.KeyLibraryItems, err.Error())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookmarks = make(map[string]*model.Bookmark, len(payload.Bookmarks))
	s.bookmarkOrder = nil
	for _, b := range payload.Bookmarks {
		if b == nil || b.ID == "" {
			continue
		}
		if _, dup := s.bookmarks[b.ID]; !dup {
			s.bookmarkOrder = append(s.bookmarkOrder, b.ID)
		}
		s.bookmarks[b.ID] = b
	}

	s.folders = make(map[string]*model.Folder, len(payload.Folders))
	s.folderOrder = nil
	for _, f := range payload.Folders {
		if f == nil || f.ID == "" {
			continue
		}
		if _, dup := s.folders[f.ID]; !dup {
			s.folderOrder = append(s.folderOrder, f.ID)
		}
		s.folders[f.ID] = f
	}
	return nil
}

// Save writes every record to the backend.
func (s *ItemStore) Save(ctx context.Context) error {
	s.mu.RLock()
	payload := itemsPayload{
		Bookmarks: make([]*model.Bookmark, 0, len(s.bookmarkOrder)),
		Folders:   make([]*model.Folder, 0, len(s.folderOrder)),
	}
	for _, id := range s.bookmarkOrder {
		payload.Bookmarks = append(payload.Bookmarks, s.bookmarks[id])
	}
	for _, id := range s.folderOrder {
		payload.Folders = append(payload.Folders, s.folders[id])
	}
	data, err := json.Marshal(payload)
	s.mu.RUnlock()
	if err != nil {
		return errors.NewPersistenceError("encode", persistence.KeyLibraryItems, err)
	}

	if err := s.backend.Set(ctx, persistence.KeyLibraryItems, data); err != nil {
		return errors.NewPersistenceError("set", persistence.KeyLibraryItems, err)
	}
	return nil
}

// PutBookmark inserts or replaces a bookmark. Replacing keeps its position.
func (s *ItemStore) PutBookmark(b *model.Bookmark) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookmarks[b.ID]; !exists {
		s.bookmarkOrder = append(s.bookmarkOrder, b.ID)
	}
	s.bookmarks[b.ID] = copyBookmark(b)
}

// GetBookmark returns a copy of the bookmark with id.
func (s *ItemStore) GetBookmark(id string) (*model.Bookmark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookmarks[id]
	if !ok {
		return nil, false
	}
	return copyBookmark(b), true
}

// DeleteBookmark removes a bookmark and reports whether it existed.
func (s *ItemStore) DeleteBookmark(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookmarks[id]; !ok {
		return false
	}
	delete(s.bookmarks, id)
	s.bookmarkOrder = removeID(s.bookmarkOrder, id)
	return true
}

// Bookmarks returns copies of all bookmarks in insertion order.
func (s *ItemStore) Bookmarks() []*model.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Bookmark, 0, len(s.bookmarkOrder))
	for _, id := range s.bookmarkOrder {
		out = append(out, copyBookmark(s.bookmarks[id]))
	}
	return out
}

// BookmarksInFolder returns the bookmarks filed under folderID. Both "" and
// model.RootFolderID select bookmarks at the root.
func (s *ItemStore) BookmarksInFolder(folderID string) []*model.Bookmark {
	if folderID == model.RootFolderID {
		folderID = ""
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Bookmark
	for _, id := range s.bookmarkOrder {
		if b := s.bookmarks[id]; b.FolderID == folderID {
			out = append(out, copyBookmark(b))
		}
	}
	return out
}

// PutFolder inserts or replaces a folder.
func (s *ItemStore) PutFolder(f *model.Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.folders[f.ID]; !exists {
		s.folderOrder = append(s.folderOrder, f.ID)
	}
	folderCopy := *f
	s.folders[f.ID] = &folderCopy
}

// GetFolder returns a copy of the folder with id.
func (s *ItemStore) GetFolder(id string) (*model.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.folders[id]
	if !ok {
		return nil, false
	}
	folderCopy := *f
	return &folderCopy, true
}

// DeleteFolder removes a folder and reports whether it existed. Bookmarks
// inside it are left untouched.
func (s *ItemStore) DeleteFolder(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[id]; !ok {
		return false
	}
	delete(s.folders, id)
	s.folderOrder = removeID(s.folderOrder, id)
	return true
}

// Folders returns copies of all folders in insertion order.
func (s *ItemStore) Folders() []*model.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Folder, 0, len(s.folderOrder))
	for _, id := range s.folderOrder {
		folderCopy := *s.folders[id]
		out = append(out, &folderCopy)
	}
	return out
}

// FindFolder returns the first folder, in insertion order, matching pred.
func (s *ItemStore) FindFolder(pred func(*model.Folder) bool) (*model.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.folderOrder {
		if f := s.folders[id]; pred(f) {
			folderCopy := *f
			return &folderCopy, true
		}
	}
	return nil, false
}

// Counts returns the number of bookmarks and folders.
func (s *ItemStore) Counts() (bookmarks, folders int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookmarks), len(s.folders)
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func copyBookmark(b *model.Bookmark) *model.Bookmark {
	bookmarkCopy := *b
	if b.Tags != nil {
		bookmarkCopy.Tags = append([]string(nil), b.Tags...)
	}
	if b.Metadata != nil {
		metadataCopy := *b.Metadata
		metadataCopy.Keywords = append([]string(nil), b.Metadata.Keywords...)
		bookmarkCopy.Metadata = &metadataCopy
	}
	if b.ClusterInfo != nil {
		assignmentCopy := *b.ClusterInfo
		bookmarkCopy.ClusterInfo = &assignmentCopy
	}
	return &bookmarkCopy
}
