// Package testutil provides fixtures and fakes shared by the package tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/gcbaptista/bookmark-engine/internal/persistence"
	"github.com/gcbaptista/bookmark-engine/model"
)

// ErrStoreUnavailable is returned by FailingStore.
var ErrStoreUnavailable = errors.New("store unavailable")

// RustGuide is the single-bookmark search corpus.
func RustGuide() *model.Bookmark {
	return &model.Bookmark{
		ID:    "bm-rust",
		Title: "Rust Programming Guide",
		URL:   "https://doc.rust-lang.org/book/",
		Tags:  []string{"rust", "systems"},
	}
}

// CrawlerRepo is the first of two closely related bookmarks.
func CrawlerRepo() *model.Bookmark {
	return &model.Bookmark{
		ID:          "bm-crawl-repo",
		Title:       "GitHub Crawl4AI",
		URL:         "https://github.com/unclecode/crawl4ai",
		Description: "web crawler for LLMs",
	}
}

// CrawlerDocs overlaps heavily with CrawlerRepo.
func CrawlerDocs() *model.Bookmark {
	return &model.Bookmark{
		ID:          "bm-crawl-docs",
		Title:       "Crawl4AI Documentation",
		URL:         "https://github.com/unclecode/crawl4ai/docs",
		Description: "web crawler for LLMs documentation",
	}
}

// CrawlerExamples joins the crawler cluster once it exists.
func CrawlerExamples() *model.Bookmark {
	return &model.Bookmark{
		ID:          "bm-crawl-examples",
		Title:       "Crawl4AI Examples",
		URL:         "https://github.com/unclecode/crawl4ai/examples",
		Description: "web crawler examples",
	}
}

// CookieRecipe is unrelated to the crawler bookmarks.
func CookieRecipe() *model.Bookmark {
	return &model.Bookmark{
		ID:          "bm-cookie",
		Title:       "Chocolate Chip Cookie Recipe",
		URL:         "https://food.example.com/cookies",
		Description: "best cookie recipe ever",
	}
}

// NewLogger returns a logger that discards output and records entries in the hook.
func NewLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

// FailingStore wraps a MemoryStore and fails the operations switched on.
type FailingStore struct {
	*persistence.MemoryStore

	mu       sync.Mutex
	failGet  bool
	failSet  bool
	setCalls int
}

// NewFailingStore returns a store that initially behaves like a MemoryStore.
func NewFailingStore() *FailingStore {
	return &FailingStore{MemoryStore: persistence.NewMemoryStore()}
}

// FailGets toggles Get failures.
func (f *FailingStore) FailGets(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = fail
}

// FailSets toggles Set failures.
func (f *FailingStore) FailSets(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = fail
}

// SetCalls returns how many Set calls were attempted.
func (f *FailingStore) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func (f *FailingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, false, ErrStoreUnavailable
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *FailingStore) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.setCalls++
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return ErrStoreUnavailable
	}
	return f.MemoryStore.Set(ctx, key, value)
}
