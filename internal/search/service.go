package search

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/bookmark-engine/internal/tokenizer"
	"github.com/gcbaptista/bookmark-engine/model"
	"github.com/gcbaptista/bookmark-engine/services"
)

// Service ranks a bookmark/folder snapshot with BM25.
// It fulfills the services.Searcher interface.
type Service struct {
	mu        sync.Mutex
	k1        float64
	b         float64
	bookmarks []*model.Bookmark
	folders   []*model.Folder
	calc      *BM25Calculator // built lazily after SetData
	logger    logrus.FieldLogger
}

// NewService creates a search Service. Non-positive parameters fall back to the defaults.
func NewService(k1, b float64, logger logrus.FieldLogger) *Service {
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b < 0 || b > 1 {
		b = DefaultB
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		k1:     k1,
		b:      b,
		logger: logger.WithField("component", "search"),
	}
}

var _ services.Searcher = (*Service)(nil)

// SetData replaces the corpus snapshot. No scoring work happens until the next Search.
func (s *Service) SetData(bookmarks []*model.Bookmark, folders []*model.Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookmarks = bookmarks
	s.folders = folders
	s.calc = nil
}

func (s *Service) calculator() *BM25Calculator {
	if s.calc != nil {
		return s.calc
	}

	items := make([]model.Item, 0, len(s.bookmarks)+len(s.folders))
	for _, b := range s.bookmarks {
		if b != nil {
			items = append(items, model.BookmarkItem(b))
		}
	}
	for _, f := range s.folders {
		if f != nil {
			items = append(items, model.FolderItem(f))
		}
	}
	s.calc = NewBM25Calculator(items, s.k1, s.b)
	return s.calc
}

// Search returns the items scoring above zero for query, highest first. Equal scores
// keep corpus order: bookmarks before folders, each in insertion order.
func (s *Service) Search(query string) services.SearchResult {
	startTime := time.Now()
	queryID := uuid.New().String()

	if strings.TrimSpace(query) == "" {
		return services.SearchResult{Hits: []services.HitResult{}, Total: 0, Took: time.Since(startTime).Milliseconds(), QueryId: queryID}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	queryTokens := tokenizer.TokenizeFuzzy(query)
	calc := s.calculator()

	hits := make([]services.HitResult, 0)
	for i := 0; i < calc.Len(); i++ {
		score := calc.Score(i, queryTokens)
		if score <= 0 {
			continue
		}
		item := calc.Item(i)
		hits = append(hits, services.HitResult{
			Kind:  item.Kind,
			Item:  itemValue(item),
			Score: score,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	took := time.Since(startTime).Milliseconds()
	s.logger.WithFields(logrus.Fields{
		"query_id": queryID,
		"tokens":   len(queryTokens),
		"hits":     len(hits),
		"corpus":   calc.Len(),
		"took_ms":  took,
	}).Debug("search completed")

	return services.SearchResult{
		Hits:    hits,
		Total:   len(hits),
		Took:    took,
		QueryId: queryID,
	}
}

func itemValue(item model.Item) interface{} {
	if item.Kind == model.KindFolder {
		return item.Folder
	}
	return item.Bookmark
}
