package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/bookmark-engine/internal/clustering"
	"github.com/gcbaptista/bookmark-engine/internal/engine"
	"github.com/gcbaptista/bookmark-engine/internal/jobs"
	"github.com/gcbaptista/bookmark-engine/internal/persistence"
	"github.com/gcbaptista/bookmark-engine/internal/search"
	"github.com/gcbaptista/bookmark-engine/internal/testutil"
	"github.com/gcbaptista/bookmark-engine/internal/tfidf"
	"github.com/gcbaptista/bookmark-engine/model"
	"github.com/gcbaptista/bookmark-engine/services"
	"github.com/gcbaptista/bookmark-engine/store"
)

func setupTestLibrary(t *testing.T) *engine.Library {
	t.Helper()
	logger, _ := testutil.NewLogger()
	backend := persistence.NewMemoryStore()

	opts := clustering.DefaultOptions()
	opts.Weighting = tfidf.WeightingSmooth

	lib := engine.New(engine.Dependencies{
		Items:     store.NewItemStore(backend),
		Organizer: clustering.New(backend, opts, logger),
		Searcher:  search.NewService(search.DefaultK1, search.DefaultB, logger),
		Logger:    logger,
	})
	require.NoError(t, lib.Open(context.Background()))
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func setupTestRouter(t *testing.T, lib services.Library, jobManager services.JobManager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := testutil.NewLogger()
	router := gin.New()
	SetupRoutes(router, lib, jobManager, logger)
	return router
}

func performRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthCheckHandler(t *testing.T) {
	router := setupTestRouter(t, setupTestLibrary(t), nil)

	w := performRequest(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "bookmark-engine", body["service"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := setupTestRouter(t, setupTestLibrary(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/bookmarks/missing", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	var apiErr APIError
	decode(t, w, &apiErr)
	assert.Equal(t, "req-42", apiErr.RequestID)
	assert.Equal(t, ErrorCodeBookmarkNotFound, apiErr.Code)
}

func TestAddBookmarkHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{
			name: "organized bookmark",
			requestBody: map[string]interface{}{
				"title":       "GitHub Crawl4AI",
				"url":         "https://github.com/unclecode/crawl4ai",
				"description": "web crawler for LLMs",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing url",
			requestBody:    map[string]interface{}{"title": "No link"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "relative url",
			requestBody:    map[string]interface{}{"url": "/docs"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "unknown folder",
			requestBody:    map[string]interface{}{"url": "https://example.org", "folder_id": "fld-missing"},
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrorCodeFolderNotFound,
		},
		{
			name:           "malformed json",
			requestBody:    `{"url": `,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(t, setupTestLibrary(t), nil)

			w := performRequest(router, http.MethodPost, "/bookmarks", tt.requestBody)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			if tt.expectedCode != "" {
				var apiErr APIError
				decode(t, w, &apiErr)
				assert.Equal(t, tt.expectedCode, apiErr.Code)
				return
			}

			var result services.AddBookmarkResult
			decode(t, w, &result)
			require.NotNil(t, result.Bookmark)
			require.NotNil(t, result.Assignment)
			assert.True(t, result.Assignment.IsNewCluster)
			assert.Equal(t, "Github.com Resources", result.Assignment.Label)
			assert.True(t, result.Bookmark.Clustered)
			assert.NotEmpty(t, result.Bookmark.FolderID)
		})
	}
}

func TestAddBookmarkHandler_WithoutOrganizing(t *testing.T) {
	router := setupTestRouter(t, setupTestLibrary(t), nil)

	w := performRequest(router, http.MethodPost, "/bookmarks", map[string]interface{}{
		"url":           "https://doc.rust-lang.org/book/",
		"auto_organize": false,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var result services.AddBookmarkResult
	decode(t, w, &result)
	assert.Nil(t, result.Assignment)
	assert.Equal(t, "doc.rust-lang.org", result.Bookmark.Title)
	assert.Empty(t, result.Bookmark.FolderID)
	assert.False(t, result.Bookmark.Clustered)
}

func TestBookmarkLifecycle(t *testing.T) {
	lib := setupTestLibrary(t)
	router := setupTestRouter(t, lib, nil)
	ctx := context.Background()

	folder, err := lib.AddFolder(ctx, "Reading", "")
	require.NoError(t, err)
	added, err := lib.AddBookmark(ctx, services.AddBookmarkInput{URL: "https://go.dev/doc", FolderID: folder.ID})
	require.NoError(t, err)
	_, err = lib.AddBookmark(ctx, services.AddBookmarkInput{URL: "https://example.org", AutoOrganize: boolPtr(false)})
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/bookmarks/"+added.Bookmark.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var b model.Bookmark
		decode(t, w, &b)
		assert.Equal(t, "https://go.dev/doc", b.URL)
		assert.Equal(t, folder.ID, b.FolderID)
	})

	t.Run("list all", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/bookmarks", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Bookmarks []model.Bookmark `json:"bookmarks"`
			Total     int              `json:"total"`
		}
		decode(t, w, &body)
		assert.Equal(t, 2, body.Total)
	})

	t.Run("list by folder", func(t *testing.T) {
		tests := []struct {
			query string
			url   string
		}{
			{query: "?folder_id=" + folder.ID, url: "https://go.dev/doc"},
			{query: "?folder_id=root", url: "https://example.org"},
			{query: "?folder_id=", url: "https://example.org"},
		}
		for _, tt := range tests {
			w := performRequest(router, http.MethodGet, "/bookmarks"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Bookmarks []model.Bookmark `json:"bookmarks"`
			}
			decode(t, w, &body)
			require.Len(t, body.Bookmarks, 1, tt.query)
			assert.Equal(t, tt.url, body.Bookmarks[0].URL, tt.query)
		}
	})

	t.Run("delete", func(t *testing.T) {
		w := performRequest(router, http.MethodDelete, "/bookmarks/"+added.Bookmark.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = performRequest(router, http.MethodGet, "/bookmarks/"+added.Bookmark.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = performRequest(router, http.MethodDelete, "/bookmarks/"+added.Bookmark.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFolderHandlers(t *testing.T) {
	router := setupTestRouter(t, setupTestLibrary(t), nil)

	w := performRequest(router, http.MethodPost, "/folders", FolderRequest{Name: "Rust Notes"})
	require.Equal(t, http.StatusCreated, w.Code)

	var folder model.Folder
	decode(t, w, &folder)
	assert.Equal(t, "Rust Notes", folder.Name)
	assert.False(t, folder.IsAutoGenerated)

	w = performRequest(router, http.MethodPost, "/folders", FolderRequest{Name: "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodGet, "/folders", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Folders []model.Folder `json:"folders"`
		Total   int            `json:"total"`
	}
	decode(t, w, &body)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, folder.ID, body.Folders[0].ID)
}

func TestUpdateBookmarkHandler(t *testing.T) {
	lib := setupTestLibrary(t)
	router := setupTestRouter(t, lib, nil)
	ctx := context.Background()

	folder, err := lib.AddFolder(ctx, "Reading", "")
	require.NoError(t, err)
	added, err := lib.AddBookmark(ctx, services.AddBookmarkInput{URL: "https://go.dev/doc", Title: "Go docs", FolderID: folder.ID})
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantCode   ErrorCode
	}{
		{
			name:       "valid edit",
			path:       "/bookmarks/" + added.Bookmark.ID,
			body:       services.UpdateBookmarkInput{URL: "https://go.dev/doc", Title: "Go documentation", Tags: []string{"go"}, FolderID: "root"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid json",
			path:       "/bookmarks/" + added.Bookmark.ID,
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrorCodeInvalidJSON,
		},
		{
			name:       "missing url",
			path:       "/bookmarks/" + added.Bookmark.ID,
			body:       services.UpdateBookmarkInput{Title: "Go"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrorCodeValidationFailed,
		},
		{
			name:       "unknown bookmark",
			path:       "/bookmarks/bm-missing",
			body:       services.UpdateBookmarkInput{URL: "https://go.dev/doc"},
			wantStatus: http.StatusNotFound,
			wantCode:   ErrorCodeBookmarkNotFound,
		},
		{
			name:       "unknown folder",
			path:       "/bookmarks/" + added.Bookmark.ID,
			body:       services.UpdateBookmarkInput{URL: "https://go.dev/doc", FolderID: "fld-missing"},
			wantStatus: http.StatusNotFound,
			wantCode:   ErrorCodeFolderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPut, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode != "" {
				var apiErr APIError
				decode(t, w, &apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
			}
		})
	}

	stored, err := lib.GetBookmark(added.Bookmark.ID)
	require.NoError(t, err)
	assert.Equal(t, added.Bookmark.ID, stored.ID)
	assert.Equal(t, "Go documentation", stored.Title)
	assert.Empty(t, stored.FolderID)
	assert.Equal(t, []string{"go"}, stored.Tags)
}

func TestUpdateAndDeleteFolderHandlers(t *testing.T) {
	lib := setupTestLibrary(t)
	router := setupTestRouter(t, lib, nil)
	ctx := context.Background()

	folder, err := lib.AddFolder(ctx, "Reading", "")
	require.NoError(t, err)
	added, err := lib.AddBookmark(ctx, services.AddBookmarkInput{URL: "https://go.dev/doc", FolderID: folder.ID})
	require.NoError(t, err)

	w := performRequest(router, http.MethodPut, "/folders/"+folder.ID, FolderRequest{Name: "Reading List"})
	require.Equal(t, http.StatusOK, w.Code)
	var renamed model.Folder
	decode(t, w, &renamed)
	assert.Equal(t, folder.ID, renamed.ID)
	assert.Equal(t, "Reading List", renamed.Name)

	w = performRequest(router, http.MethodPut, "/folders/"+folder.ID, FolderRequest{Name: " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = performRequest(router, http.MethodPut, "/folders/"+folder.ID, FolderRequest{Name: "Loop", ParentID: folder.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = performRequest(router, http.MethodPut, "/folders/fld-missing", FolderRequest{Name: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodDelete, "/folders/"+folder.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := lib.GetBookmark(added.Bookmark.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.FolderID, "bookmarks of a deleted folder move to the root")
	assert.Empty(t, lib.ListFolders())

	w = performRequest(router, http.MethodDelete, "/folders/"+folder.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchHandler(t *testing.T) {
	lib := setupTestLibrary(t)
	router := setupTestRouter(t, lib, nil)
	ctx := context.Background()

	rust := testutil.RustGuide()
	_, err := lib.AddBookmark(ctx, services.AddBookmarkInput{
		Title: rust.Title, URL: rust.URL, Tags: rust.Tags, AutoOrganize: boolPtr(false),
	})
	require.NoError(t, err)
	_, err = lib.AddBookmark(ctx, services.AddBookmarkInput{
		Title: "Chocolate Chip Cookie Recipe", URL: "https://food.example.com/cookies", AutoOrganize: boolPtr(false),
	})
	require.NoError(t, err)

	tests := []struct {
		name          string
		query         string
		expectedTotal int
		expectedTitle string
	}{
		{name: "exact term", query: "rust", expectedTotal: 1, expectedTitle: "Rust Programming Guide"},
		{name: "prefix match", query: "prog", expectedTotal: 1, expectedTitle: "Rust Programming Guide"},
		{name: "no match", query: "haskell", expectedTotal: 0},
		{name: "empty query", query: "", expectedTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/_search", SearchRequest{Query: tt.query})
			require.Equal(t, http.StatusOK, w.Code)

			var result struct {
				Hits []struct {
					Kind  model.ItemKind `json:"kind"`
					Item  model.Bookmark `json:"item"`
					Score float64        `json:"score"`
				} `json:"hits"`
				Total   int    `json:"total"`
				QueryID string `json:"query_id"`
			}
			decode(t, w, &result)
			assert.Equal(t, tt.expectedTotal, result.Total)
			assert.NotEmpty(t, result.QueryID)
			if tt.expectedTitle != "" {
				require.NotEmpty(t, result.Hits)
				assert.Equal(t, model.KindBookmark, result.Hits[0].Kind)
				assert.Equal(t, tt.expectedTitle, result.Hits[0].Item.Title)
				assert.Greater(t, result.Hits[0].Score, 0.0)
			}
		})
	}

	w := performRequest(router, http.MethodPost, "/_search", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClusterHandlers(t *testing.T) {
	lib := setupTestLibrary(t)
	router := setupTestRouter(t, lib, nil)
	ctx := context.Background()

	for _, b := range []*model.Bookmark{testutil.CrawlerRepo(), testutil.CrawlerDocs()} {
		_, err := lib.AddBookmark(ctx, services.AddBookmarkInput{Title: b.Title, URL: b.URL, Description: b.Description})
		require.NoError(t, err)
	}

	w := performRequest(router, http.MethodGet, "/clusters/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.ClusterStats
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.ClusterCount)
	assert.Equal(t, 2, stats.TotalMembers)
	assert.Equal(t, 0.25, stats.Threshold)

	w = performRequest(router, http.MethodGet, "/clusters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Clusters []services.ClusterSummary `json:"clusters"`
		Total    int                       `json:"total"`
	}
	decode(t, w, &body)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "Github.com Resources", body.Clusters[0].Label)
	assert.Equal(t, 2, body.Clusters[0].Size)

	w = performRequest(router, http.MethodDelete, "/clusters", nil)
	require.Equal(t, http.StatusOK, w.Code)

	stats = lib.ClusterStats()
	assert.Zero(t, stats.ClusterCount)
	assert.Empty(t, lib.ListFolders())
	assert.Len(t, lib.ListBookmarks(model.RootFolderID), 2)
}

func TestJobHandlers(t *testing.T) {
	logger, _ := testutil.NewLogger()
	manager := jobs.NewManager(1, logger)
	manager.Start()
	t.Cleanup(manager.Stop)

	router := setupTestRouter(t, setupTestLibrary(t), manager)

	done := make(chan struct{})
	jobID := manager.CreateJob(model.JobTypeFetchMetadata, "bm-1", map[string]string{"url": "https://example.org"})
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		defer close(done)
		return errors.New("page unavailable")
	}))
	<-done

	require.Eventually(t, func() bool {
		job, err := manager.GetJob(jobID)
		return err == nil && job.Status == model.JobStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	t.Run("get job", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/jobs/"+jobID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var job model.Job
		decode(t, w, &job)
		assert.Equal(t, model.JobStatusFailed, job.Status)
		assert.Equal(t, "page unavailable", job.Error)
		assert.Equal(t, "bm-1", job.BookmarkID)
	})

	t.Run("unknown job", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/jobs/job-missing", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list with filter", func(t *testing.T) {
		tests := []struct {
			query          string
			expectedStatus int
			expectedTotal  int
		}{
			{query: "", expectedStatus: http.StatusOK, expectedTotal: 1},
			{query: "?status=failed", expectedStatus: http.StatusOK, expectedTotal: 1},
			{query: "?status=completed", expectedStatus: http.StatusOK, expectedTotal: 0},
			{query: "?status=bogus", expectedStatus: http.StatusBadRequest},
		}
		for _, tt := range tests {
			w := performRequest(router, http.MethodGet, "/jobs"+tt.query, nil)
			require.Equal(t, tt.expectedStatus, w.Code, tt.query)
			if tt.expectedStatus != http.StatusOK {
				continue
			}
			var body struct {
				Total int `json:"total"`
			}
			decode(t, w, &body)
			assert.Equal(t, tt.expectedTotal, body.Total, tt.query)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/jobs/metrics", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var metrics jobs.JobMetricsData
		decode(t, w, &metrics)
		assert.Equal(t, int64(1), metrics.JobsCreated)
		assert.Equal(t, int64(1), metrics.JobsFailed)
	})

	t.Run("refresh unknown bookmark", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/bookmarks/bm-missing/metadata", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestJobHandlers_WithoutJobManager(t *testing.T) {
	router := setupTestRouter(t, setupTestLibrary(t), nil)

	tests := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{method: http.MethodGet, path: "/jobs", expectedStatus: http.StatusOK},
		{method: http.MethodGet, path: "/jobs/job-1", expectedStatus: http.StatusNotFound},
		{method: http.MethodGet, path: "/jobs/metrics", expectedStatus: http.StatusNotImplemented},
		{method: http.MethodPost, path: "/bookmarks/bm-1/metadata", expectedStatus: http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := performRequest(router, tt.method, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestSendLibraryError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{name: "persistence", err: testutil.ErrStoreUnavailable, expectedStatus: http.StatusInternalServerError, expectedCode: ErrorCodeInternalError},
		{name: "job not found", err: errJobNotFound(), expectedStatus: http.StatusNotFound, expectedCode: ErrorCodeJobNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			SendLibraryError(c, "test", tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var apiErr APIError
			decode(t, w, &apiErr)
			assert.Equal(t, tt.expectedCode, apiErr.Code)
		})
	}
}

func errJobNotFound() error {
	_, err := jobs.NewManager(1, nil).GetJob("job-x")
	return err
}

func boolPtr(v bool) *bool { return &v }
