package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/bookmark-engine/internal/errors"
	"github.com/gcbaptista/bookmark-engine/services"
)

// Error codes reported in tool error payloads.
const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeNotFound       = "NOT_FOUND"
	codeInternal       = "INTERNAL"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	library services.Library
	logger  logrus.FieldLogger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(library services.Library, logger logrus.FieldLogger) *Handlers {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handlers{library: library, logger: logger.WithField("component", "mcp")}
}

// AddRequest represents the arguments for bookmark_add.
type AddRequest struct {
	URL          string   `json:"url"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	FolderID     string   `json:"folder_id,omitempty"`
	AutoOrganize *bool    `json:"auto_organize,omitempty"`
}

// SearchRequest represents the arguments for bookmark_search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// HandleAdd handles the bookmark_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewValidationError("arguments", err.Error())), nil
	}

	result, err := h.library.AddBookmark(ctx, services.AddBookmarkInput{
		Title:        input.Title,
		URL:          input.URL,
		Description:  input.Description,
		Tags:         input.Tags,
		FolderID:     input.FolderID,
		AutoOrganize: input.AutoOrganize,
	})
	if err != nil {
		h.logger.WithError(err).Warn("bookmark_add failed")
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the bookmark_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewValidationError("arguments", err.Error())), nil
	}
	if input.Limit < 0 {
		return errorResult(errors.NewValidationError("limit", "limit cannot be negative")), nil
	}

	result := h.library.Search(input.Query)
	if input.Limit > 0 && len(result.Hits) > input.Limit {
		result.Hits = result.Hits[:input.Limit]
	}

	return successResult(result)
}

// HandleStats handles the cluster_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.library.ClusterStats())
}

// HandleClusters handles the cluster_list tool call.
func (h *Handlers) HandleClusters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clusters := h.library.Clusters()
	return successResult(map[string]any{
		"clusters": clusters,
		"total":    len(clusters),
	})
}

// errorResult creates an MCP error result. Messages of unexpected errors are
// not exposed.
func errorResult(err error) *mcp.CallToolResult {
	errorObj := map[string]any{
		"code":    codeInternal,
		"message": "an internal error occurred",
	}

	var validationErr *errors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		errorObj["code"] = codeInvalidRequest
		errorObj["message"] = validationErr.Error()
		errorObj["field"] = validationErr.Field
	case errors.Is(err, errors.ErrInvalidInput):
		errorObj["code"] = codeInvalidRequest
		errorObj["message"] = err.Error()
	case errors.Is(err, errors.ErrBookmarkNotFound), errors.Is(err, errors.ErrFolderNotFound):
		errorObj["code"] = codeNotFound
		errorObj["message"] = err.Error()
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
