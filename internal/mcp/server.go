// Package mcp exposes the bookmark library as MCP tools over stdio.
package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/bookmark-engine/services"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var (
	addToolDef = mcp.NewTool("bookmark_add",
		mcp.WithDescription("Save a bookmark and file it into the folder of its most similar cluster"),
		mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL")),
		mcp.WithString("title", mcp.Description("Title; defaults to the hostname")),
		mcp.WithString("description", mcp.Description("Free-text description")),
		mcp.WithArray("tags", mcp.Description("Tags"), mcp.WithStringItems()),
		mcp.WithString("folder_id", mcp.Description("Folder to file into; disables clustering")),
		mcp.WithBoolean("auto_organize", mcp.Description("Cluster the bookmark (default true)")),
	)

	searchToolDef = mcp.NewTool("bookmark_search",
		mcp.WithDescription("Rank bookmarks and folders against a free-text query"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits to return")),
	)

	statsToolDef = mcp.NewTool("cluster_stats",
		mcp.WithDescription("Summarize the clustering state"),
	)

	listToolDef = mcp.NewTool("cluster_list",
		mcp.WithDescription("List clusters with their labels, members and top terms"),
	)
)

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"bookmark_add": {
		def:     addToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"bookmark_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"cluster_stats": {
		def:     statsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStats },
	},
	"cluster_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClusters },
	},
}

// AllToolNames returns the registered tool names in sorted order.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewServer creates an MCP server with the bookmark tools registered.
func NewServer(library services.Library, version string, logger logrus.FieldLogger) *server.MCPServer {
	s := server.NewMCPServer(
		"bookmark-engine",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(library, logger)
	for _, name := range AllToolNames() {
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves the MCP tools on stdin and stdout until the input closes.
func Run(library services.Library, version string, logger logrus.FieldLogger) error {
	return server.ServeStdio(NewServer(library, version, logger))
}
