package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/bookmark-engine/services"
)

// FolderRequest is the body of POST /folders and PUT /folders/:id
type FolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

// AddBookmarkHandler creates a bookmark and, unless disabled, organizes it.
// Request Body: services.AddBookmarkInput
func (api *API) AddBookmarkHandler(c *gin.Context) {
	var input services.AddBookmarkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if result := ValidateAddBookmark(&input); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	result, err := api.library.AddBookmark(c.Request.Context(), input)
	if err != nil {
		SendLibraryError(c, "bookmark", err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListBookmarksHandler lists bookmarks. The folder_id query parameter restricts
// the listing to one folder; "root" selects bookmarks outside any folder.
func (api *API) ListBookmarksHandler(c *gin.Context) {
	folderID, filtered := c.GetQuery("folder_id")
	if filtered && folderID == "" {
		folderID = "root"
	}

	bookmarks := api.library.ListBookmarks(folderID)
	c.JSON(http.StatusOK, gin.H{
		"bookmarks": bookmarks,
		"total":     len(bookmarks),
	})
}

// GetBookmarkHandler returns a single bookmark.
func (api *API) GetBookmarkHandler(c *gin.Context) {
	id := c.Param("id")
	if result := ValidateID("id", id); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	bookmark, err := api.library.GetBookmark(id)
	if err != nil {
		SendLibraryError(c, "bookmark", err)
		return
	}

	c.JSON(http.StatusOK, bookmark)
}

// UpdateBookmarkHandler edits a bookmark in place. It is never reclustered.
// Request Body: services.UpdateBookmarkInput
func (api *API) UpdateBookmarkHandler(c *gin.Context) {
	id := c.Param("id")
	if result := ValidateID("id", id); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	var input services.UpdateBookmarkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if result := ValidateUpdateBookmark(&input); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	result, err := api.library.UpdateBookmark(c.Request.Context(), id, input)
	if err != nil {
		SendLibraryError(c, "bookmark update", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteBookmarkHandler removes a bookmark.
func (api *API) DeleteBookmarkHandler(c *gin.Context) {
	id := c.Param("id")
	if result := ValidateID("id", id); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	if err := api.library.DeleteBookmark(c.Request.Context(), id); err != nil {
		SendLibraryError(c, "bookmark deletion", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bookmark '" + id + "' deleted"})
}

// RefreshMetadataHandler schedules a metadata fetch for a bookmark.
func (api *API) RefreshMetadataHandler(c *gin.Context) {
	id := c.Param("id")
	if result := ValidateID("id", id); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	if api.jobs == nil {
		SendError(c, http.StatusNotImplemented, ErrorCodeNotSupported, "Metadata fetching is disabled")
		return
	}

	jobID, err := api.library.RefreshMetadata(c.Request.Context(), id)
	if err != nil {
		SendLibraryError(c, "metadata refresh", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Metadata refresh started",
		"job_id":  jobID,
	})
}

// AddFolderHandler creates a user folder.
// Request Body: FolderRequest
func (api *API) AddFolderHandler(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if result := ValidateFolderRequest(&req); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	folder, err := api.library.AddFolder(c.Request.Context(), req.Name, req.ParentID)
	if err != nil {
		SendLibraryError(c, "folder", err)
		return
	}

	c.JSON(http.StatusCreated, folder)
}

// UpdateFolderHandler renames or moves a folder.
// Request Body: FolderRequest
func (api *API) UpdateFolderHandler(c *gin.Context) {
	id := c.Param("id")
	if result := ValidateID("id", id); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if result := ValidateFolderRequest(&req); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	folder, err := api.library.UpdateFolder(c.Request.Context(), id, req.Name, req.ParentID)
	if err != nil {
		SendLibraryError(c, "folder update", err)
		return
	}

	c.JSON(http.StatusOK, folder)
}

// DeleteFolderHandler removes a folder. Its bookmarks move to the root.
func (api *API) DeleteFolderHandler(c *gin.Context) {
	id := c.Param("id")
	if result := ValidateID("id", id); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	if err := api.library.DeleteFolder(c.Request.Context(), id); err != nil {
		SendLibraryError(c, "folder deletion", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Folder '" + id + "' deleted"})
}

// ListFoldersHandler lists all folders.
func (api *API) ListFoldersHandler(c *gin.Context) {
	folders := api.library.ListFolders()
	c.JSON(http.StatusOK, gin.H{
		"folders": folders,
		"total":   len(folders),
	})
}
