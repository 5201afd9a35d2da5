package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SearchRequest is the body of POST /_search
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchHandler ranks bookmarks and folders against the query.
// Request Body: SearchRequest
func (api *API) SearchHandler(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if result := ValidateSearchRequest(&req); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	c.JSON(http.StatusOK, api.library.Search(req.Query))
}
