package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gcbaptista/bookmark-engine/services"
)

const (
	maxURLLength   = 2048
	maxTitleLength = 500
	maxTags        = 50
	maxTagLength   = 64
	maxQueryLength = 1000
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateID validates a path identifier
func ValidateID(field, id string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if id == "" {
		result.AddError(field, "ID is required")
		return result
	}

	if strings.TrimSpace(id) != id {
		result.AddError(field, "ID cannot have leading or trailing whitespace")
	}

	return result
}

// ValidateAddBookmark validates a bookmark creation request
func ValidateAddBookmark(input *services.AddBookmarkInput) *ValidationResult {
	result := &ValidationResult{Valid: true}
	validateBookmarkFields(result, input.URL, input.Title, input.Tags)
	return result
}

// ValidateUpdateBookmark validates a bookmark edit request
func ValidateUpdateBookmark(input *services.UpdateBookmarkInput) *ValidationResult {
	result := &ValidationResult{Valid: true}
	validateBookmarkFields(result, input.URL, input.Title, input.Tags)
	return result
}

func validateBookmarkFields(result *ValidationResult, rawURL, title string, tags []string) {
	rawURL = strings.TrimSpace(rawURL)
	switch {
	case rawURL == "":
		result.AddError("url", "URL is required")
	case len(rawURL) > maxURLLength:
		result.AddError("url", fmt.Sprintf("URL cannot exceed %d characters", maxURLLength))
	default:
		u, err := url.Parse(rawURL)
		if err != nil || u.Host == "" {
			result.AddError("url", "URL must be absolute")
		} else if u.Scheme != "http" && u.Scheme != "https" {
			result.AddError("url", "URL scheme must be http or https")
		}
	}

	if len(title) > maxTitleLength {
		result.AddError("title", fmt.Sprintf("Title cannot exceed %d characters", maxTitleLength))
	}

	if len(tags) > maxTags {
		result.AddError("tags", fmt.Sprintf("At most %d tags are allowed", maxTags))
	}
	for i, tag := range tags {
		if len(tag) > maxTagLength {
			result.AddError(fmt.Sprintf("tags[%d]", i), fmt.Sprintf("Tag cannot exceed %d characters", maxTagLength))
		}
	}
}

// ValidateFolderRequest validates a folder creation or edit request
func ValidateFolderRequest(req *FolderRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		result.AddError("name", "Folder name is required")
	} else if len(name) > maxTitleLength {
		result.AddError("name", fmt.Sprintf("Folder name cannot exceed %d characters", maxTitleLength))
	}

	return result
}

// ValidateSearchRequest validates a search request
func ValidateSearchRequest(req *SearchRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(req.Query) > maxQueryLength {
		result.AddError("query", fmt.Sprintf("Query cannot exceed %d characters", maxQueryLength))
	}

	return result
}
