package api

import (
	"github.com/starford/notepress/internal/index"
	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/publishservice"
)

// PublishRequest is the optional request body of a publish. An empty
// session id asks the server to generate one.
type PublishRequest struct {
	SessionID string `json:"sessionId,omitempty" example:"2f1c8c1e-6a4b-4c1e-9d1a-0b6f3c2a7e55"`
}

// PublishResult is the summary of one batch (aliased from the domain layer).
type PublishResult = models.PublishResult

// PublishFailure is returned when a batch aborts. Result carries what was
// published before the failure.
type PublishFailure struct {
	Error  string        `json:"error" validate:"required"`
	Result PublishResult `json:"result"`
}

// StatusResponse reports whether a publish is in flight.
type StatusResponse struct {
	Publishing bool `json:"publishing" example:"false"`
}

// Manifest is the site manifest (aliased from the domain layer).
type Manifest = models.Manifest

// FolderIndex is one folder document (aliased from the domain layer).
type FolderIndex = models.FolderIndex

// SearchResult is a single search hit (aliased from the index layer).
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// Preview is a processed but unsaved note.
type Preview = publishservice.Preview
