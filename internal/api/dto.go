package api

import "github.com/starford/torlist/internal/models"

// SubmitListingRequest is the request body for POST /api/entries.
type SubmitListingRequest struct {
	Entry       string `json:"entry" example:"http://example.onion" validate:"required"`
	Description string `json:"description" example:"A hidden service" validate:"required"`
	SLPAddress  string `json:"slpAddress" example:"simpleledger:qp49th03gvjn58d6fxzaga6u09w4z56smyuk43lzkd" validate:"required"`
	Signature   string `json:"signature" example:"H1Bv2xUBGZBTuNsUghix03Yp8n8YPPkfsPq6LktwDpC2e1estOfYx96NH3/eaHJpQpPSHSb6pQYaiR3KZ6Z9lRc=" validate:"required"`
	Category    string `json:"category" example:"info" validate:"required"`
}

// SubmitListingResponse carries the identifier of the admitted listing.
type SubmitListingResponse struct {
	Hash string `json:"hash" example:"9b1f0c..." validate:"required"`
}

// ListingsResponse wraps listing reads.
type ListingsResponse struct {
	Entries []models.Listing `json:"entries" validate:"required"`
}

// DenylistCreateRequest is the request body for POST /api/blacklist.
type DenylistCreateRequest struct {
	Hash   string `json:"hash" example:"e09f6a7593f8ae3994ea57e1117f67ec" validate:"required"`
	Reason string `json:"reason" example:"It is being spammed" validate:"required"`
}

// DenylistUpdateRequest is the request body for PUT /api/blacklist/{id}.
// Omitted properties are left unchanged.
type DenylistUpdateRequest struct {
	Hash   *string `json:"hash,omitempty" example:"e09f6a7593f8ae3994ea57e1117f67ec"`
	Reason *string `json:"reason,omitempty" example:"It is not a real site"`
}

// DenylistEntryResponse wraps a single entry, with a message after mutations.
type DenylistEntryResponse struct {
	Entry   models.DenylistEntry `json:"entry" validate:"required"`
	Message string               `json:"message,omitempty" example:"Site added to the blacklist"`
}

// DenylistListResponse wraps every denylist entry.
type DenylistListResponse struct {
	Blacklist []models.DenylistEntry `json:"blacklist" validate:"required"`
}

// DeleteResponse is returned after a denylist entry is removed.
type DeleteResponse struct {
	Success bool `json:"success" example:"true" validate:"required"`
}
