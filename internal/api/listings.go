package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/torlist/internal/admission"
	"github.com/starford/torlist/internal/directory"
	"github.com/starford/torlist/internal/models"
)

// ListingHandler serves the public directory routes.
type ListingHandler struct {
	admission *admission.Service
	directory *directory.Service
}

// NewListingHandler creates a ListingHandler.
func NewListingHandler(adm *admission.Service, dir *directory.Service) *ListingHandler {
	return &ListingHandler{admission: adm, directory: dir}
}

// Submit handles POST /api/entries.
//
//	@Summary		Submit a signed listing
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SubmitListingRequest	true	"Listing to submit"
//	@Success		200		{object}	SubmitListingResponse
//	@Failure		406		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Router			/entries [post]
func (h *ListingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.admission.Submit(r.Context(), admission.Candidate{
		Entry:       stringOrEmpty(body, models.FieldEntry),
		Description: stringOrEmpty(body, models.FieldDescription),
		SLPAddress:  stringOrEmpty(body, models.FieldSLPAddress),
		Signature:   stringOrEmpty(body, models.FieldSignature),
		Category:    stringOrEmpty(body, models.FieldCategory),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitListingResponse{Hash: id})
}

// List handles GET /api/entries.
//
//	@Summary		List visible listings
//	@Tags			entries
//	@Produce		json
//	@Success		200	{object}	ListingsResponse
//	@Failure		503	{object}	errResponse
//	@Router			/entries [get]
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.directory.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListingsResponse{Entries: entries})
}

// ListByCategory handles GET /api/entries/c/{category}.
//
//	@Summary		List visible listings in a category
//	@Tags			entries
//	@Produce		json
//	@Param			category	path		string	true	"Category"	Enums(bch, ecommerce, info, eth, ipfs)
//	@Success		200			{object}	ListingsResponse
//	@Failure		503			{object}	errResponse
//	@Router			/entries/c/{category} [get]
func (h *ListingHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.directory.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListingsResponse{Entries: entries})
}
