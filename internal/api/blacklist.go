package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/torlist/internal/denylist"
)

// DenylistHandler serves the moderation routes.
type DenylistHandler struct {
	svc *denylist.Service
}

// NewDenylistHandler creates a DenylistHandler.
func NewDenylistHandler(svc *denylist.Service) *DenylistHandler {
	return &DenylistHandler{svc: svc}
}

// Create handles POST /api/blacklist.
//
//	@Summary		Add a listing hash to the denylist
//	@Tags			blacklist
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DenylistCreateRequest	true	"Entry to add"
//	@Success		200		{object}	DenylistEntryResponse
//	@Failure		401		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blacklist [post]
func (h *DenylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.svc.Create(r.Context(), denylist.Draft{
		Hash:   stringOrEmpty(body, "hash"),
		Reason: stringOrEmpty(body, "reason"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DenylistEntryResponse{Entry: entry, Message: denylist.MsgCreated})
}

// List handles GET /api/blacklist.
//
//	@Summary		List denylist entries
//	@Tags			blacklist
//	@Produce		json
//	@Success		200	{object}	DenylistListResponse
//	@Router			/blacklist [get]
func (h *DenylistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DenylistListResponse{Blacklist: entries})
}

// Get handles GET /api/blacklist/{id}. id may be a listing hash or an entry id.
//
//	@Summary		Get a denylist entry by hash or id
//	@Tags			blacklist
//	@Produce		json
//	@Param			id	path		string	true	"Listing hash or entry id"
//	@Success		200	{object}	DenylistEntryResponse
//	@Failure		404	{object}	errResponse
//	@Router			/blacklist/{id} [get]
func (h *DenylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DenylistEntryResponse{Entry: entry})
}

// Update handles PUT /api/blacklist/{id}.
//
//	@Summary		Update a denylist entry
//	@Tags			blacklist
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Listing hash or entry id"
//	@Param			body	body		DenylistUpdateRequest	true	"Fields to change"
//	@Success		200		{object}	DenylistEntryResponse
//	@Failure		401		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blacklist/{id} [put]
func (h *DenylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "api: update denylist"
	ctx := r.Context()

	entry, err := h.svc.Resolve(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch denylist.Patch
	for _, key := range []string{"hash", "reason"} {
		s, present, ok := stringProp(body, key)
		if !present {
			continue
		}
		if !ok {
			writeError(w, r, mustBeString(op, key))
			return
		}
		if key == "hash" {
			patch.Hash = &s
		} else {
			patch.Reason = &s
		}
	}

	updated, err := h.svc.Update(ctx, entry, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DenylistEntryResponse{Entry: updated, Message: denylist.MsgUpdated})
}

// Delete handles DELETE /api/blacklist/{id}.
//
//	@Summary		Remove a denylist entry
//	@Tags			blacklist
//	@Produce		json
//	@Param			id	path		string	true	"Listing hash or entry id"
//	@Success		200	{object}	DeleteResponse
//	@Failure		401	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/blacklist/{id} [delete]
func (h *DenylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry, err := h.svc.Resolve(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(ctx, entry); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true})
}
