package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/service"
	"github.com/vaultbox/vaultbox/pkg/httpx"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

type CollectionHandler struct {
	CollectionService *service.CollectionService
}

func (h *CollectionHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	var req passsdk.CollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	c, err := h.CollectionService.Save(r.Context(), session.Owner, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, passsdk.CollectionIDResponse{ID: c.ID})
}

func (h *CollectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	collections, err := h.CollectionService.List(r.Context(), session.Owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]passsdk.CollectionResponse, 0, len(collections))
	for _, c := range collections {
		out = append(out, toCollectionResponse(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *CollectionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, domain.ErrCollectionNotFound)
		return
	}

	c, err := h.CollectionService.Get(r.Context(), session.Owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toCollectionResponse(c))
}

func (h *CollectionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, domain.ErrCollectionNotFound)
		return
	}

	if err := h.CollectionService.Delete(r.Context(), session.Owner, id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func toCollectionResponse(c domain.Collection) passsdk.CollectionResponse {
	return passsdk.CollectionResponse{
		ID:           c.ID,
		Owner:        c.Owner,
		Name:         c.Name,
		Created:      c.Created,
		LastModified: c.LastModified,
	}
}
