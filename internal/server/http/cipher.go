package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/service"
	"github.com/vaultbox/vaultbox/pkg/httpx"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

type CipherHandler struct {
	CipherService *service.CipherService

	// IconClient fetches favicons from the passthrough upstream. Injected so
	// tests never hit the network.
	IconClient *http.Client
}

func (h *CipherHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	var req passsdk.CipherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	c, err := h.CipherService.Save(r.Context(), session.Owner, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, passsdk.CipherIDResponse{ID: c.ID})
}

func (h *CipherHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	ciphers, err := h.CipherService.List(r.Context(), session.Owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toCipherResponses(ciphers))
}

func (h *CipherHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	lastSync, err := strconv.ParseInt(r.URL.Query().Get("lastSync"), 10, 64)
	if err != nil || lastSync < 0 {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	ids, changed, err := h.CipherService.Sync(r.Context(), session.Owner, time.Unix(lastSync, 0).UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, passsdk.SyncResponse{
		IDs:     ids,
		Ciphers: toCipherResponses(changed),
	})
}

func (h *CipherHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, domain.ErrCipherNotFound)
		return
	}

	c, err := h.CipherService.Get(r.Context(), session.Owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toCipherResponse(c))
}

func (h *CipherHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, domain.ErrCipherNotFound)
		return
	}

	if err := h.CipherService.Delete(r.Context(), session.Owner, id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleIcon proxies website favicons so clients never expose the visited
// domains to a third party directly.
func (h *CipherHandler) HandleIcon(w http.ResponseWriter, r *http.Request) {
	domainParam := r.URL.Query().Get("domain")
	if domainParam == "" {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	upstream := "https://www.google.com/s2/favicons?domain=" + url.QueryEscape(domainParam) + "&sz=128"

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstream, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}

	client := h.IconClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		writeError(w, r, domain.ErrNotFound)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		writeError(w, r, domain.ErrNotFound)
		return
	}

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, resp.Body)
}

func toCipherResponse(c domain.EncryptedCipher) passsdk.CipherResponse {
	return passsdk.CipherResponse{
		ID:            c.ID,
		Owner:         c.Owner,
		Type:          int(c.Type),
		ProtectedData: c.ProtectedData,
		Collection:    c.Collection,
		Favorite:      c.Favorite,
		RePrompt:      c.RePrompt,
		Version:       c.Version,
		Created:       c.Created,
		LastModified:  c.LastModified,
	}
}

func toCipherResponses(cs []domain.EncryptedCipher) []passsdk.CipherResponse {
	out := make([]passsdk.CipherResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCipherResponse(c))
	}
	return out
}
