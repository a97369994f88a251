// endpoints.go — обработчики endpoint'ов каталога.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/adroles/internal/domain/model"
)

// endpointRequest — тело запроса создания/обновления endpoint'а.
// Пустой bind_password при обновлении означает «оставить прежний».
type endpointRequest struct {
	Name         string `json:"name"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Secure       bool   `json:"secure"`
	BindDN       string `json:"bind_dn"`
	BindPassword string `json:"bind_password"`
	BaseDN       string `json:"base_dn"`
}

func (req *endpointRequest) toModel() *model.DirectoryEndpoint {
	return &model.DirectoryEndpoint{
		Name:         req.Name,
		Host:         req.Host,
		Port:         req.Port,
		Secure:       req.Secure,
		BindDN:       req.BindDN,
		BindPassword: req.BindPassword,
		BaseDN:       req.BaseDN,
	}
}

// ListDirectoryEndpoints — GET /api/v1/directory-endpoints.
func (h *APIHandler) ListDirectoryEndpoints(w http.ResponseWriter, r *http.Request) {
	eps, err := h.endpoints.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]directoryEndpointDTO, 0, len(eps))
	for _, ep := range eps {
		items = append(items, mapDirectoryEndpoint(ep))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreateDirectoryEndpoint — POST /api/v1/directory-endpoints.
// После создания клиент каталога переконфигурируется.
func (h *APIHandler) CreateDirectoryEndpoint(w http.ResponseWriter, r *http.Request) {
	var req endpointRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.endpoints.Create(r.Context(), req.toModel())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapDirectoryEndpoint(created))
}

// GetDirectoryEndpoint — GET /api/v1/directory-endpoints/{id}.
func (h *APIHandler) GetDirectoryEndpoint(w http.ResponseWriter, r *http.Request) {
	ep, err := h.endpoints.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDirectoryEndpoint(ep))
}

// UpdateDirectoryEndpoint — PUT /api/v1/directory-endpoints/{id}.
func (h *APIHandler) UpdateDirectoryEndpoint(w http.ResponseWriter, r *http.Request) {
	var req endpointRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ep := req.toModel()
	ep.ID = chi.URLParam(r, "id")

	if ep.BindPassword == "" {
		current, err := h.endpoints.Get(r.Context(), ep.ID)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		ep.BindPassword = current.BindPassword
	}

	updated, err := h.endpoints.Update(r.Context(), ep)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDirectoryEndpoint(updated))
}

// DeleteDirectoryEndpoint — DELETE /api/v1/directory-endpoints/{id}.
func (h *APIHandler) DeleteDirectoryEndpoint(w http.ResponseWriter, r *http.Request) {
	if err := h.endpoints.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
