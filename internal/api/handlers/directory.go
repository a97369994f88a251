// directory.go — обработчики учётных записей и групп каталога.
// Записи создаются только импортом, поэтому API read-only
// плюс смена локальных флагов, привязка к сотруднику и удаление.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/adroles/internal/api/errors"
)

// ListDirectoryUsers — GET /api/v1/directory-users.
func (h *APIHandler) ListDirectoryUsers(w http.ResponseWriter, r *http.Request) {
	search, limit, offset := pagination(r)

	users, total, err := h.entities.ListUsers(r.Context(), search, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]directoryUserDTO, 0, len(users))
	for _, u := range users {
		items = append(items, mapDirectoryUser(u))
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, limit, offset))
}

// GetDirectoryUser — GET /api/v1/directory-users/{id}.
func (h *APIHandler) GetDirectoryUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.entities.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDirectoryUser(u))
}

// userFlagsRequest — тело запроса смены локальных флагов учётки.
type userFlagsRequest struct {
	AdminAccount   bool `json:"admin_account"`
	ServiceAccount bool `json:"service_account"`
	RoleManaged    bool `json:"role_managed"`
}

// UpdateDirectoryUserFlags — PUT /api/v1/directory-users/{id}/flags.
// Флаги локальные, импорт их не перетирает.
func (h *APIHandler) UpdateDirectoryUserFlags(w http.ResponseWriter, r *http.Request) {
	var req userFlagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.entities.UpdateUserFlags(r.Context(), chi.URLParam(r, "id"),
		req.AdminAccount, req.ServiceAccount, req.RoleManaged)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDirectoryUser(u))
}

// assignPersonRequest — тело запроса привязки учётки к сотруднику.
// person_id = null отвязывает учётку.
type assignPersonRequest struct {
	PersonID *string `json:"person_id"`
}

// AssignDirectoryUserPerson — PUT /api/v1/directory-users/{id}/person.
func (h *APIHandler) AssignDirectoryUserPerson(w http.ResponseWriter, r *http.Request) {
	var req assignPersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.entities.AssignPerson(r.Context(), chi.URLParam(r, "id"), req.PersonID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDirectoryUserRoles — GET /api/v1/directory-users/{id}/roles.
func (h *APIHandler) ListDirectoryUserRoles(w http.ResponseWriter, r *http.Request) {
	ids, err := h.entities.UserRoleIDs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"role_ids": ids})
}

// DeleteDirectoryUser — DELETE /api/v1/directory-users/{id}.
func (h *APIHandler) DeleteDirectoryUser(w http.ResponseWriter, r *http.Request) {
	if err := h.entities.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDirectoryUsersBatch — POST /api/v1/directory-users/batch-delete.
func (h *APIHandler) DeleteDirectoryUsersBatch(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		apierrors.ValidationError(w, "список ids не может быть пустым")
		return
	}

	res := h.entities.DeleteUsers(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, mapCascadeResult(res))
}

// ListDirectoryGroups — GET /api/v1/directory-groups.
func (h *APIHandler) ListDirectoryGroups(w http.ResponseWriter, r *http.Request) {
	search, limit, offset := pagination(r)

	groups, total, err := h.entities.ListGroups(r.Context(), search, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]directoryGroupDTO, 0, len(groups))
	for _, g := range groups {
		items = append(items, mapDirectoryGroup(g))
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, limit, offset))
}

// GetDirectoryGroup — GET /api/v1/directory-groups/{id}.
func (h *APIHandler) GetDirectoryGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.entities.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDirectoryGroup(g))
}

// ListDirectoryGroupRoles — GET /api/v1/directory-groups/{id}/roles.
func (h *APIHandler) ListDirectoryGroupRoles(w http.ResponseWriter, r *http.Request) {
	ids, err := h.entities.GroupRoleIDs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"role_ids": ids})
}

// DeleteDirectoryGroup — DELETE /api/v1/directory-groups/{id}.
func (h *APIHandler) DeleteDirectoryGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.entities.DeleteGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDirectoryGroupsBatch — POST /api/v1/directory-groups/batch-delete.
func (h *APIHandler) DeleteDirectoryGroupsBatch(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		apierrors.ValidationError(w, "список ids не может быть пустым")
		return
	}

	res := h.entities.DeleteGroups(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, mapCascadeResult(res))
}
