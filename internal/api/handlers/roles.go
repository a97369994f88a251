// roles.go — обработчики ролей и видов ресурсов.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/adroles/internal/api/errors"
	"github.com/bigkaa/adroles/internal/domain/model"
)

// createRoleRequest — тело запроса создания роли.
type createRoleRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	AdminRole   bool    `json:"admin_role"`
	// ResourceKind — вид ресурса роли (org, project, fileshare,
	// maillist, email, default). Пустое значение — default.
	ResourceKind string `json:"resource_kind"`
}

// updateRoleRequest — тело запроса обновления роли.
type updateRoleRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	AdminRole   bool    `json:"admin_role"`
}

// ListRoles — GET /api/v1/roles.
func (h *APIHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	search, limit, offset := pagination(r)

	roles, total, err := h.roles.List(r.Context(), search, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]roleDTO, 0, len(roles))
	for _, role := range roles {
		items = append(items, mapRole(role))
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, limit, offset))
}

// CreateRole — POST /api/v1/roles.
func (h *APIHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kind := model.ResourceKind(req.ResourceKind)
	if req.ResourceKind == "" {
		kind = model.ResourceDefault
	}

	created, err := h.roles.Create(r.Context(), req.Name, req.Description, req.AdminRole, kind)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapRole(created))
}

// GetRole — GET /api/v1/roles/{id}.
func (h *APIHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.roles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapRole(role))
}

// UpdateRole — PUT /api/v1/roles/{id}.
// Вид ресурса и признак org_role через API не меняются.
func (h *APIHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := h.roles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	role.Name = req.Name
	role.Description = req.Description
	role.AdminRole = req.AdminRole

	updated, err := h.roles.Update(r.Context(), role)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapRole(updated))
}

// DeleteRole — DELETE /api/v1/roles/{id}.
func (h *APIHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.roles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteRolesBatch — POST /api/v1/roles/batch-delete.
func (h *APIHandler) DeleteRolesBatch(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		apierrors.ValidationError(w, "список ids не может быть пустым")
		return
	}

	res := h.roles.DeleteBatch(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, mapCascadeResult(res))
}

// GetRoleMembers — GET /api/v1/roles/{id}/members.
// Возвращает идентификаторы связанных сотрудников, учёток и групп.
func (h *APIHandler) GetRoleMembers(w http.ResponseWriter, r *http.Request) {
	persons, users, groups, err := h.roles.Members(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if persons == nil {
		persons = []string{}
	}
	if users == nil {
		users = []string{}
	}
	if groups == nil {
		groups = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"person_ids": persons,
		"user_ids":   users,
		"group_ids":  groups,
	})
}

// LinkRolePerson — PUT /api/v1/roles/{id}/persons/{personId}.
func (h *APIHandler) LinkRolePerson(w http.ResponseWriter, r *http.Request) {
	err := h.roles.LinkPerson(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "personId"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlinkRolePerson — DELETE /api/v1/roles/{id}/persons/{personId}.
func (h *APIHandler) UnlinkRolePerson(w http.ResponseWriter, r *http.Request) {
	err := h.roles.UnlinkPerson(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "personId"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LinkRoleUser — PUT /api/v1/roles/{id}/directory-users/{userId}.
func (h *APIHandler) LinkRoleUser(w http.ResponseWriter, r *http.Request) {
	err := h.roles.LinkUser(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlinkRoleUser — DELETE /api/v1/roles/{id}/directory-users/{userId}.
func (h *APIHandler) UnlinkRoleUser(w http.ResponseWriter, r *http.Request) {
	err := h.roles.UnlinkUser(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LinkRoleGroup — PUT /api/v1/roles/{id}/directory-groups/{groupId}.
func (h *APIHandler) LinkRoleGroup(w http.ResponseWriter, r *http.Request) {
	err := h.roles.LinkGroup(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "groupId"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlinkRoleGroup — DELETE /api/v1/roles/{id}/directory-groups/{groupId}.
func (h *APIHandler) UnlinkRoleGroup(w http.ResponseWriter, r *http.Request) {
	err := h.roles.UnlinkGroup(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "groupId"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRoleResources — GET /api/v1/role-resources.
func (h *APIHandler) ListRoleResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.roles.Resources(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]roleResourceDTO, 0, len(resources))
	for _, res := range resources {
		items = append(items, mapRoleResource(res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
