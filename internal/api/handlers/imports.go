// imports.go — обработчики импорта из каталога.
package handlers

import (
	"net/http"
	"time"
)

// importRequest — тело запроса импорта пользователей/групп.
type importRequest struct {
	// ReplaceAll — режим полной замены. Инкрементальный режим
	// (false) пока не поддерживается.
	ReplaceAll bool `json:"replace_all"`
}

// ImportUsers — POST /api/v1/imports/users.
// Импортирует учётные записи и сотрудников из каталога.
func (h *APIHandler) ImportUsers(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.reconciler.ImportUsers(r.Context(), req.ReplaceAll)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapImportResult(res))
}

// ImportGroups — POST /api/v1/imports/groups.
func (h *APIHandler) ImportGroups(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.reconciler.ImportGroups(r.Context(), req.ReplaceAll)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapImportResult(res))
}

// ImportRoles — POST /api/v1/imports/roles.
// Создаёт роли по импортированным группам каталога.
func (h *APIHandler) ImportRoles(w http.ResponseWriter, r *http.Request) {
	res, err := h.reconciler.ImportRolesFromGroups(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapImportResult(res))
}

// ImportOrgUnits — POST /api/v1/imports/org-units.
// Перестраивает роли-подразделения по департаментам сотрудников.
func (h *APIHandler) ImportOrgUnits(w http.ResponseWriter, r *http.Request) {
	res, err := h.reconciler.ImportOrgUnitsFromPersons(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapImportResult(res))
}

// importStatusResponse — состояние импорта и подключения к каталогу.
type importStatusResponse struct {
	DirectoryConnected bool       `json:"directory_connected"`
	LastUserImportAt   *time.Time `json:"last_user_import_at,omitempty"`
	LastGroupImportAt  *time.Time `json:"last_group_import_at,omitempty"`
}

// GetImportStatus — GET /api/v1/imports/status.
func (h *APIHandler) GetImportStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.syncState.Get(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, importStatusResponse{
		DirectoryConnected: h.dirClient.IsConnected(r.Context()),
		LastUserImportAt:   state.LastUserImportAt,
		LastGroupImportAt:  state.LastGroupImportAt,
	})
}
