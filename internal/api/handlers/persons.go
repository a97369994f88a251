// persons.go — обработчики сотрудников.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/adroles/internal/api/errors"
	"github.com/bigkaa/adroles/internal/domain/model"
)

// personRequest — тело запроса создания/обновления сотрудника.
type personRequest struct {
	CentralAccountName string     `json:"central_account_name"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Email              *string    `json:"email"`
	Phone              *string    `json:"phone"`
	Mobile             *string    `json:"mobile"`
	Department         *string    `json:"department"`
	Description        *string    `json:"description"`
	EntryDate          *time.Time `json:"entry_date"`
	ExitDate           *time.Time `json:"exit_date"`
}

func (req *personRequest) toModel() *model.Person {
	return &model.Person{
		CentralAccountName: req.CentralAccountName,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Phone:              req.Phone,
		Mobile:             req.Mobile,
		Department:         req.Department,
		Description:        req.Description,
		EntryDate:          req.EntryDate,
		ExitDate:           req.ExitDate,
	}
}

// ListPersons — GET /api/v1/persons.
func (h *APIHandler) ListPersons(w http.ResponseWriter, r *http.Request) {
	search, limit, offset := pagination(r)

	persons, total, err := h.persons.List(r.Context(), search, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]personDTO, 0, len(persons))
	for _, p := range persons {
		items = append(items, mapPerson(p))
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, limit, offset))
}

// CreatePerson — POST /api/v1/persons.
func (h *APIHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.persons.Create(r.Context(), req.toModel())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapPerson(created))
}

// GetPerson — GET /api/v1/persons/{id}.
func (h *APIHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := h.persons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPerson(p))
}

// UpdatePerson — PUT /api/v1/persons/{id}.
func (h *APIHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := req.toModel()
	p.ID = chi.URLParam(r, "id")

	updated, err := h.persons.Update(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPerson(updated))
}

// DeletePerson — DELETE /api/v1/persons/{id}.
// Удаление каскадное: связи с учётками и ролями чистятся явно.
func (h *APIHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := h.persons.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// batchDeleteRequest — тело запроса пакетного удаления.
type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// DeletePersonsBatch — POST /api/v1/persons/batch-delete.
func (h *APIHandler) DeletePersonsBatch(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		apierrors.ValidationError(w, "список ids не может быть пустым")
		return
	}

	res := h.persons.DeleteBatch(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, mapCascadeResult(res))
}

// ListPersonDirectoryUsers — GET /api/v1/persons/{id}/directory-users.
func (h *APIHandler) ListPersonDirectoryUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.persons.DirectoryUsers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]directoryUserDTO, 0, len(users))
	for _, u := range users {
		items = append(items, mapDirectoryUser(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ListPersonRoles — GET /api/v1/persons/{id}/roles.
func (h *APIHandler) ListPersonRoles(w http.ResponseWriter, r *http.Request) {
	ids, err := h.persons.RoleIDs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"role_ids": ids})
}
