// handler.go — основной обработчик API AD Roles.
// Объединяет все доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/adroles/internal/api/errors"
	"github.com/bigkaa/adroles/internal/repository"
	"github.com/bigkaa/adroles/internal/service"
)

// APIHandler — основной обработчик API AD Roles.
type APIHandler struct {
	health     *HealthHandler
	persons    *service.PersonService
	roles      *service.RoleService
	entities   *service.DirectoryEntityService
	endpoints  *service.EndpointService
	reconciler *service.DirectoryReconciler
	syncState  repository.SyncStateRepository
	dirClient  service.DirectoryClient
	logger     *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	persons *service.PersonService,
	roles *service.RoleService,
	entities *service.DirectoryEntityService,
	endpoints *service.EndpointService,
	reconciler *service.DirectoryReconciler,
	syncState repository.SyncStateRepository,
	dirClient service.DirectoryClient,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:     health,
		persons:    persons,
		roles:      roles,
		entities:   entities,
		endpoints:  endpoints,
		reconciler: reconciler,
		syncState:  syncState,
		dirClient:  dirClient,
		logger:     logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON разбирает тело запроса; ошибка — ValidationError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса: "+err.Error())
		return false
	}
	return true
}

// pagination извлекает limit/offset и поисковую строку из query-параметров.
func pagination(r *http.Request) (search *string, limit, offset int) {
	limit = 100
	offset = 0

	q := r.URL.Query()
	if s := q.Get("search"); s != "" {
		search = &s
	}
	if raw := q.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			offset = v
		}
	}

	if limit < 1 {
		limit = 1
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return search, limit, offset
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrDirectoryUnavailable):
		apierrors.DirectoryUnavailable(w, err.Error())
	case errors.Is(err, service.ErrSyncInProgress):
		apierrors.SyncInProgress(w, err.Error())
	case errors.Is(err, service.ErrNotImplemented):
		apierrors.NotImplemented(w, err.Error())
	default:
		h.logger.Error("Внутренняя ошибка API", slog.String("error", err.Error()))
		apierrors.InternalError(w, "внутренняя ошибка сервиса")
	}
}
