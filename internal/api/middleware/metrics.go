// metrics.go — Prometheus HTTP метрики сервиса AD Roles.
// Регистрирует метрики: adroles_http_requests_total, adroles_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adroles_http_requests_total",
			Help: "Общее количество HTTP-запросов к сервису AD Roles",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adroles_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к сервису AD Roles в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем UUID на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет UUID-сегменты пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /api/v1/persons/a1b2c3d4-... → /api/v1/persons/{id}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/persons",
		"/api/v1/persons/batch-delete",
		"/api/v1/directory-users",
		"/api/v1/directory-users/batch-delete",
		"/api/v1/directory-groups",
		"/api/v1/directory-groups/batch-delete",
		"/api/v1/roles",
		"/api/v1/roles/batch-delete",
		"/api/v1/role-resources",
		"/api/v1/directory-endpoints",
		"/api/v1/imports/users",
		"/api/v1/imports/groups",
		"/api/v1/imports/roles",
		"/api/v1/imports/org-units",
		"/api/v1/imports/status":
		return path
	}

	// Динамические пути с UUID
	prefixes := []struct {
		prefix string
		result string
	}{
		{"/api/v1/persons/", "/api/v1/persons/{id}"},
		{"/api/v1/directory-users/", "/api/v1/directory-users/{id}"},
		{"/api/v1/directory-groups/", "/api/v1/directory-groups/{id}"},
		{"/api/v1/roles/", "/api/v1/roles/{id}"},
		{"/api/v1/directory-endpoints/", "/api/v1/directory-endpoints/{id}"},
	}

	for _, p := range prefixes {
		if len(path) > len(p.prefix) && strings.HasPrefix(path, p.prefix) {
			rest := path[len(p.prefix):]
			if idx := strings.IndexByte(rest, '/'); idx >= 0 {
				// Вложенные под-ресурсы: /roles/{id}/persons/{id} и т.п.
				sub := rest[idx:]
				for _, nested := range []string{"/persons/", "/directory-users/", "/directory-groups/"} {
					if strings.HasPrefix(sub, nested) {
						return p.result + nested[:len(nested)-1] + "/{id}"
					}
				}
				switch sub {
				case "/directory-users", "/roles", "/members", "/flags", "/person":
					return p.result + sub
				}
				return p.result
			}
			return p.result
		}
	}

	return path
}
