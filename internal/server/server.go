// Пакет server — HTTP-сервер AD Roles с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/adroles/internal/api/handlers"
	"github.com/bigkaa/adroles/internal/api/middleware"
	"github.com/bigkaa/adroles/internal/config"
)

// Server — HTTP-сервер AD Roles.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, h *handlers.APIHandler) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health и metrics проверяются Kubernetes напрямую, без API Gateway.
	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/persons", func(r chi.Router) {
			r.Get("/", h.ListPersons)
			r.Post("/", h.CreatePerson)
			r.Post("/batch-delete", h.DeletePersonsBatch)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPerson)
				r.Put("/", h.UpdatePerson)
				r.Delete("/", h.DeletePerson)
				r.Get("/directory-users", h.ListPersonDirectoryUsers)
				r.Get("/roles", h.ListPersonRoles)
			})
		})

		r.Route("/directory-users", func(r chi.Router) {
			r.Get("/", h.ListDirectoryUsers)
			r.Post("/batch-delete", h.DeleteDirectoryUsersBatch)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetDirectoryUser)
				r.Delete("/", h.DeleteDirectoryUser)
				r.Put("/flags", h.UpdateDirectoryUserFlags)
				r.Put("/person", h.AssignDirectoryUserPerson)
				r.Get("/roles", h.ListDirectoryUserRoles)
			})
		})

		r.Route("/directory-groups", func(r chi.Router) {
			r.Get("/", h.ListDirectoryGroups)
			r.Post("/batch-delete", h.DeleteDirectoryGroupsBatch)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetDirectoryGroup)
				r.Delete("/", h.DeleteDirectoryGroup)
				r.Get("/roles", h.ListDirectoryGroupRoles)
			})
		})

		r.Route("/roles", func(r chi.Router) {
			r.Get("/", h.ListRoles)
			r.Post("/", h.CreateRole)
			r.Post("/batch-delete", h.DeleteRolesBatch)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetRole)
				r.Put("/", h.UpdateRole)
				r.Delete("/", h.DeleteRole)
				r.Get("/members", h.GetRoleMembers)
				r.Put("/persons/{personId}", h.LinkRolePerson)
				r.Delete("/persons/{personId}", h.UnlinkRolePerson)
				r.Put("/directory-users/{userId}", h.LinkRoleUser)
				r.Delete("/directory-users/{userId}", h.UnlinkRoleUser)
				r.Put("/directory-groups/{groupId}", h.LinkRoleGroup)
				r.Delete("/directory-groups/{groupId}", h.UnlinkRoleGroup)
			})
		})

		r.Get("/role-resources", h.ListRoleResources)

		r.Route("/directory-endpoints", func(r chi.Router) {
			r.Get("/", h.ListDirectoryEndpoints)
			r.Post("/", h.CreateDirectoryEndpoint)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetDirectoryEndpoint)
				r.Put("/", h.UpdateDirectoryEndpoint)
				r.Delete("/", h.DeleteDirectoryEndpoint)
			})
		})

		r.Route("/imports", func(r chi.Router) {
			r.Post("/users", h.ImportUsers)
			r.Post("/groups", h.ImportGroups)
			r.Post("/roles", h.ImportRoles)
			r.Post("/org-units", h.ImportOrgUnits)
			r.Get("/status", h.GetImportStatus)
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
