// endpoints.go — сервис управления endpoint'ами каталога.
//
// При ровно одной записи в таблице directory_endpoints клиент каталога
// конфигурируется автоматически и выполняется одна попытка eager connect;
// её ошибка проглатывается — соединение перепроверяется лениво перед
// импортом.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bigkaa/adroles/internal/domain/model"
	"github.com/bigkaa/adroles/internal/repository"
)

// DirectoryConfigurator — часть клиента каталога, нужная сервису endpoint'ов.
type DirectoryConfigurator interface {
	// Configure устанавливает параметры подключения и сбрасывает соединение.
	Configure(ep *model.DirectoryEndpoint)
	// Connect устанавливает соединение с каталогом.
	Connect(ctx context.Context) error
	// Reset сбрасывает соединение.
	Reset()
}

// EndpointService — сервис endpoint'ов каталога.
type EndpointService struct {
	repo   repository.DirectoryEndpointRepository
	client DirectoryConfigurator
	logger *slog.Logger
}

// NewEndpointService создаёт сервис endpoint'ов каталога.
func NewEndpointService(
	repo repository.DirectoryEndpointRepository,
	client DirectoryConfigurator,
	logger *slog.Logger,
) *EndpointService {
	return &EndpointService{
		repo:   repo,
		client: client,
		logger: logger.With(slog.String("component", "endpoint_service")),
	}
}

// ConfigureClient конфигурирует клиент каталога, если endpoint ровно один.
// Вызывается при старте приложения и после каждого изменения endpoint'ов.
func (s *EndpointService) ConfigureClient(ctx context.Context) {
	endpoints, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Ошибка чтения endpoint'ов каталога", slog.String("error", err.Error()))
		return
	}
	if len(endpoints) != 1 {
		s.logger.Info("Автоконфигурация клиента каталога пропущена",
			slog.Int("endpoints", len(endpoints)),
		)
		s.client.Reset()
		return
	}

	ep := endpoints[0]
	s.client.Configure(ep)
	if err := s.client.Connect(ctx); err != nil {
		// Ошибка eager connect проглатывается: соединение перепроверится
		// лениво перед импортом.
		s.logger.Warn("Не удалось подключиться к каталогу",
			slog.String("endpoint", ep.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("Клиент каталога подключен", slog.String("endpoint", ep.Name))
}

func validateEndpoint(ep *model.DirectoryEndpoint) error {
	if strings.TrimSpace(ep.Name) == "" {
		return fmt.Errorf("%w: name обязателен", ErrValidation)
	}
	if strings.TrimSpace(ep.Host) == "" {
		return fmt.Errorf("%w: host обязателен", ErrValidation)
	}
	if ep.Port <= 0 || ep.Port > 65535 {
		return fmt.Errorf("%w: некорректный port %d", ErrValidation, ep.Port)
	}
	if strings.TrimSpace(ep.BaseDN) == "" {
		return fmt.Errorf("%w: base_dn обязателен", ErrValidation)
	}
	return nil
}

// Create создаёт endpoint каталога.
func (s *EndpointService) Create(ctx context.Context, ep *model.DirectoryEndpoint) (*model.DirectoryEndpoint, error) {
	if err := validateEndpoint(ep); err != nil {
		return nil, err
	}
	ep.ID = uuid.New().String()
	if err := s.repo.Create(ctx, ep); err != nil {
		return nil, mapRepoError(err)
	}
	s.logger.Info("Endpoint каталога создан",
		slog.String("id", ep.ID),
		slog.String("name", ep.Name),
	)
	s.ConfigureClient(ctx)
	return ep, nil
}

// Get возвращает endpoint по UUID.
func (s *EndpointService) Get(ctx context.Context, id string) (*model.DirectoryEndpoint, error) {
	ep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return ep, nil
}

// List возвращает все endpoint'ы каталога.
func (s *EndpointService) List(ctx context.Context) ([]*model.DirectoryEndpoint, error) {
	return s.repo.List(ctx)
}

// Update обновляет endpoint каталога.
func (s *EndpointService) Update(ctx context.Context, ep *model.DirectoryEndpoint) (*model.DirectoryEndpoint, error) {
	if err := validateEndpoint(ep); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, ep); err != nil {
		return nil, mapRepoError(err)
	}
	s.ConfigureClient(ctx)
	return ep, nil
}

// Delete удаляет endpoint каталога.
func (s *EndpointService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}
	s.ConfigureClient(ctx)
	return nil
}
