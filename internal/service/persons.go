// persons.go — сервис управления сотрудниками.
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

// PersonService — сервис управления сотрудниками.
type PersonService struct {
	personRepo   repository.PersonRepository
	userRepo     repository.DirectoryUserRepository
	relationRepo repository.RelationRepository
	cascade      *CascadeService
	logger       *slog.Logger
}

// NewPersonService создаёт сервис сотрудников.
func NewPersonService(
	personRepo repository.PersonRepository,
	userRepo repository.DirectoryUserRepository,
	relationRepo repository.RelationRepository,
	cascade *CascadeService,
	logger *slog.Logger,
) *PersonService {
	return &PersonService{
		personRepo:   personRepo,
		userRepo:     userRepo,
		relationRepo: relationRepo,
		cascade:      cascade,
		logger:       logger.With(slog.String("component", "person_service")),
	}
}

// Create создаёт сотрудника вручную.
func (s *PersonService) Create(ctx context.Context, p *model.Person) (*model.Person, error) {
	if strings.TrimSpace(p.CentralAccountName) == "" {
		return nil, fmt.Errorf("%w: central_account_name обязателен", ErrValidation)
	}
	if strings.TrimSpace(p.LastName) == "" {
		return nil, fmt.Errorf("%w: last_name обязателен", ErrValidation)
	}

	p.ID = uuid.New().String()
	if err := s.personRepo.Create(ctx, p); err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Info("Сотрудник создан",
		slog.String("id", p.ID),
		slog.String("central_account_name", p.CentralAccountName),
	)
	return p, nil
}

// Get возвращает сотрудника по UUID.
func (s *PersonService) Get(ctx context.Context, id string) (*model.Person, error) {
	p, err := s.personRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return p, nil
}

// List возвращает сотрудников с подстрочным поиском и пагинацией.
func (s *PersonService) List(ctx context.Context, search *string, limit, offset int) ([]*model.Person, int, error) {
	persons, err := s.personRepo.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.personRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return persons, total, nil
}

// Update обновляет сотрудника.
func (s *PersonService) Update(ctx context.Context, p *model.Person) (*model.Person, error) {
	if strings.TrimSpace(p.LastName) == "" {
		return nil, fmt.Errorf("%w: last_name обязателен", ErrValidation)
	}
	if err := s.personRepo.Update(ctx, p); err != nil {
		return nil, mapRepoError(err)
	}
	return p, nil
}

// Delete удаляет сотрудника с каскадом связей.
func (s *PersonService) Delete(ctx context.Context, id string) error {
	if err := s.cascade.DeletePersonComplete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Сотрудник удалён", slog.String("id", id))
	return nil
}

// DeleteBatch удаляет список сотрудников с каскадом связей.
func (s *PersonService) DeleteBatch(ctx context.Context, ids []string) *model.CascadeResult {
	return s.cascade.DeletePersonsComplete(ctx, ids)
}

// DirectoryUsers возвращает учётные записи каталога, привязанные к сотруднику.
func (s *PersonService) DirectoryUsers(ctx context.Context, personID string) ([]*model.DirectoryUser, error) {
	if _, err := s.personRepo.GetByID(ctx, personID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.userRepo.ListByPersonID(ctx, personID)
}

// RoleIDs возвращает идентификаторы ролей сотрудника.
func (s *PersonService) RoleIDs(ctx context.Context, personID string) ([]string, error) {
	if _, err := s.personRepo.GetByID(ctx, personID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.relationRepo.RoleIDsForPerson(ctx, personID)
}
