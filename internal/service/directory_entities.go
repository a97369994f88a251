// directory_entities.go — сервис просмотра и правки сущностей каталога.
//
// Учётные записи и группы создаются импортом: сервис не создаёт их
// вручную, но позволяет листать, править локальные флаги, привязывать
// сотрудников и удалять с каскадом связей.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/adroles/internal/domain/model"
	"github.com/bigkaa/adroles/internal/repository"
)

// DirectoryEntityService — сервис сущностей каталога.
type DirectoryEntityService struct {
	userRepo     repository.DirectoryUserRepository
	groupRepo    repository.DirectoryGroupRepository
	personRepo   repository.PersonRepository
	relationRepo repository.RelationRepository
	cascade      *CascadeService
	logger       *slog.Logger
}

// NewDirectoryEntityService создаёт сервис сущностей каталога.
func NewDirectoryEntityService(
	userRepo repository.DirectoryUserRepository,
	groupRepo repository.DirectoryGroupRepository,
	personRepo repository.PersonRepository,
	relationRepo repository.RelationRepository,
	cascade *CascadeService,
	logger *slog.Logger,
) *DirectoryEntityService {
	return &DirectoryEntityService{
		userRepo:     userRepo,
		groupRepo:    groupRepo,
		personRepo:   personRepo,
		relationRepo: relationRepo,
		cascade:      cascade,
		logger:       logger.With(slog.String("component", "directory_entities")),
	}
}

// GetUser возвращает учётную запись каталога по UUID.
func (s *DirectoryEntityService) GetUser(ctx context.Context, id string) (*model.DirectoryUser, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return u, nil
}

// ListUsers возвращает учётные записи с поиском и пагинацией.
func (s *DirectoryEntityService) ListUsers(ctx context.Context, search *string, limit, offset int) ([]*model.DirectoryUser, int, error) {
	users, err := s.userRepo.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateUserFlags обновляет локальные флаги учётной записи
// (admin_account, service_account, role_managed).
func (s *DirectoryEntityService) UpdateUserFlags(ctx context.Context, id string, admin, service, roleManaged bool) (*model.DirectoryUser, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	u.AdminAccount = admin
	u.ServiceAccount = service
	u.RoleManaged = roleManaged
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, mapRepoError(err)
	}
	return u, nil
}

// AssignPerson привязывает учётную запись к сотруднику.
// personID = nil снимает привязку.
func (s *DirectoryEntityService) AssignPerson(ctx context.Context, userID string, personID *string) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return mapRepoError(err)
	}
	if personID != nil {
		if _, err := s.personRepo.GetByID(ctx, *personID); err != nil {
			return mapRepoError(err)
		}
	}
	return s.userRepo.AssignPerson(ctx, userID, personID)
}

// DeleteUser удаляет учётную запись с каскадом связей.
func (s *DirectoryEntityService) DeleteUser(ctx context.Context, id string) error {
	return s.cascade.DeleteUserComplete(ctx, id)
}

// DeleteUsers удаляет список учётных записей с каскадом связей.
func (s *DirectoryEntityService) DeleteUsers(ctx context.Context, ids []string) *model.CascadeResult {
	return s.cascade.DeleteUsersComplete(ctx, ids)
}

// GetGroup возвращает группу каталога по UUID.
func (s *DirectoryEntityService) GetGroup(ctx context.Context, id string) (*model.DirectoryGroup, error) {
	g, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return g, nil
}

// ListGroups возвращает группы с поиском и пагинацией.
func (s *DirectoryEntityService) ListGroups(ctx context.Context, search *string, limit, offset int) ([]*model.DirectoryGroup, int, error) {
	groups, err := s.groupRepo.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.groupRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

// GroupRoleIDs возвращает идентификаторы ролей группы.
func (s *DirectoryEntityService) GroupRoleIDs(ctx context.Context, groupID string) ([]string, error) {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.relationRepo.RoleIDsForGroup(ctx, groupID)
}

// UserRoleIDs возвращает идентификаторы ролей учётной записи.
func (s *DirectoryEntityService) UserRoleIDs(ctx context.Context, userID string) ([]string, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.relationRepo.RoleIDsForUser(ctx, userID)
}

// DeleteGroup удаляет группу с каскадом связей.
func (s *DirectoryEntityService) DeleteGroup(ctx context.Context, id string) error {
	return s.cascade.DeleteGroupComplete(ctx, id)
}

// DeleteGroups удаляет список групп с каскадом связей.
func (s *DirectoryEntityService) DeleteGroups(ctx context.Context, ids []string) *model.CascadeResult {
	return s.cascade.DeleteGroupsComplete(ctx, ids)
}
