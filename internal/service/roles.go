// roles.go — сервис управления ролями и их связями.
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

// RoleService — сервис управления ролями.
type RoleService struct {
	roleRepo     repository.RoleRepository
	relationRepo repository.RelationRepository
	catalog      *ResourceCatalog
	cascade      *CascadeService
	logger       *slog.Logger
}

// NewRoleService создаёт сервис ролей.
func NewRoleService(
	roleRepo repository.RoleRepository,
	relationRepo repository.RelationRepository,
	catalog *ResourceCatalog,
	cascade *CascadeService,
	logger *slog.Logger,
) *RoleService {
	return &RoleService{
		roleRepo:     roleRepo,
		relationRepo: relationRepo,
		catalog:      catalog,
		cascade:      cascade,
		logger:       logger.With(slog.String("component", "role_service")),
	}
}

// Create создаёт роль с ресурсом указанного вида.
func (s *RoleService) Create(ctx context.Context, name string, description *string, admin bool, kind model.ResourceKind) (*model.Role, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: имя роли обязательно", ErrValidation)
	}

	res, err := s.catalog.Get(ctx, kind)
	if err != nil {
		return nil, err
	}

	role := &model.Role{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		AdminRole:   admin,
		ResourceID:  res.ID,
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Info("Роль создана",
		slog.String("id", role.ID),
		slog.String("name", role.Name),
		slog.String("kind", string(kind)),
	)
	return role, nil
}

// Get возвращает роль по UUID.
func (s *RoleService) Get(ctx context.Context, id string) (*model.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return role, nil
}

// List возвращает роли с подстрочным поиском и пагинацией.
func (s *RoleService) List(ctx context.Context, search *string, limit, offset int) ([]*model.Role, int, error) {
	roles, err := s.roleRepo.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.roleRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

// Update обновляет роль.
func (s *RoleService) Update(ctx context.Context, role *model.Role) (*model.Role, error) {
	if strings.TrimSpace(role.Name) == "" {
		return nil, fmt.Errorf("%w: имя роли обязательно", ErrValidation)
	}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, mapRepoError(err)
	}
	return role, nil
}

// Delete удаляет роль с каскадом связей.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	if err := s.cascade.DeleteRoleComplete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Роль удалена", slog.String("id", id))
	return nil
}

// DeleteBatch удаляет список ролей с каскадом связей.
func (s *RoleService) DeleteBatch(ctx context.Context, ids []string) *model.CascadeResult {
	return s.cascade.DeleteRolesComplete(ctx, ids)
}

// Members возвращает идентификаторы участников роли.
func (s *RoleService) Members(ctx context.Context, roleID string) (persons, users, groups []string, err error) {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		return nil, nil, nil, mapRepoError(err)
	}
	if persons, err = s.relationRepo.PersonIDsForRole(ctx, roleID); err != nil {
		return nil, nil, nil, err
	}
	if users, err = s.relationRepo.UserIDsForRole(ctx, roleID); err != nil {
		return nil, nil, nil, err
	}
	if groups, err = s.relationRepo.GroupIDsForRole(ctx, roleID); err != nil {
		return nil, nil, nil, err
	}
	return persons, users, groups, nil
}

// LinkPerson добавляет сотрудника в роль.
func (s *RoleService) LinkPerson(ctx context.Context, roleID, personID string) error {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		return mapRepoError(err)
	}
	return s.relationRepo.LinkPerson(ctx, roleID, personID)
}

// UnlinkPerson убирает сотрудника из роли.
func (s *RoleService) UnlinkPerson(ctx context.Context, roleID, personID string) error {
	return s.relationRepo.UnlinkPerson(ctx, roleID, personID)
}

// LinkUser добавляет учётную запись каталога в роль.
func (s *RoleService) LinkUser(ctx context.Context, roleID, userID string) error {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		return mapRepoError(err)
	}
	return s.relationRepo.LinkUser(ctx, roleID, userID)
}

// UnlinkUser убирает учётную запись каталога из роли.
func (s *RoleService) UnlinkUser(ctx context.Context, roleID, userID string) error {
	return s.relationRepo.UnlinkUser(ctx, roleID, userID)
}

// LinkGroup добавляет группу каталога в роль.
func (s *RoleService) LinkGroup(ctx context.Context, roleID, groupID string) error {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		return mapRepoError(err)
	}
	return s.relationRepo.LinkGroup(ctx, roleID, groupID)
}

// UnlinkGroup убирает группу каталога из роли.
func (s *RoleService) UnlinkGroup(ctx context.Context, roleID, groupID string) error {
	return s.relationRepo.UnlinkGroup(ctx, roleID, groupID)
}

// Resources возвращает справочник видов ресурсов.
func (s *RoleService) Resources(ctx context.Context) ([]*model.RoleResource, error) {
	return s.catalog.List(ctx)
}
