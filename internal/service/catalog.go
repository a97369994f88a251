// catalog.go — каталог видов ресурсов ролей.
//
// На каждый вид ресурса (org, project, fileshare, maillist, email, default)
// в таблице role_resources существует не более одной записи. Каталог
// создаёт запись лениво при первом обращении и кэширует её в памяти.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/bigkaa/adroles/internal/domain/model"
	"github.com/bigkaa/adroles/internal/repository"
)

// resourceMeta — отображаемые атрибуты вида ресурса.
type resourceMeta struct {
	name           string
	description    string
	viewID         string
	titleKey       string
	descriptionKey string
}

// Атрибуты справочных записей по видам ресурсов.
var resourceMetaByKind = map[model.ResourceKind]resourceMeta{
	model.ResourceOrg: {
		name:           "Подразделение",
		description:    "Роль-подразделение, создаётся импортом оргструктуры",
		viewID:         "org",
		titleKey:       "role.resource.org.title",
		descriptionKey: "role.resource.org.description",
	},
	model.ResourceProject: {
		name:           "Проект",
		description:    "Роль доступа к проекту",
		viewID:         "project",
		titleKey:       "role.resource.project.title",
		descriptionKey: "role.resource.project.description",
	},
	model.ResourceFileShare: {
		name:           "Файловый ресурс",
		description:    "Роль доступа к файловому ресурсу",
		viewID:         "fileshare",
		titleKey:       "role.resource.fileshare.title",
		descriptionKey: "role.resource.fileshare.description",
	},
	model.ResourceMailList: {
		name:           "Список рассылки",
		description:    "Роль членства в списке рассылки",
		viewID:         "maillist",
		titleKey:       "role.resource.maillist.title",
		descriptionKey: "role.resource.maillist.description",
	},
	model.ResourceEmail: {
		name:           "Почтовый ящик",
		description:    "Роль доступа к почтовому ящику",
		viewID:         "email",
		titleKey:       "role.resource.email.title",
		descriptionKey: "role.resource.email.description",
	},
	model.ResourceDefault: {
		name:           "Общая роль",
		description:    "Роль без привязки к конкретному виду ресурса",
		viewID:         "default",
		titleKey:       "role.resource.default.title",
		descriptionKey: "role.resource.default.description",
	},
}

// ResourceCatalog — каталог видов ресурсов ролей с ленивым созданием.
type ResourceCatalog struct {
	repo   repository.RoleResourceRepository
	logger *slog.Logger

	mu    sync.Mutex
	cache map[model.ResourceKind]*model.RoleResource
}

// NewResourceCatalog создаёт каталог ресурсов ролей.
func NewResourceCatalog(repo repository.RoleResourceRepository, logger *slog.Logger) *ResourceCatalog {
	return &ResourceCatalog{
		repo:   repo,
		logger: logger.With(slog.String("component", "resource_catalog")),
		cache:  make(map[model.ResourceKind]*model.RoleResource),
	}
}

// Get возвращает запись вида ресурса, создавая её при отсутствии.
// Гонка create-create с другим экземпляром разрешается перечитыванием
// после ErrConflict.
func (c *ResourceCatalog) Get(ctx context.Context, kind model.ResourceKind) (*model.RoleResource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res, ok := c.cache[kind]; ok {
		return res, nil
	}

	res, err := c.repo.GetByKind(ctx, kind)
	if err == nil {
		c.cache[kind] = res
		return res, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}

	meta, ok := resourceMetaByKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: неизвестный вид ресурса %q", ErrValidation, kind)
	}

	desc := meta.description
	res = &model.RoleResource{
		ID:             uuid.New().String(),
		Kind:           kind,
		Name:           meta.name,
		Description:    &desc,
		ViewID:         meta.viewID,
		TitleKey:       meta.titleKey,
		DescriptionKey: meta.descriptionKey,
	}

	if err := c.repo.Create(ctx, res); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Запись создал кто-то другой — перечитываем.
			res, err = c.repo.GetByKind(ctx, kind)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
			}
			c.cache[kind] = res
			return res, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}

	c.logger.Info("Создана справочная запись вида ресурса",
		slog.String("kind", string(kind)),
	)
	c.cache[kind] = res
	return res, nil
}

// EnsureAll создаёт справочные записи всех видов ресурсов.
// Вызывается при старте приложения.
func (c *ResourceCatalog) EnsureAll(ctx context.Context) error {
	for _, kind := range model.AllResourceKinds {
		if _, err := c.Get(ctx, kind); err != nil {
			return fmt.Errorf("инициализация ресурса %s: %w", kind, err)
		}
	}
	return nil
}

// List возвращает все справочные записи видов ресурсов.
func (c *ResourceCatalog) List(ctx context.Context) ([]*model.RoleResource, error) {
	return c.repo.List(ctx)
}
