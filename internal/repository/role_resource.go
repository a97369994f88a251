package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/adroles/internal/domain/model"
)

// RoleResourceRepository — интерфейс для таблицы role_resources.
// На каждый вид ресурса существует не более одной записи
// (UNIQUE по kind; гонка create-create разрешается через ErrConflict).
type RoleResourceRepository interface {
	// Create создаёт запись вида ресурса.
	Create(ctx context.Context, res *model.RoleResource) error
	// GetByID возвращает ресурс по UUID.
	GetByID(ctx context.Context, id string) (*model.RoleResource, error)
	// GetByKind возвращает ресурс по виду.
	GetByKind(ctx context.Context, kind model.ResourceKind) (*model.RoleResource, error)
	// List возвращает все ресурсы.
	List(ctx context.Context) ([]*model.RoleResource, error)
}

// roleResourceRepo — реализация RoleResourceRepository.
type roleResourceRepo struct {
	db DBTX
}

// NewRoleResourceRepository создаёт репозиторий видов ресурсов ролей.
func NewRoleResourceRepository(db DBTX) RoleResourceRepository {
	return &roleResourceRepo{db: db}
}

const roleResourceColumns = `id, kind, name, description, view_id, title_key,
	description_key, created_at, updated_at`

// scanRoleResource сканирует строку результата в модель RoleResource.
func scanRoleResource(row pgx.Row) (*model.RoleResource, error) {
	res := &model.RoleResource{}
	err := row.Scan(
		&res.ID, &res.Kind, &res.Name, &res.Description, &res.ViewID,
		&res.TitleKey, &res.DescriptionKey, &res.CreatedAt, &res.UpdatedAt,
	)
	return res, err
}

func (r *roleResourceRepo) Create(ctx context.Context, res *model.RoleResource) error {
	query := `
		INSERT INTO role_resources (id, kind, name, description, view_id,
			title_key, description_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		res.ID, res.Kind, res.Name, res.Description, res.ViewID,
		res.TitleKey, res.DescriptionKey,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ресурс вида %s уже существует", ErrConflict, res.Kind)
		}
		return fmt.Errorf("ошибка создания ресурса роли: %w", err)
	}
	return nil
}

func (r *roleResourceRepo) GetByID(ctx context.Context, id string) (*model.RoleResource, error) {
	query := fmt.Sprintf(`SELECT %s FROM role_resources WHERE id = $1`, roleResourceColumns)
	res, err := scanRoleResource(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения ресурса роли: %w", err)
	}
	return res, nil
}

func (r *roleResourceRepo) GetByKind(ctx context.Context, kind model.ResourceKind) (*model.RoleResource, error) {
	query := fmt.Sprintf(`SELECT %s FROM role_resources WHERE kind = $1`, roleResourceColumns)
	res, err := scanRoleResource(r.db.QueryRow(ctx, query, string(kind)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения ресурса вида %s: %w", kind, err)
	}
	return res, nil
}

func (r *roleResourceRepo) List(ctx context.Context) ([]*model.RoleResource, error) {
	query := fmt.Sprintf(`SELECT %s FROM role_resources ORDER BY kind`, roleResourceColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка ресурсов: %w", err)
	}
	defer rows.Close()

	var result []*model.RoleResource
	for rows.Next() {
		res, err := scanRoleResource(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования ресурса: %w", err)
		}
		result = append(result, res)
	}
	return result, rows.Err()
}
