package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/adroles/internal/domain/model"
)

// RoleRepository — интерфейс CRUD для таблицы roles.
type RoleRepository interface {
	// Create создаёт роль.
	Create(ctx context.Context, role *model.Role) error
	// GetByID возвращает роль по UUID.
	GetByID(ctx context.Context, id string) (*model.Role, error)
	// GetByNameFold возвращает роль по имени без учёта регистра.
	GetByNameFold(ctx context.Context, name string) (*model.Role, error)
	// List возвращает список ролей с подстрочным поиском по имени.
	List(ctx context.Context, search *string, limit, offset int) ([]*model.Role, error)
	// ListOrg возвращает все роли-подразделения.
	ListOrg(ctx context.Context) ([]*model.Role, error)
	// Update обновляет роль.
	Update(ctx context.Context, role *model.Role) error
	// Delete удаляет роль из БД.
	Delete(ctx context.Context, id string) error
	// Count возвращает количество ролей.
	Count(ctx context.Context) (int, error)
}

// roleRepo — реализация RoleRepository.
type roleRepo struct {
	db DBTX
}

// NewRoleRepository создаёт репозиторий ролей.
func NewRoleRepository(db DBTX) RoleRepository {
	return &roleRepo{db: db}
}

const roleColumns = `id, name, description, admin_role, org_role, resource_id,
	created_at, updated_at`

// scanRole сканирует строку результата в модель Role.
func scanRole(row pgx.Row) (*model.Role, error) {
	role := &model.Role{}
	err := row.Scan(
		&role.ID, &role.Name, &role.Description, &role.AdminRole, &role.OrgRole,
		&role.ResourceID, &role.CreatedAt, &role.UpdatedAt,
	)
	return role, err
}

func (r *roleRepo) Create(ctx context.Context, role *model.Role) error {
	query := `
		INSERT INTO roles (id, name, description, admin_role, org_role, resource_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		role.ID, role.Name, role.Description, role.AdminRole, role.OrgRole,
		role.ResourceID,
	).Scan(&role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания роли: %w", err)
	}
	return nil
}

func (r *roleRepo) GetByID(ctx context.Context, id string) (*model.Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM roles WHERE id = $1`, roleColumns)
	role, err := scanRole(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения роли: %w", err)
	}
	return role, nil
}

func (r *roleRepo) GetByNameFold(ctx context.Context, name string) (*model.Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM roles WHERE LOWER(name) = LOWER($1) LIMIT 1`, roleColumns)
	role, err := scanRole(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения роли по имени: %w", err)
	}
	return role, nil
}

func (r *roleRepo) List(ctx context.Context, search *string, limit, offset int) ([]*model.Role, error) {
	var conditions []string
	var args []any
	argNum := 1

	if search != nil && *search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argNum))
		args = append(args, "%"+*search+"%")
		argNum++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM roles
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, roleColumns, where, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка ролей: %w", err)
	}
	defer rows.Close()

	var result []*model.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования роли: %w", err)
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

func (r *roleRepo) ListOrg(ctx context.Context) ([]*model.Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM roles WHERE org_role ORDER BY name`, roleColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ролей-подразделений: %w", err)
	}
	defer rows.Close()

	var result []*model.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования роли: %w", err)
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

func (r *roleRepo) Update(ctx context.Context, role *model.Role) error {
	query := `
		UPDATE roles
		SET name = $2, description = $3, admin_role = $4, org_role = $5,
			resource_id = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		role.ID, role.Name, role.Description, role.AdminRole, role.OrgRole,
		role.ResourceID,
	).Scan(&role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления роли: %w", err)
	}
	return nil
}

func (r *roleRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления роли: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *roleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта ролей: %w", err)
	}
	return count, nil
}
