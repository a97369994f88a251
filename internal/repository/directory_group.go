package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/adroles/internal/domain/model"
)

// DirectoryGroupRepository — интерфейс CRUD для таблицы directory_groups.
type DirectoryGroupRepository interface {
	// Create создаёт группу каталога.
	Create(ctx context.Context, g *model.DirectoryGroup) error
	// GetByID возвращает группу по UUID.
	GetByID(ctx context.Context, id string) (*model.DirectoryGroup, error)
	// GetByDN возвращает группу по distinguished name.
	GetByDN(ctx context.Context, dn string) (*model.DirectoryGroup, error)
	// List возвращает список групп с подстрочным поиском по имени.
	List(ctx context.Context, search *string, limit, offset int) ([]*model.DirectoryGroup, error)
	// ListAll возвращает все группы (для импорта ролей).
	ListAll(ctx context.Context) ([]*model.DirectoryGroup, error)
	// Update обновляет группу.
	Update(ctx context.Context, g *model.DirectoryGroup) error
	// Delete удаляет группу из БД.
	Delete(ctx context.Context, id string) error
	// Count возвращает количество групп.
	Count(ctx context.Context) (int, error)
}

// directoryGroupRepo — реализация DirectoryGroupRepository.
type directoryGroupRepo struct {
	db DBTX
}

// NewDirectoryGroupRepository создаёт репозиторий групп каталога.
func NewDirectoryGroupRepository(db DBTX) DirectoryGroupRepository {
	return &directoryGroupRepo{db: db}
}

const directoryGroupColumns = `id, name, description, admin_group, area, kind,
	distinguished_name, created_at, updated_at`

// scanDirectoryGroup сканирует строку результата в модель DirectoryGroup.
func scanDirectoryGroup(row pgx.Row) (*model.DirectoryGroup, error) {
	g := &model.DirectoryGroup{}
	err := row.Scan(
		&g.ID, &g.Name, &g.Description, &g.AdminGroup, &g.Area, &g.Kind,
		&g.DistinguishedName, &g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}

func (r *directoryGroupRepo) Create(ctx context.Context, g *model.DirectoryGroup) error {
	query := `
		INSERT INTO directory_groups (id, name, description, admin_group, area, kind,
			distinguished_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		g.ID, g.Name, g.Description, g.AdminGroup, g.Area, g.Kind,
		g.DistinguishedName,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: группа с таким DN уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания группы: %w", err)
	}
	return nil
}

func (r *directoryGroupRepo) GetByID(ctx context.Context, id string) (*model.DirectoryGroup, error) {
	query := fmt.Sprintf(`SELECT %s FROM directory_groups WHERE id = $1`, directoryGroupColumns)
	g, err := scanDirectoryGroup(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения группы: %w", err)
	}
	return g, nil
}

func (r *directoryGroupRepo) GetByDN(ctx context.Context, dn string) (*model.DirectoryGroup, error) {
	query := fmt.Sprintf(`SELECT %s FROM directory_groups WHERE distinguished_name = $1`, directoryGroupColumns)
	g, err := scanDirectoryGroup(r.db.QueryRow(ctx, query, dn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения группы по DN: %w", err)
	}
	return g, nil
}

func (r *directoryGroupRepo) List(ctx context.Context, search *string, limit, offset int) ([]*model.DirectoryGroup, error) {
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
		FROM directory_groups
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, directoryGroupColumns, where, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка групп: %w", err)
	}
	defer rows.Close()

	var result []*model.DirectoryGroup
	for rows.Next() {
		g, err := scanDirectoryGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования группы: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (r *directoryGroupRepo) ListAll(ctx context.Context) ([]*model.DirectoryGroup, error) {
	query := fmt.Sprintf(`SELECT %s FROM directory_groups ORDER BY name`, directoryGroupColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения всех групп: %w", err)
	}
	defer rows.Close()

	var result []*model.DirectoryGroup
	for rows.Next() {
		g, err := scanDirectoryGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования группы: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (r *directoryGroupRepo) Update(ctx context.Context, g *model.DirectoryGroup) error {
	query := `
		UPDATE directory_groups
		SET name = $2, description = $3, admin_group = $4, area = $5, kind = $6,
			distinguished_name = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		g.ID, g.Name, g.Description, g.AdminGroup, g.Area, g.Kind,
		g.DistinguishedName,
	).Scan(&g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: DN уже занят", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления группы: %w", err)
	}
	return nil
}

func (r *directoryGroupRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM directory_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления группы: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}


func (r *directoryGroupRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM directory_groups`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта групп: %w", err)
	}
	return count, nil
}
