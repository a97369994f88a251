package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/adroles/internal/domain/model"
)

// DirectoryEndpointRepository — интерфейс CRUD для таблицы directory_endpoints.
type DirectoryEndpointRepository interface {
	// Create создаёт endpoint каталога.
	Create(ctx context.Context, ep *model.DirectoryEndpoint) error
	// GetByID возвращает endpoint по UUID.
	GetByID(ctx context.Context, id string) (*model.DirectoryEndpoint, error)
	// List возвращает все endpoint'ы каталога.
	List(ctx context.Context) ([]*model.DirectoryEndpoint, error)
	// Update обновляет endpoint.
	Update(ctx context.Context, ep *model.DirectoryEndpoint) error
	// Delete удаляет endpoint из БД.
	Delete(ctx context.Context, id string) error
	// Count возвращает количество endpoint'ов.
	Count(ctx context.Context) (int, error)
}

// directoryEndpointRepo — реализация DirectoryEndpointRepository.
type directoryEndpointRepo struct {
	db DBTX
}

// NewDirectoryEndpointRepository создаёт репозиторий endpoint'ов каталога.
func NewDirectoryEndpointRepository(db DBTX) DirectoryEndpointRepository {
	return &directoryEndpointRepo{db: db}
}

const directoryEndpointColumns = `id, name, host, port, secure, bind_dn,
	bind_password, base_dn, created_at, updated_at`

// scanDirectoryEndpoint сканирует строку результата в модель DirectoryEndpoint.
func scanDirectoryEndpoint(row pgx.Row) (*model.DirectoryEndpoint, error) {
	ep := &model.DirectoryEndpoint{}
	err := row.Scan(
		&ep.ID, &ep.Name, &ep.Host, &ep.Port, &ep.Secure,
		&ep.BindDN, &ep.BindPassword, &ep.BaseDN,
		&ep.CreatedAt, &ep.UpdatedAt,
	)
	return ep, err
}

func (r *directoryEndpointRepo) Create(ctx context.Context, ep *model.DirectoryEndpoint) error {
	query := `
		INSERT INTO directory_endpoints (id, name, host, port, secure,
			bind_dn, bind_password, base_dn)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		ep.ID, ep.Name, ep.Host, ep.Port, ep.Secure,
		ep.BindDN, ep.BindPassword, ep.BaseDN,
	).Scan(&ep.CreatedAt, &ep.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: endpoint %s уже существует", ErrConflict, ep.Name)
		}
		return fmt.Errorf("ошибка создания endpoint'а каталога: %w", err)
	}
	return nil
}

func (r *directoryEndpointRepo) GetByID(ctx context.Context, id string) (*model.DirectoryEndpoint, error) {
	query := fmt.Sprintf(`SELECT %s FROM directory_endpoints WHERE id = $1`, directoryEndpointColumns)
	ep, err := scanDirectoryEndpoint(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения endpoint'а каталога: %w", err)
	}
	return ep, nil
}

func (r *directoryEndpointRepo) List(ctx context.Context) ([]*model.DirectoryEndpoint, error) {
	query := fmt.Sprintf(`SELECT %s FROM directory_endpoints ORDER BY name`, directoryEndpointColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка endpoint'ов: %w", err)
	}
	defer rows.Close()

	var result []*model.DirectoryEndpoint
	for rows.Next() {
		ep, err := scanDirectoryEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования endpoint'а: %w", err)
		}
		result = append(result, ep)
	}
	return result, rows.Err()
}

func (r *directoryEndpointRepo) Update(ctx context.Context, ep *model.DirectoryEndpoint) error {
	query := `
		UPDATE directory_endpoints
		SET name = $2, host = $3, port = $4, secure = $5, bind_dn = $6,
			bind_password = $7, base_dn = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		ep.ID, ep.Name, ep.Host, ep.Port, ep.Secure,
		ep.BindDN, ep.BindPassword, ep.BaseDN,
	).Scan(&ep.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления endpoint'а каталога: %w", err)
	}
	return nil
}

func (r *directoryEndpointRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM directory_endpoints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления endpoint'а каталога: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *directoryEndpointRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM directory_endpoints`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта endpoint'ов: %w", err)
	}
	return count, nil
}
