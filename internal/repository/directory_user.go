package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/adroles/internal/domain/model"
)

// DirectoryUserRepository — интерфейс CRUD для таблицы directory_users.
type DirectoryUserRepository interface {
	// Create создаёт учётную запись каталога.
	Create(ctx context.Context, u *model.DirectoryUser) error
	// GetByID возвращает учётную запись по UUID.
	GetByID(ctx context.Context, id string) (*model.DirectoryUser, error)
	// GetByDN возвращает учётную запись по distinguished name.
	GetByDN(ctx context.Context, dn string) (*model.DirectoryUser, error)
	// GetByLogonName возвращает учётную запись по учётному имени.
	GetByLogonName(ctx context.Context, logonName string) (*model.DirectoryUser, error)
	// ListByPersonID возвращает учётные записи сотрудника.
	ListByPersonID(ctx context.Context, personID string) ([]*model.DirectoryUser, error)
	// List возвращает список учётных записей с подстрочным поиском
	// по учётному имени и DN.
	List(ctx context.Context, search *string, limit, offset int) ([]*model.DirectoryUser, error)
	// Update обновляет учётную запись.
	Update(ctx context.Context, u *model.DirectoryUser) error
	// AssignPerson привязывает учётную запись к сотруднику (nil — отвязка).
	AssignPerson(ctx context.Context, id string, personID *string) error
	// Delete удаляет учётную запись из БД.
	Delete(ctx context.Context, id string) error
	// DeleteAll удаляет все учётные записи (полная замена при импорте).
	DeleteAll(ctx context.Context) error
	// Count возвращает количество учётных записей.
	Count(ctx context.Context) (int, error)
}

// directoryUserRepo — реализация DirectoryUserRepository.
type directoryUserRepo struct {
	db DBTX
}

// NewDirectoryUserRepository создаёт репозиторий учётных записей каталога.
func NewDirectoryUserRepository(db DBTX) DirectoryUserRepository {
	return &directoryUserRepo{db: db}
}

const directoryUserColumns = `id, person_id, logon_name, distinguished_name, enabled,
	password_expires, admin_account, service_account, role_managed, created_at, updated_at`

// scanDirectoryUser сканирует строку результата в модель DirectoryUser.
func scanDirectoryUser(row pgx.Row) (*model.DirectoryUser, error) {
	u := &model.DirectoryUser{}
	err := row.Scan(
		&u.ID, &u.PersonID, &u.LogonName, &u.DistinguishedName, &u.Enabled,
		&u.PasswordExpires, &u.AdminAccount, &u.ServiceAccount, &u.RoleManaged,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *directoryUserRepo) Create(ctx context.Context, u *model.DirectoryUser) error {
	query := `
		INSERT INTO directory_users (id, person_id, logon_name, distinguished_name,
			enabled, password_expires, admin_account, service_account, role_managed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		u.ID, u.PersonID, u.LogonName, u.DistinguishedName,
		u.Enabled, u.PasswordExpires, u.AdminAccount, u.ServiceAccount, u.RoleManaged,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: учётная запись с таким DN уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания учётной записи: %w", err)
	}
	return nil
}

func (r *directoryUserRepo) GetByID(ctx context.Context, id string) (*model.DirectoryUser, error) {
	query := fmt.Sprintf(`SELECT %s FROM directory_users WHERE id = $1`, directoryUserColumns)
	u, err := scanDirectoryUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения учётной записи: %w", err)
	}
	return u, nil
}

func (r *directoryUserRepo) GetByDN(ctx context.Context, dn string) (*model.DirectoryUser, error) {
	query := fmt.Sprintf(`SELECT %s FROM directory_users WHERE distinguished_name = $1`, directoryUserColumns)
	u, err := scanDirectoryUser(r.db.QueryRow(ctx, query, dn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения учётной записи по DN: %w", err)
	}
	return u, nil
}

func (r *directoryUserRepo) GetByLogonName(ctx context.Context, logonName string) (*model.DirectoryUser, error) {
	query := fmt.Sprintf(`SELECT %s FROM directory_users WHERE logon_name = $1 LIMIT 1`, directoryUserColumns)
	u, err := scanDirectoryUser(r.db.QueryRow(ctx, query, logonName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения учётной записи по учётному имени: %w", err)
	}
	return u, nil
}

func (r *directoryUserRepo) ListByPersonID(ctx context.Context, personID string) ([]*model.DirectoryUser, error) {
	query := fmt.Sprintf(`SELECT %s FROM directory_users WHERE person_id = $1 ORDER BY logon_name`, directoryUserColumns)

	rows, err := r.db.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения учётных записей сотрудника: %w", err)
	}
	defer rows.Close()

	var result []*model.DirectoryUser
	for rows.Next() {
		u, err := scanDirectoryUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования учётной записи: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *directoryUserRepo) List(ctx context.Context, search *string, limit, offset int) ([]*model.DirectoryUser, error) {
	where := ""
	var args []any
	argNum := 1

	if search != nil && *search != "" {
		where = fmt.Sprintf("WHERE logon_name ILIKE $%d OR distinguished_name ILIKE $%d", argNum, argNum)
		args = append(args, "%"+*search+"%")
		argNum++
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM directory_users
		%s
		ORDER BY logon_name
		LIMIT $%d OFFSET $%d`, directoryUserColumns, where, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка учётных записей: %w", err)
	}
	defer rows.Close()

	var result []*model.DirectoryUser
	for rows.Next() {
		u, err := scanDirectoryUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования учётной записи: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *directoryUserRepo) Update(ctx context.Context, u *model.DirectoryUser) error {
	query := `
		UPDATE directory_users
		SET person_id = $2, logon_name = $3, distinguished_name = $4, enabled = $5,
			password_expires = $6, admin_account = $7, service_account = $8,
			role_managed = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		u.ID, u.PersonID, u.LogonName, u.DistinguishedName, u.Enabled,
		u.PasswordExpires, u.AdminAccount, u.ServiceAccount, u.RoleManaged,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: DN уже занят", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления учётной записи: %w", err)
	}
	return nil
}

func (r *directoryUserRepo) AssignPerson(ctx context.Context, id string, personID *string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE directory_users SET person_id = $2, updated_at = now() WHERE id = $1`,
		id, personID)
	if err != nil {
		return fmt.Errorf("ошибка привязки учётной записи к сотруднику: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *directoryUserRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM directory_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления учётной записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *directoryUserRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM directory_users`); err != nil {
		return fmt.Errorf("ошибка удаления всех учётных записей: %w", err)
	}
	return nil
}

func (r *directoryUserRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM directory_users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта учётных записей: %w", err)
	}
	return count, nil
}
