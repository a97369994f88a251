package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/adroles/internal/domain/model"
)

// PersonRepository — интерфейс CRUD для таблицы persons.
type PersonRepository interface {
	// Create создаёт нового сотрудника.
	Create(ctx context.Context, p *model.Person) error
	// GetByID возвращает сотрудника по UUID.
	GetByID(ctx context.Context, id string) (*model.Person, error)
	// GetByCentralAccountName возвращает сотрудника по центральному учётному имени.
	GetByCentralAccountName(ctx context.Context, name string) (*model.Person, error)
	// List возвращает список сотрудников с подстрочным поиском по имени/учётке.
	List(ctx context.Context, search *string, limit, offset int) ([]*model.Person, error)
	// Update обновляет сотрудника.
	Update(ctx context.Context, p *model.Person) error
	// Delete удаляет сотрудника из БД.
	Delete(ctx context.Context, id string) error
	// DeleteAll удаляет всех сотрудников (полная замена при импорте).
	DeleteAll(ctx context.Context) error
	// Count возвращает количество сотрудников.
	Count(ctx context.Context) (int, error)
	// Departments возвращает перечень различных непустых подразделений.
	Departments(ctx context.Context) ([]string, error)
}

// personRepo — реализация PersonRepository.
type personRepo struct {
	db DBTX
}

// NewPersonRepository создаёт репозиторий сотрудников.
func NewPersonRepository(db DBTX) PersonRepository {
	return &personRepo{db: db}
}

const personColumns = `id, central_account_name, first_name, last_name, email,
	phone, mobile, department, description, entry_date, exit_date, created_at, updated_at`

// scanPerson сканирует строку результата в модель Person.
func scanPerson(row pgx.Row) (*model.Person, error) {
	p := &model.Person{}
	err := row.Scan(
		&p.ID, &p.CentralAccountName, &p.FirstName, &p.LastName, &p.Email,
		&p.Phone, &p.Mobile, &p.Department, &p.Description,
		&p.EntryDate, &p.ExitDate, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *personRepo) Create(ctx context.Context, p *model.Person) error {
	query := `
		INSERT INTO persons (id, central_account_name, first_name, last_name, email,
			phone, mobile, department, description, entry_date, exit_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.CentralAccountName, p.FirstName, p.LastName, p.Email,
		p.Phone, p.Mobile, p.Department, p.Description, p.EntryDate, p.ExitDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: сотрудник с таким учётным именем уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания сотрудника: %w", err)
	}
	return nil
}

func (r *personRepo) GetByID(ctx context.Context, id string) (*model.Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE id = $1`, personColumns)
	p, err := scanPerson(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения сотрудника: %w", err)
	}
	return p, nil
}

func (r *personRepo) GetByCentralAccountName(ctx context.Context, name string) (*model.Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE central_account_name = $1`, personColumns)
	p, err := scanPerson(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения сотрудника по учётному имени: %w", err)
	}
	return p, nil
}

func (r *personRepo) List(ctx context.Context, search *string, limit, offset int) ([]*model.Person, error) {
	var conditions []string
	var args []any
	argNum := 1

	if search != nil && *search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(central_account_name ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			argNum, argNum, argNum))
		args = append(args, "%"+*search+"%")
		argNum++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM persons
		%s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, personColumns, where, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка сотрудников: %w", err)
	}
	defer rows.Close()

	var result []*model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования сотрудника: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *personRepo) Update(ctx context.Context, p *model.Person) error {
	query := `
		UPDATE persons
		SET central_account_name = $2, first_name = $3, last_name = $4, email = $5,
			phone = $6, mobile = $7, department = $8, description = $9,
			entry_date = $10, exit_date = $11, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.CentralAccountName, p.FirstName, p.LastName, p.Email,
		p.Phone, p.Mobile, p.Department, p.Description, p.EntryDate, p.ExitDate,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: учётное имя уже занято", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления сотрудника: %w", err)
	}
	return nil
}

func (r *personRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления сотрудника: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *personRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM persons`); err != nil {
		return fmt.Errorf("ошибка удаления всех сотрудников: %w", err)
	}
	return nil
}

func (r *personRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM persons`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта сотрудников: %w", err)
	}
	return count, nil
}

func (r *personRepo) Departments(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT department
		FROM persons
		WHERE department IS NOT NULL AND department <> ''
		ORDER BY department`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения подразделений: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("ошибка сканирования подразделения: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
