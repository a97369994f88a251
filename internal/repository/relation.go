package repository

import (
	"context"
	"fmt"
)

// RelationRepository — интерфейс для таблиц связей ролей:
// role_persons, role_directory_users, role_directory_groups.
// Каскадных удалений на уровне БД нет, очистку связей выполняет
// сервис каскадного удаления.
type RelationRepository interface {
	// LinkPerson связывает роль и сотрудника. Повторная связь — не ошибка.
	LinkPerson(ctx context.Context, roleID, personID string) error
	// UnlinkPerson удаляет связь роли и сотрудника.
	UnlinkPerson(ctx context.Context, roleID, personID string) error
	// LinkUser связывает роль и учётную запись каталога.
	LinkUser(ctx context.Context, roleID, userID string) error
	// UnlinkUser удаляет связь роли и учётной записи.
	UnlinkUser(ctx context.Context, roleID, userID string) error
	// LinkGroup связывает роль и группу каталога.
	LinkGroup(ctx context.Context, roleID, groupID string) error
	// UnlinkGroup удаляет связь роли и группы.
	UnlinkGroup(ctx context.Context, roleID, groupID string) error

	// PersonIDsForRole возвращает UUID сотрудников роли.
	PersonIDsForRole(ctx context.Context, roleID string) ([]string, error)
	// UserIDsForRole возвращает UUID учётных записей роли.
	UserIDsForRole(ctx context.Context, roleID string) ([]string, error)
	// GroupIDsForRole возвращает UUID групп роли.
	GroupIDsForRole(ctx context.Context, roleID string) ([]string, error)
	// RoleIDsForPerson возвращает UUID ролей сотрудника.
	RoleIDsForPerson(ctx context.Context, personID string) ([]string, error)
	// RoleIDsForUser возвращает UUID ролей учётной записи.
	RoleIDsForUser(ctx context.Context, userID string) ([]string, error)
	// RoleIDsForGroup возвращает UUID ролей группы.
	RoleIDsForGroup(ctx context.Context, groupID string) ([]string, error)

	// RemoveAllForRole удаляет все связи роли во всех трёх таблицах.
	RemoveAllForRole(ctx context.Context, roleID string) error
	// RemoveAllForPerson удаляет все связи сотрудника.
	RemoveAllForPerson(ctx context.Context, personID string) error
	// RemoveAllForUser удаляет все связи учётной записи.
	RemoveAllForUser(ctx context.Context, userID string) error
	// RemoveAllForGroup удаляет все связи группы.
	RemoveAllForGroup(ctx context.Context, groupID string) error

	// RemoveAllPersonLinks очищает таблицу role_persons целиком.
	RemoveAllPersonLinks(ctx context.Context) error
	// RemoveAllUserLinks очищает таблицу role_directory_users целиком.
	RemoveAllUserLinks(ctx context.Context) error
}

// relationRepo — реализация RelationRepository.
type relationRepo struct {
	db DBTX
}

// NewRelationRepository создаёт репозиторий связей ролей.
func NewRelationRepository(db DBTX) RelationRepository {
	return &relationRepo{db: db}
}

func (r *relationRepo) link(ctx context.Context, table, column, roleID, otherID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (role_id, %s)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, table, column)

	if _, err := r.db.Exec(ctx, query, roleID, otherID); err != nil {
		return fmt.Errorf("ошибка создания связи %s: %w", table, err)
	}
	return nil
}

func (r *relationRepo) unlink(ctx context.Context, table, column, roleID, otherID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE role_id = $1 AND %s = $2`, table, column)

	if _, err := r.db.Exec(ctx, query, roleID, otherID); err != nil {
		return fmt.Errorf("ошибка удаления связи %s: %w", table, err)
	}
	return nil
}

func (r *relationRepo) ids(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения связей: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования связи: %w", err)
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

func (r *relationRepo) LinkPerson(ctx context.Context, roleID, personID string) error {
	return r.link(ctx, "role_persons", "person_id", roleID, personID)
}

func (r *relationRepo) UnlinkPerson(ctx context.Context, roleID, personID string) error {
	return r.unlink(ctx, "role_persons", "person_id", roleID, personID)
}

func (r *relationRepo) LinkUser(ctx context.Context, roleID, userID string) error {
	return r.link(ctx, "role_directory_users", "directory_user_id", roleID, userID)
}

func (r *relationRepo) UnlinkUser(ctx context.Context, roleID, userID string) error {
	return r.unlink(ctx, "role_directory_users", "directory_user_id", roleID, userID)
}

func (r *relationRepo) LinkGroup(ctx context.Context, roleID, groupID string) error {
	return r.link(ctx, "role_directory_groups", "directory_group_id", roleID, groupID)
}

func (r *relationRepo) UnlinkGroup(ctx context.Context, roleID, groupID string) error {
	return r.unlink(ctx, "role_directory_groups", "directory_group_id", roleID, groupID)
}

func (r *relationRepo) PersonIDsForRole(ctx context.Context, roleID string) ([]string, error) {
	return r.ids(ctx, `SELECT person_id FROM role_persons WHERE role_id = $1`, roleID)
}

func (r *relationRepo) UserIDsForRole(ctx context.Context, roleID string) ([]string, error) {
	return r.ids(ctx, `SELECT directory_user_id FROM role_directory_users WHERE role_id = $1`, roleID)
}

func (r *relationRepo) GroupIDsForRole(ctx context.Context, roleID string) ([]string, error) {
	return r.ids(ctx, `SELECT directory_group_id FROM role_directory_groups WHERE role_id = $1`, roleID)
}

func (r *relationRepo) RoleIDsForPerson(ctx context.Context, personID string) ([]string, error) {
	return r.ids(ctx, `SELECT role_id FROM role_persons WHERE person_id = $1`, personID)
}

func (r *relationRepo) RoleIDsForUser(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, `SELECT role_id FROM role_directory_users WHERE directory_user_id = $1`, userID)
}

func (r *relationRepo) RoleIDsForGroup(ctx context.Context, groupID string) ([]string, error) {
	return r.ids(ctx, `SELECT role_id FROM role_directory_groups WHERE directory_group_id = $1`, groupID)
}

func (r *relationRepo) RemoveAllForRole(ctx context.Context, roleID string) error {
	for _, table := range []string{"role_persons", "role_directory_users", "role_directory_groups"} {
		query := fmt.Sprintf(`DELETE FROM %s WHERE role_id = $1`, table)
		if _, err := r.db.Exec(ctx, query, roleID); err != nil {
			return fmt.Errorf("ошибка очистки связей %s: %w", table, err)
		}
	}
	return nil
}

func (r *relationRepo) RemoveAllForPerson(ctx context.Context, personID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM role_persons WHERE person_id = $1`, personID); err != nil {
		return fmt.Errorf("ошибка очистки связей сотрудника: %w", err)
	}
	return nil
}

func (r *relationRepo) RemoveAllForUser(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM role_directory_users WHERE directory_user_id = $1`, userID); err != nil {
		return fmt.Errorf("ошибка очистки связей учётной записи: %w", err)
	}
	return nil
}

func (r *relationRepo) RemoveAllForGroup(ctx context.Context, groupID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM role_directory_groups WHERE directory_group_id = $1`, groupID); err != nil {
		return fmt.Errorf("ошибка очистки связей группы: %w", err)
	}
	return nil
}

func (r *relationRepo) RemoveAllPersonLinks(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM role_persons`); err != nil {
		return fmt.Errorf("ошибка очистки role_persons: %w", err)
	}
	return nil
}

func (r *relationRepo) RemoveAllUserLinks(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM role_directory_users`); err != nil {
		return fmt.Errorf("ошибка очистки role_directory_users: %w", err)
	}
	return nil
}

