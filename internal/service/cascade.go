// cascade.go — сервис каскадного удаления сущностей.
//
// Таблицы связей ролей не имеют каскадов на уровне БД: перед удалением
// сущности сервис явно удаляет её связи. Обе операции выполняются в одной
// транзакции — либо сущность удалена вместе со связями, либо не тронуто
// ничего. Пакетные операции работают best-effort — ошибка одного элемента
// не останавливает остальные, но попадает в итоговый CascadeResult.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/adroles/internal/domain/model"
	"github.com/bigkaa/adroles/internal/repository"
)

// CascadeTxRunner выполняет операцию с репозиториями в одной транзакции.
// Реализуется repository.TxRunner.
type CascadeTxRunner interface {
	InCascadeTx(ctx context.Context, fn func(repository.CascadeRepos) error) error
}

// CascadeService — сервис каскадного удаления.
type CascadeService struct {
	tx     CascadeTxRunner
	logger *slog.Logger
}

// NewCascadeService создаёт сервис каскадного удаления.
func NewCascadeService(tx CascadeTxRunner, logger *slog.Logger) *CascadeService {
	return &CascadeService{
		tx:     tx,
		logger: logger.With(slog.String("component", "cascade")),
	}
}

// DeleteRoleComplete удаляет роль вместе со всеми её связями.
func (s *CascadeService) DeleteRoleComplete(ctx context.Context, roleID string) error {
	return s.tx.InCascadeTx(ctx, func(r repository.CascadeRepos) error {
		if err := r.Relations.RemoveAllForRole(ctx, roleID); err != nil {
			return fmt.Errorf("очистка связей роли: %w", err)
		}
		if err := r.Roles.Delete(ctx, roleID); err != nil {
			return mapRepoError(err)
		}
		return nil
	})
}

// DeletePersonComplete удаляет сотрудника вместе со связями ролей.
// Привязка учётных записей каталога обнуляется на уровне БД (SET NULL).
func (s *CascadeService) DeletePersonComplete(ctx context.Context, personID string) error {
	return s.tx.InCascadeTx(ctx, func(r repository.CascadeRepos) error {
		if err := r.Relations.RemoveAllForPerson(ctx, personID); err != nil {
			return fmt.Errorf("очистка связей сотрудника: %w", err)
		}
		if err := r.Persons.Delete(ctx, personID); err != nil {
			return mapRepoError(err)
		}
		return nil
	})
}

// DeleteUserComplete удаляет учётную запись каталога вместе со связями ролей.
func (s *CascadeService) DeleteUserComplete(ctx context.Context, userID string) error {
	return s.tx.InCascadeTx(ctx, func(r repository.CascadeRepos) error {
		if err := r.Relations.RemoveAllForUser(ctx, userID); err != nil {
			return fmt.Errorf("очистка связей учётной записи: %w", err)
		}
		if err := r.Users.Delete(ctx, userID); err != nil {
			return mapRepoError(err)
		}
		return nil
	})
}

// DeleteGroupComplete удаляет группу каталога вместе со связями ролей.
func (s *CascadeService) DeleteGroupComplete(ctx context.Context, groupID string) error {
	return s.tx.InCascadeTx(ctx, func(r repository.CascadeRepos) error {
		if err := r.Relations.RemoveAllForGroup(ctx, groupID); err != nil {
			return fmt.Errorf("очистка связей группы: %w", err)
		}
		if err := r.Groups.Delete(ctx, groupID); err != nil {
			return mapRepoError(err)
		}
		return nil
	})
}

// DeleteRolesComplete удаляет список ролей. Ошибка одного элемента
// не останавливает остальные.
func (s *CascadeService) DeleteRolesComplete(ctx context.Context, roleIDs []string) *model.CascadeResult {
	return s.deleteBatch(ctx, roleIDs, "роль", s.DeleteRoleComplete)
}

// DeletePersonsComplete удаляет список сотрудников.
func (s *CascadeService) DeletePersonsComplete(ctx context.Context, personIDs []string) *model.CascadeResult {
	return s.deleteBatch(ctx, personIDs, "сотрудник", s.DeletePersonComplete)
}

// DeleteUsersComplete удаляет список учётных записей каталога.
func (s *CascadeService) DeleteUsersComplete(ctx context.Context, userIDs []string) *model.CascadeResult {
	return s.deleteBatch(ctx, userIDs, "учётная запись", s.DeleteUserComplete)
}

// DeleteGroupsComplete удаляет список групп каталога.
func (s *CascadeService) DeleteGroupsComplete(ctx context.Context, groupIDs []string) *model.CascadeResult {
	return s.deleteBatch(ctx, groupIDs, "группа", s.DeleteGroupComplete)
}

func (s *CascadeService) deleteBatch(
	ctx context.Context,
	ids []string,
	kind string,
	del func(context.Context, string) error,
) *model.CascadeResult {
	result := &model.CascadeResult{}

	for _, id := range ids {
		if err := del(ctx, id); err != nil {
			result.Failed++
			if result.FirstError == "" {
				result.FirstError = err.Error()
			}
			s.logger.Warn("Ошибка каскадного удаления",
				slog.String("kind", kind),
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		result.Deleted++
	}

	return result
}

// mapRepoError переводит ошибки слоя репозиториев в сервисные.
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %s", ErrConflict, err.Error())
	default:
		return err
	}
}
