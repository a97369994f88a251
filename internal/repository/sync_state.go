package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bigkaa/adroles/internal/domain/model"
)

// SyncStateRepository — интерфейс для таблицы sync_state.
// Таблица содержит ровно одну строку (id = 1), создаваемую миграцией.
type SyncStateRepository interface {
	// Get возвращает состояние импорта.
	Get(ctx context.Context) (*model.SyncState, error)
	// UpdateUserImportAt фиксирует время последнего импорта пользователей.
	UpdateUserImportAt(ctx context.Context, at time.Time) error
	// UpdateGroupImportAt фиксирует время последнего импорта групп.
	UpdateGroupImportAt(ctx context.Context, at time.Time) error
}

// syncStateRepo — реализация SyncStateRepository.
type syncStateRepo struct {
	db DBTX
}

// NewSyncStateRepository создаёт репозиторий состояния импорта.
func NewSyncStateRepository(db DBTX) SyncStateRepository {
	return &syncStateRepo{db: db}
}

func (r *syncStateRepo) Get(ctx context.Context) (*model.SyncState, error) {
	query := `
		SELECT id, last_user_import_at, last_group_import_at, created_at, updated_at
		FROM sync_state
		WHERE id = 1`

	state := &model.SyncState{}
	err := r.db.QueryRow(ctx, query).Scan(
		&state.ID, &state.LastUserImportAt, &state.LastGroupImportAt,
		&state.CreatedAt, &state.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения состояния импорта: %w", err)
	}
	return state, nil
}

func (r *syncStateRepo) UpdateUserImportAt(ctx context.Context, at time.Time) error {
	query := `
		UPDATE sync_state
		SET last_user_import_at = $1, updated_at = now()
		WHERE id = 1`

	if _, err := r.db.Exec(ctx, query, at); err != nil {
		return fmt.Errorf("ошибка обновления времени импорта пользователей: %w", err)
	}
	return nil
}

func (r *syncStateRepo) UpdateGroupImportAt(ctx context.Context, at time.Time) error {
	query := `
		UPDATE sync_state
		SET last_group_import_at = $1, updated_at = now()
		WHERE id = 1`

	if _, err := r.db.Exec(ctx, query, at); err != nil {
		return fmt.Errorf("ошибка обновления времени импорта групп: %w", err)
	}
	return nil
}
