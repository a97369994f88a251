package model

import "time"

// SyncState — состояние импорта из каталога (одна строка в БД).
// Хранится в таблице sync_state (id = 1, всегда одна запись).
type SyncState struct {
	// ID — всегда 1
	ID int
	// LastUserImportAt — время последнего импорта пользователей
	LastUserImportAt *time.Time
	// LastGroupImportAt — время последнего импорта групп
	LastGroupImportAt *time.Time
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// ImportResult — итог одной операции импорта из каталога.
type ImportResult struct {
	// Processed — записей получено из каталога
	Processed int
	// Created — записей создано локально
	Created int
	// Updated — записей обновлено
	Updated int
	// Skipped — записей пропущено из-за ошибок декодирования/сохранения
	Skipped int
	// FirstError — текст первой ошибки пропущенной записи (пусто, если ошибок не было)
	FirstError string
	// StartedAt — время начала импорта
	StartedAt time.Time
	// CompletedAt — время завершения импорта
	CompletedAt time.Time
}

// CascadeResult — итог пакетного каскадного удаления.
type CascadeResult struct {
	// Deleted — элементов удалено
	Deleted int
	// Failed — элементов не удалось удалить
	Failed int
	// FirstError — текст первой ошибки (пусто, если ошибок не было)
	FirstError string
}
