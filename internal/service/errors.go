// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrDirectoryUnavailable — каталог (Active Directory) недоступен.
	ErrDirectoryUnavailable = errors.New("каталог недоступен")
	// ErrSyncInProgress — импорт из каталога уже выполняется.
	ErrSyncInProgress = errors.New("импорт уже выполняется")
	// ErrNotImplemented — инкрементальный импорт не реализован.
	ErrNotImplemented = errors.New("инкрементальный импорт не реализован")
	// ErrResourceUnavailable — не удалось получить ресурс роли из каталога ресурсов.
	ErrResourceUnavailable = errors.New("ресурс роли недоступен")
)
