package model

import "time"

// Person — сотрудник компании.
// Хранится в таблице persons. Натуральный ключ — central_account_name
// (первое увиденное учётное имя), по нему выполняется merge при реимпорте.
type Person struct {
	// ID — UUID записи
	ID string
	// CentralAccountName — центральное учётное имя (натуральный ключ)
	CentralAccountName string
	// FirstName — имя
	FirstName string
	// LastName — фамилия (никогда не пустая: fallback на displayName/logonName)
	LastName string
	// Email — электронная почта (опционально)
	Email *string
	// Phone — рабочий телефон (опционально)
	Phone *string
	// Mobile — мобильный телефон (опционально)
	Mobile *string
	// Department — подразделение (опционально)
	Department *string
	// Description — описание из каталога (опционально)
	Description *string
	// EntryDate — дата приёма (опционально)
	EntryDate *time.Time
	// ExitDate — дата увольнения (опционально)
	ExitDate *time.Time
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}
