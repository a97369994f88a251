package model

import "time"

// Role — прикладная роль: набор прав, сопоставленный группам каталога
// и назначаемый сотрудникам и учётным записям.
// Хранится в таблице roles. Всегда привязана ровно к одному RoleResource.
type Role struct {
	// ID — UUID записи
	ID string
	// Name — имя роли
	Name string
	// Description — описание (опционально)
	Description *string
	// AdminRole — административная роль
	AdminRole bool
	// OrgRole — роль-подразделение (создаётся импортом оргструктуры)
	OrgRole bool
	// ResourceID — UUID ресурса роли (NOT NULL)
	ResourceID string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}
