package model

import "time"

// GroupArea — область действия группы каталога.
type GroupArea string

// Области действия групп.
const (
	GroupAreaLocal     GroupArea = "local"
	GroupAreaGlobal    GroupArea = "global"
	GroupAreaUniversal GroupArea = "universal"
)

// GroupKind — тип группы каталога.
type GroupKind string

// Типы групп.
const (
	GroupKindSecurity     GroupKind = "security"
	GroupKindDistribution GroupKind = "distribution"
)

// DirectoryGroup — группа в каталоге (Active Directory).
// Хранится в таблице directory_groups. Натуральный ключ — distinguished_name.
type DirectoryGroup struct {
	// ID — UUID записи
	ID string
	// Name — имя группы (cn)
	Name string
	// Description — описание, усечённое до лимита каталога (опционально)
	Description *string
	// AdminGroup — административная группа (имя содержит маркер)
	AdminGroup bool
	// Area — область действия (local, global, universal)
	Area GroupArea
	// Kind — тип группы (security, distribution)
	Kind GroupKind
	// DistinguishedName — полное DN в каталоге (натуральный ключ)
	DistinguishedName string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}
