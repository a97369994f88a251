package model

import "time"

// DirectoryUser — учётная запись в каталоге (Active Directory).
// Хранится в таблице directory_users. Натуральный ключ — distinguished_name.
type DirectoryUser struct {
	// ID — UUID записи
	ID string
	// PersonID — UUID владеющего Person (nil для неназначенных учёток,
	// сохраняется при реимпорте за счёт merge по distinguished_name)
	PersonID *string
	// LogonName — учётное имя (sAMAccountName)
	LogonName string
	// DistinguishedName — полное DN в каталоге (натуральный ключ)
	DistinguishedName string
	// Enabled — учётная запись включена (userAccountControl 512 или 66048)
	Enabled bool
	// PasswordExpires — срок действия пароля ограничен
	PasswordExpires bool
	// AdminAccount — административная учётная запись
	AdminAccount bool
	// ServiceAccount — сервисная учётная запись
	ServiceAccount bool
	// RoleManaged — членство в группах управляется через роли
	RoleManaged bool
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}
