package model

import "time"

// DirectoryEndpoint — параметры подключения к каталогу (Active Directory).
// Хранится в таблице directory_endpoints. Реконсилятор подключается
// автоматически, только если в таблице ровно одна запись.
type DirectoryEndpoint struct {
	// ID — UUID записи
	ID string
	// Name — человекочитаемое имя endpoint'а
	Name string
	// Host — хост контроллера домена
	Host string
	// Port — порт LDAP (389) или LDAPS (636)
	Port int
	// Secure — использовать LDAPS
	Secure bool
	// BindDN — DN сервисной учётки для bind
	BindDN string
	// BindPassword — пароль сервисной учётки
	BindPassword string
	// BaseDN — базовый DN поиска
	BaseDN string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}
