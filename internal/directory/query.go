// Пакет directory — клиент каталога Active Directory поверх LDAP.
// Отвечает за подключение к endpoint'у, выполнение поисковых запросов
// с лимитами размера/времени и декодирование specific-для-AD атрибутов
// (userAccountControl, groupType).
package directory

import (
	"fmt"
	"strconv"
)

// ObjectType — тип объектов каталога в запросе.
type ObjectType string

// Типы объектов каталога.
const (
	ObjectUser  ObjectType = "user"
	ObjectGroup ObjectType = "group"
)

// Имена атрибутов Active Directory.
const (
	AttrDisplayName        = "displayName"
	AttrDescription        = "description"
	AttrLogonName          = "sAMAccountName"
	AttrDistinguishedName  = "distinguishedName"
	AttrFirstName          = "givenName"
	AttrLastName           = "sn"
	AttrDepartment         = "department"
	AttrMail               = "mail"
	AttrPhone              = "telephoneNumber"
	AttrMobile             = "mobile"
	AttrAccountControl     = "userAccountControl"
	AttrGroupType          = "groupType"
	AttrCommonName         = "cn"
)

// UserAttributes — атрибуты, запрашиваемые при импорте пользователей.
var UserAttributes = []string{
	AttrDisplayName, AttrDescription, AttrLogonName, AttrDistinguishedName,
	AttrFirstName, AttrLastName, AttrDepartment, AttrMail,
	AttrPhone, AttrMobile, AttrAccountControl,
}

// GroupAttributes — атрибуты, запрашиваемые при импорте групп.
var GroupAttributes = []string{
	AttrGroupType, AttrDescription, AttrCommonName, AttrDistinguishedName,
}

// EnabledUsersFilter возвращает LDAP-фильтр импорта пользователей:
// только включённые учётные записи (userAccountControl 512 или 66048).
// Отключённые учётки отсекаются самим фильтром.
func EnabledUsersFilter() string {
	return fmt.Sprintf("(&(objectClass=user)(|(%s=%d)(%s=%d)))",
		AttrAccountControl, AccountEnabled,
		AttrAccountControl, AccountEnabledNoExpire,
	)
}

// GroupsFilter возвращает LDAP-фильтр импорта групп (все группы, без отбора).
func GroupsFilter() string {
	return "(objectClass=group)"
}

// Query — поисковый запрос к каталогу.
type Query struct {
	// Object — тип запрашиваемых объектов
	Object ObjectType
	// Filter — LDAP-фильтр
	Filter string
	// Attributes — запрашиваемые атрибуты
	Attributes []string
}

// Entry — одна запись результата поиска: отображение атрибут → значение.
type Entry struct {
	// DN — distinguishedName записи
	DN string
	// Attributes — значения атрибутов (первое значение каждого атрибута)
	Attributes map[string]string
}

// Value возвращает значение атрибута или пустую строку, если атрибут отсутствует.
func (e Entry) Value(name string) string {
	return e.Attributes[name]
}

// Int возвращает целочисленное значение атрибута.
// Отсутствующий или нечисловой атрибут — ошибка декодирования записи.
func (e Entry) Int(name string) (int64, error) {
	raw, ok := e.Attributes[name]
	if !ok || raw == "" {
		return 0, fmt.Errorf("атрибут %s отсутствует в записи %s", name, e.DN)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("атрибут %s записи %s не является числом: %q", name, e.DN, raw)
	}
	return v, nil
}
