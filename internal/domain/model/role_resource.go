package model

import "time"

// ResourceKind — вид ресурса, который представляет роль.
type ResourceKind string

// Виды ресурсов ролей. На каждый вид существует не более одной записи
// role_resources (обеспечивается каталогом ресурсов).
const (
	ResourceOrg       ResourceKind = "org"
	ResourceProject   ResourceKind = "project"
	ResourceFileShare ResourceKind = "fileshare"
	ResourceMailList  ResourceKind = "maillist"
	ResourceEmail     ResourceKind = "email"
	ResourceDefault   ResourceKind = "default"
)

// AllResourceKinds — полный перечень видов ресурсов.
var AllResourceKinds = []ResourceKind{
	ResourceOrg, ResourceProject, ResourceFileShare,
	ResourceMailList, ResourceEmail, ResourceDefault,
}

// RoleResource — справочная запись вида ресурса роли.
// Хранится в таблице role_resources, по одной записи на вид.
type RoleResource struct {
	// ID — UUID записи
	ID string
	// Kind — вид ресурса (дискриминатор, уникальный)
	Kind ResourceKind
	// Name — отображаемое имя
	Name string
	// Description — описание (опционально)
	Description *string
	// ViewID — идентификатор представления в UI
	ViewID string
	// TitleKey — ключ перевода заголовка
	TitleKey string
	// DescriptionKey — ключ перевода описания
	DescriptionKey string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// IsOrg сообщает, является ли ресурс подразделением.
func (r *RoleResource) IsOrg() bool { return r.Kind == ResourceOrg }

// IsProject сообщает, является ли ресурс проектом.
func (r *RoleResource) IsProject() bool { return r.Kind == ResourceProject }

// IsFileShare сообщает, является ли ресурс файловым ресурсом.
func (r *RoleResource) IsFileShare() bool { return r.Kind == ResourceFileShare }

// IsDefault сообщает, является ли ресурс видом по умолчанию.
func (r *RoleResource) IsDefault() bool { return r.Kind == ResourceDefault }
