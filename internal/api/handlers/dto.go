// dto.go — DTO и мапперы сущностей API.
package handlers

import (
	"time"

	"github.com/bigkaa/adroles/internal/domain/model"
)

// listResponse — обёртка для списков с пагинацией.
type listResponse[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

func newListResponse[T any](items []T, total, limit, offset int) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// personDTO — сотрудник в ответах API.
type personDTO struct {
	ID                 string     `json:"id"`
	CentralAccountName string     `json:"central_account_name"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Email              *string    `json:"email,omitempty"`
	Phone              *string    `json:"phone,omitempty"`
	Mobile             *string    `json:"mobile,omitempty"`
	Department         *string    `json:"department,omitempty"`
	Description        *string    `json:"description,omitempty"`
	EntryDate          *time.Time `json:"entry_date,omitempty"`
	ExitDate           *time.Time `json:"exit_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func mapPerson(p *model.Person) personDTO {
	return personDTO{
		ID:                 p.ID,
		CentralAccountName: p.CentralAccountName,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Email:              p.Email,
		Phone:              p.Phone,
		Mobile:             p.Mobile,
		Department:         p.Department,
		Description:        p.Description,
		EntryDate:          p.EntryDate,
		ExitDate:           p.ExitDate,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// directoryUserDTO — учётная запись каталога в ответах API.
type directoryUserDTO struct {
	ID                string    `json:"id"`
	PersonID          *string   `json:"person_id,omitempty"`
	LogonName         string    `json:"logon_name"`
	DistinguishedName string    `json:"distinguished_name"`
	Enabled           bool      `json:"enabled"`
	PasswordExpires   bool      `json:"password_expires"`
	AdminAccount      bool      `json:"admin_account"`
	ServiceAccount    bool      `json:"service_account"`
	RoleManaged       bool      `json:"role_managed"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func mapDirectoryUser(u *model.DirectoryUser) directoryUserDTO {
	return directoryUserDTO{
		ID:                u.ID,
		PersonID:          u.PersonID,
		LogonName:         u.LogonName,
		DistinguishedName: u.DistinguishedName,
		Enabled:           u.Enabled,
		PasswordExpires:   u.PasswordExpires,
		AdminAccount:      u.AdminAccount,
		ServiceAccount:    u.ServiceAccount,
		RoleManaged:       u.RoleManaged,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

// directoryGroupDTO — группа каталога в ответах API.
type directoryGroupDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description,omitempty"`
	AdminGroup        bool      `json:"admin_group"`
	Area              string    `json:"area"`
	Kind              string    `json:"kind"`
	DistinguishedName string    `json:"distinguished_name"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func mapDirectoryGroup(g *model.DirectoryGroup) directoryGroupDTO {
	return directoryGroupDTO{
		ID:                g.ID,
		Name:              g.Name,
		Description:       g.Description,
		AdminGroup:        g.AdminGroup,
		Area:              string(g.Area),
		Kind:              string(g.Kind),
		DistinguishedName: g.DistinguishedName,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

// roleDTO — роль в ответах API.
type roleDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	AdminRole   bool      `json:"admin_role"`
	OrgRole     bool      `json:"org_role"`
	ResourceID  string    `json:"resource_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func mapRole(role *model.Role) roleDTO {
	return roleDTO{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		AdminRole:   role.AdminRole,
		OrgRole:     role.OrgRole,
		ResourceID:  role.ResourceID,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

// roleResourceDTO — вид ресурса роли в ответах API.
type roleResourceDTO struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	ViewID         string  `json:"view_id"`
	TitleKey       string  `json:"title_key"`
	DescriptionKey string  `json:"description_key"`
}

func mapRoleResource(res *model.RoleResource) roleResourceDTO {
	return roleResourceDTO{
		ID:             res.ID,
		Kind:           string(res.Kind),
		Name:           res.Name,
		Description:    res.Description,
		ViewID:         res.ViewID,
		TitleKey:       res.TitleKey,
		DescriptionKey: res.DescriptionKey,
	}
}

// directoryEndpointDTO — endpoint каталога в ответах API.
// BindPassword наружу не отдаётся.
type directoryEndpointDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Secure    bool      `json:"secure"`
	BindDN    string    `json:"bind_dn"`
	BaseDN    string    `json:"base_dn"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func mapDirectoryEndpoint(ep *model.DirectoryEndpoint) directoryEndpointDTO {
	return directoryEndpointDTO{
		ID:        ep.ID,
		Name:      ep.Name,
		Host:      ep.Host,
		Port:      ep.Port,
		Secure:    ep.Secure,
		BindDN:    ep.BindDN,
		BaseDN:    ep.BaseDN,
		CreatedAt: ep.CreatedAt,
		UpdatedAt: ep.UpdatedAt,
	}
}

// importResultDTO — итог операции импорта.
type importResultDTO struct {
	Processed   int       `json:"processed"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	Skipped     int       `json:"skipped"`
	FirstError  string    `json:"first_error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

func mapImportResult(res *model.ImportResult) importResultDTO {
	return importResultDTO{
		Processed:   res.Processed,
		Created:     res.Created,
		Updated:     res.Updated,
		Skipped:     res.Skipped,
		FirstError:  res.FirstError,
		StartedAt:   res.StartedAt,
		CompletedAt: res.CompletedAt,
	}
}

// cascadeResultDTO — итог пакетного каскадного удаления.
type cascadeResultDTO struct {
	Deleted    int    `json:"deleted"`
	Failed     int    `json:"failed"`
	FirstError string `json:"first_error,omitempty"`
}

func mapCascadeResult(res *model.CascadeResult) cascadeResultDTO {
	return cascadeResultDTO{
		Deleted:    res.Deleted,
		Failed:     res.Failed,
		FirstError: res.FirstError,
	}
}
