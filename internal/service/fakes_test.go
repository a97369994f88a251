// fakes_test.go — in-memory реализации репозиториев и клиента каталога
// для unit-тестов сервисного слоя.
package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bigkaa/adroles/internal/directory"
	"github.com/bigkaa/adroles/internal/domain/model"
	"github.com/bigkaa/adroles/internal/repository"
)

// errStoreFailed имитирует отказ хранилища.
var errStoreFailed = errors.New("хранилище недоступно")

// --- fakePersonRepo ---

type fakePersonRepo struct {
	byID map[string]*model.Person
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{byID: make(map[string]*model.Person)}
}

func (f *fakePersonRepo) Create(_ context.Context, p *model.Person) error {
	for _, existing := range f.byID {
		if existing.CentralAccountName == p.CentralAccountName {
			return repository.ErrConflict
		}
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePersonRepo) GetByID(_ context.Context, id string) (*model.Person, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePersonRepo) GetByCentralAccountName(_ context.Context, name string) (*model.Person, error) {
	for _, p := range f.byID {
		if p.CentralAccountName == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePersonRepo) List(_ context.Context, search *string, limit, offset int) ([]*model.Person, error) {
	var result []*model.Person
	for _, p := range f.byID {
		if search != nil && *search != "" &&
			!strings.Contains(strings.ToLower(p.CentralAccountName), strings.ToLower(*search)) &&
			!strings.Contains(strings.ToLower(p.LastName), strings.ToLower(*search)) {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CentralAccountName < result[j].CentralAccountName })
	return paginate(result, limit, offset), nil
}

func (f *fakePersonRepo) Update(_ context.Context, p *model.Person) error {
	if _, ok := f.byID[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePersonRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakePersonRepo) DeleteAll(_ context.Context) error {
	f.byID = make(map[string]*model.Person)
	return nil
}

func (f *fakePersonRepo) Count(_ context.Context) (int, error) { return len(f.byID), nil }

func (f *fakePersonRepo) Departments(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, p := range f.byID {
		if p.Department != nil && *p.Department != "" {
			seen[*p.Department] = struct{}{}
		}
	}
	var result []string
	for d := range seen {
		result = append(result, d)
	}
	sort.Strings(result)
	return result, nil
}

// --- fakeUserRepo ---

type fakeUserRepo struct {
	byID map[string]*model.DirectoryUser
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*model.DirectoryUser)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.DirectoryUser) error {
	for _, existing := range f.byID {
		if existing.DistinguishedName == u.DistinguishedName {
			return repository.ErrConflict
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.DirectoryUser, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByDN(_ context.Context, dn string) (*model.DirectoryUser, error) {
	for _, u := range f.byID {
		if u.DistinguishedName == dn {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByLogonName(_ context.Context, logonName string) (*model.DirectoryUser, error) {
	for _, u := range f.byID {
		if u.LogonName == logonName {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) ListByPersonID(_ context.Context, personID string) ([]*model.DirectoryUser, error) {
	var result []*model.DirectoryUser
	for _, u := range f.byID {
		if u.PersonID != nil && *u.PersonID == personID {
			cp := *u
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) List(_ context.Context, search *string, limit, offset int) ([]*model.DirectoryUser, error) {
	var result []*model.DirectoryUser
	for _, u := range f.byID {
		if search != nil && *search != "" &&
			!strings.Contains(strings.ToLower(u.LogonName), strings.ToLower(*search)) {
			continue
		}
		cp := *u
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LogonName < result[j].LogonName })
	return paginate(result, limit, offset), nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.DirectoryUser) error {
	if _, ok := f.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) AssignPerson(_ context.Context, id string, personID *string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PersonID = personID
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUserRepo) DeleteAll(_ context.Context) error {
	f.byID = make(map[string]*model.DirectoryUser)
	return nil
}

func (f *fakeUserRepo) Count(_ context.Context) (int, error) { return len(f.byID), nil }

// --- fakeGroupRepo ---

type fakeGroupRepo struct {
	byID map[string]*model.DirectoryGroup
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{byID: make(map[string]*model.DirectoryGroup)}
}

func (f *fakeGroupRepo) Create(_ context.Context, g *model.DirectoryGroup) error {
	for _, existing := range f.byID {
		if existing.DistinguishedName == g.DistinguishedName {
			return repository.ErrConflict
		}
	}
	cp := *g
	f.byID[g.ID] = &cp
	return nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, id string) (*model.DirectoryGroup, error) {
	g, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGroupRepo) GetByDN(_ context.Context, dn string) (*model.DirectoryGroup, error) {
	for _, g := range f.byID {
		if g.DistinguishedName == dn {
			cp := *g
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGroupRepo) List(_ context.Context, search *string, limit, offset int) ([]*model.DirectoryGroup, error) {
	all, _ := f.ListAll(context.Background())
	var result []*model.DirectoryGroup
	for _, g := range all {
		if search != nil && *search != "" &&
			!strings.Contains(strings.ToLower(g.Name), strings.ToLower(*search)) {
			continue
		}
		result = append(result, g)
	}
	return paginate(result, limit, offset), nil
}

func (f *fakeGroupRepo) ListAll(_ context.Context) ([]*model.DirectoryGroup, error) {
	var result []*model.DirectoryGroup
	for _, g := range f.byID {
		cp := *g
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (f *fakeGroupRepo) Update(_ context.Context, g *model.DirectoryGroup) error {
	if _, ok := f.byID[g.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *g
	f.byID[g.ID] = &cp
	return nil
}

func (f *fakeGroupRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}


func (f *fakeGroupRepo) Count(_ context.Context) (int, error) { return len(f.byID), nil }

// --- fakeRoleRepo ---

type fakeRoleRepo struct {
	byID map[string]*model.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{byID: make(map[string]*model.Role)}
}

func (f *fakeRoleRepo) Create(_ context.Context, role *model.Role) error {
	cp := *role
	f.byID[role.ID] = &cp
	return nil
}

func (f *fakeRoleRepo) GetByID(_ context.Context, id string) (*model.Role, error) {
	role, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (f *fakeRoleRepo) GetByNameFold(_ context.Context, name string) (*model.Role, error) {
	for _, role := range f.byID {
		if strings.EqualFold(role.Name, name) {
			cp := *role
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoleRepo) List(_ context.Context, search *string, limit, offset int) ([]*model.Role, error) {
	var result []*model.Role
	for _, role := range f.byID {
		if search != nil && *search != "" &&
			!strings.Contains(strings.ToLower(role.Name), strings.ToLower(*search)) {
			continue
		}
		cp := *role
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return paginate(result, limit, offset), nil
}

func (f *fakeRoleRepo) ListOrg(_ context.Context) ([]*model.Role, error) {
	var result []*model.Role
	for _, role := range f.byID {
		if role.OrgRole {
			cp := *role
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (f *fakeRoleRepo) Update(_ context.Context, role *model.Role) error {
	if _, ok := f.byID[role.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *role
	f.byID[role.ID] = &cp
	return nil
}

func (f *fakeRoleRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRoleRepo) Count(_ context.Context) (int, error) { return len(f.byID), nil }

// --- fakeResourceRepo ---

type fakeResourceRepo struct {
	byKind     map[model.ResourceKind]*model.RoleResource
	failCreate bool
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{byKind: make(map[model.ResourceKind]*model.RoleResource)}
}

func (f *fakeResourceRepo) Create(_ context.Context, res *model.RoleResource) error {
	if f.failCreate {
		return errStoreFailed
	}
	if _, ok := f.byKind[res.Kind]; ok {
		return repository.ErrConflict
	}
	cp := *res
	f.byKind[res.Kind] = &cp
	return nil
}

func (f *fakeResourceRepo) GetByID(_ context.Context, id string) (*model.RoleResource, error) {
	for _, res := range f.byKind {
		if res.ID == id {
			cp := *res
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeResourceRepo) GetByKind(_ context.Context, kind model.ResourceKind) (*model.RoleResource, error) {
	res, ok := f.byKind[kind]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeResourceRepo) List(_ context.Context) ([]*model.RoleResource, error) {
	var result []*model.RoleResource
	for _, res := range f.byKind {
		cp := *res
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Kind < result[j].Kind })
	return result, nil
}

// --- fakeRelationRepo ---

type pair struct{ roleID, otherID string }

type fakeRelationRepo struct {
	persons map[pair]struct{}
	users   map[pair]struct{}
	groups  map[pair]struct{}
}

func newFakeRelationRepo() *fakeRelationRepo {
	return &fakeRelationRepo{
		persons: make(map[pair]struct{}),
		users:   make(map[pair]struct{}),
		groups:  make(map[pair]struct{}),
	}
}

func (f *fakeRelationRepo) LinkPerson(_ context.Context, roleID, personID string) error {
	f.persons[pair{roleID, personID}] = struct{}{}
	return nil
}

func (f *fakeRelationRepo) UnlinkPerson(_ context.Context, roleID, personID string) error {
	delete(f.persons, pair{roleID, personID})
	return nil
}

func (f *fakeRelationRepo) LinkUser(_ context.Context, roleID, userID string) error {
	f.users[pair{roleID, userID}] = struct{}{}
	return nil
}

func (f *fakeRelationRepo) UnlinkUser(_ context.Context, roleID, userID string) error {
	delete(f.users, pair{roleID, userID})
	return nil
}

func (f *fakeRelationRepo) LinkGroup(_ context.Context, roleID, groupID string) error {
	f.groups[pair{roleID, groupID}] = struct{}{}
	return nil
}

func (f *fakeRelationRepo) UnlinkGroup(_ context.Context, roleID, groupID string) error {
	delete(f.groups, pair{roleID, groupID})
	return nil
}

func idsOf(m map[pair]struct{}, byRole bool, key string) []string {
	var result []string
	for p := range m {
		if byRole && p.roleID == key {
			result = append(result, p.otherID)
		}
		if !byRole && p.otherID == key {
			result = append(result, p.roleID)
		}
	}
	sort.Strings(result)
	return result
}

func (f *fakeRelationRepo) PersonIDsForRole(_ context.Context, roleID string) ([]string, error) {
	return idsOf(f.persons, true, roleID), nil
}

func (f *fakeRelationRepo) UserIDsForRole(_ context.Context, roleID string) ([]string, error) {
	return idsOf(f.users, true, roleID), nil
}

func (f *fakeRelationRepo) GroupIDsForRole(_ context.Context, roleID string) ([]string, error) {
	return idsOf(f.groups, true, roleID), nil
}

func (f *fakeRelationRepo) RoleIDsForPerson(_ context.Context, personID string) ([]string, error) {
	return idsOf(f.persons, false, personID), nil
}

func (f *fakeRelationRepo) RoleIDsForUser(_ context.Context, userID string) ([]string, error) {
	return idsOf(f.users, false, userID), nil
}

func (f *fakeRelationRepo) RoleIDsForGroup(_ context.Context, groupID string) ([]string, error) {
	return idsOf(f.groups, false, groupID), nil
}

func removeBy(m map[pair]struct{}, match func(pair) bool) {
	for p := range m {
		if match(p) {
			delete(m, p)
		}
	}
}

func (f *fakeRelationRepo) RemoveAllForRole(_ context.Context, roleID string) error {
	removeBy(f.persons, func(p pair) bool { return p.roleID == roleID })
	removeBy(f.users, func(p pair) bool { return p.roleID == roleID })
	removeBy(f.groups, func(p pair) bool { return p.roleID == roleID })
	return nil
}

func (f *fakeRelationRepo) RemoveAllForPerson(_ context.Context, personID string) error {
	removeBy(f.persons, func(p pair) bool { return p.otherID == personID })
	return nil
}

func (f *fakeRelationRepo) RemoveAllForUser(_ context.Context, userID string) error {
	removeBy(f.users, func(p pair) bool { return p.otherID == userID })
	return nil
}

func (f *fakeRelationRepo) RemoveAllForGroup(_ context.Context, groupID string) error {
	removeBy(f.groups, func(p pair) bool { return p.otherID == groupID })
	return nil
}

func (f *fakeRelationRepo) RemoveAllPersonLinks(_ context.Context) error {
	f.persons = make(map[pair]struct{})
	return nil
}

func (f *fakeRelationRepo) RemoveAllUserLinks(_ context.Context) error {
	f.users = make(map[pair]struct{})
	return nil
}


// --- fakeSyncStateRepo ---

type fakeSyncStateRepo struct {
	state model.SyncState
}

func newFakeSyncStateRepo() *fakeSyncStateRepo {
	return &fakeSyncStateRepo{state: model.SyncState{ID: 1}}
}

func (f *fakeSyncStateRepo) Get(_ context.Context) (*model.SyncState, error) {
	cp := f.state
	return &cp, nil
}

func (f *fakeSyncStateRepo) UpdateUserImportAt(_ context.Context, at time.Time) error {
	f.state.LastUserImportAt = &at
	return nil
}

func (f *fakeSyncStateRepo) UpdateGroupImportAt(_ context.Context, at time.Time) error {
	f.state.LastGroupImportAt = &at
	return nil
}

// --- fakeDirectory ---

// fakeDirectory — клиент каталога с заранее заданными записями.
type fakeDirectory struct {
	connected bool
	searchErr error
	users     []directory.Entry
	groups    []directory.Entry
	resets    int
}

func (f *fakeDirectory) IsConnected(_ context.Context) bool { return f.connected }

func (f *fakeDirectory) Search(_ context.Context, q directory.Query) ([]directory.Entry, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if q.Object == directory.ObjectUser {
		return f.users, nil
	}
	return f.groups, nil
}

func (f *fakeDirectory) Reset() { f.resets++ }

// --- вспомогательное ---

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func userEntry(dn, logon, control string, attrs map[string]string) directory.Entry {
	m := map[string]string{
		directory.AttrDistinguishedName: dn,
		directory.AttrLogonName:         logon,
		directory.AttrAccountControl:    control,
	}
	for k, v := range attrs {
		m[k] = v
	}
	return directory.Entry{DN: dn, Attributes: m}
}

func groupEntry(dn, cn, groupType, description string) directory.Entry {
	m := map[string]string{
		directory.AttrDistinguishedName: dn,
		directory.AttrCommonName:        cn,
		directory.AttrGroupType:         groupType,
	}
	if description != "" {
		m[directory.AttrDescription] = description
	}
	return directory.Entry{DN: dn, Attributes: m}
}

// --- fakeCascadeTx ---

// fakeCascadeTx выполняет fn на общих in-memory репозиториях.
// Транзакционность здесь не имитируется — атомарность каскада
// проверяется интеграционными тестами слоя репозиториев.
type fakeCascadeTx struct {
	persons   *fakePersonRepo
	users     *fakeUserRepo
	groups    *fakeGroupRepo
	roles     *fakeRoleRepo
	relations *fakeRelationRepo
}

func (f *fakeCascadeTx) InCascadeTx(_ context.Context, fn func(repository.CascadeRepos) error) error {
	return fn(repository.CascadeRepos{
		Persons:   f.persons,
		Users:     f.users,
		Groups:    f.groups,
		Roles:     f.roles,
		Relations: f.relations,
	})
}
