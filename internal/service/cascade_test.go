package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/bigkaa/adroles/internal/domain/model"
)

func TestDeleteRoleComplete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	role := &model.Role{ID: uuid.New().String(), Name: "r1", ResourceID: "res"}
	if err := env.roles.Create(ctx, role); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	p := &model.Person{ID: uuid.New().String(), CentralAccountName: "p1", LastName: "P"}
	if err := env.persons.Create(ctx, p); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	g := &model.DirectoryGroup{ID: uuid.New().String(), Name: "g1", DistinguishedName: "CN=g1"}
	if err := env.groups.Create(ctx, g); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	_ = env.relations.LinkPerson(ctx, role.ID, p.ID)
	_ = env.relations.LinkGroup(ctx, role.ID, g.ID)

	if err := env.cascade.DeleteRoleComplete(ctx, role.ID); err != nil {
		t.Fatalf("DeleteRoleComplete() ошибка: %v", err)
	}

	if _, err := env.roles.GetByID(ctx, role.ID); err == nil {
		t.Error("роль не удалена")
	}
	ids, _ := env.relations.RoleIDsForPerson(ctx, p.ID)
	if len(ids) != 0 {
		t.Error("связь с сотрудником не удалена")
	}
	ids, _ = env.relations.RoleIDsForGroup(ctx, g.ID)
	if len(ids) != 0 {
		t.Error("связь с группой не удалена")
	}
	// Сам сотрудник и группа остаются.
	if _, err := env.persons.GetByID(ctx, p.ID); err != nil {
		t.Error("сотрудник удалён ошибочно")
	}
	if _, err := env.groups.GetByID(ctx, g.ID); err != nil {
		t.Error("группа удалена ошибочно")
	}
}

func TestDeletePersonComplete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p := &model.Person{ID: uuid.New().String(), CentralAccountName: "p1", LastName: "P"}
	if err := env.persons.Create(ctx, p); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	role := &model.Role{ID: uuid.New().String(), Name: "r1", ResourceID: "res"}
	if err := env.roles.Create(ctx, role); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	_ = env.relations.LinkPerson(ctx, role.ID, p.ID)

	if err := env.cascade.DeletePersonComplete(ctx, p.ID); err != nil {
		t.Fatalf("DeletePersonComplete() ошибка: %v", err)
	}

	if _, err := env.persons.GetByID(ctx, p.ID); err == nil {
		t.Error("сотрудник не удалён")
	}
	ids, _ := env.relations.PersonIDsForRole(ctx, role.ID)
	if len(ids) != 0 {
		t.Error("связь роли не очищена")
	}
	// Роль остаётся.
	if _, err := env.roles.GetByID(ctx, role.ID); err != nil {
		t.Error("роль удалена ошибочно")
	}
}

func TestDeleteNotFound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.cascade.DeleteRoleComplete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидался ErrNotFound, получено %v", err)
	}
}

func TestDeleteBatchBestEffort(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p1 := &model.Person{ID: uuid.New().String(), CentralAccountName: "p1", LastName: "P1"}
	p2 := &model.Person{ID: uuid.New().String(), CentralAccountName: "p2", LastName: "P2"}
	for _, p := range []*model.Person{p1, p2} {
		if err := env.persons.Create(ctx, p); err != nil {
			t.Fatalf("Create() ошибка: %v", err)
		}
	}

	// Один из трёх идентификаторов не существует: остальные удаляются.
	result := env.cascade.DeletePersonsComplete(ctx, []string{p1.ID, "missing", p2.ID})
	if result.Deleted != 2 {
		t.Errorf("Deleted = %d, ожидалось 2", result.Deleted)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, ожидалась 1", result.Failed)
	}
	if result.FirstError == "" {
		t.Error("FirstError пуст")
	}
	count, _ := env.persons.Count(ctx)
	if count != 0 {
		t.Errorf("Count() = %d, ожидалось 0", count)
	}
}
