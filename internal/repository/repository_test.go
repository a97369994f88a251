package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/adroles/internal/config"
	"github.com/bigkaa/adroles/internal/database"
	"github.com/bigkaa/adroles/internal/domain/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool и функцию очистки.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("adroles_test"),
		postgres.WithUsername("adroles"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("AR_DB_HOST", host)
	os.Setenv("AR_DB_PORT", port.Port())
	os.Setenv("AR_DB_NAME", "adroles_test")
	os.Setenv("AR_DB_USER", "adroles")
	os.Setenv("AR_DB_PASSWORD", "test-password")
	os.Setenv("AR_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	// Подключаемся
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

func strPtr(s string) *string { return &s }

// --- Тесты PersonRepository ---

func TestPersonCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewPersonRepository(pool)

	p := &model.Person{
		ID:                 uuid.New().String(),
		CentralAccountName: "ivanov.ii",
		FirstName:          "Иван",
		LastName:           "Иванов",
		Email:              strPtr("ivanov@example.com"),
		Department:         strPtr("ИТ"),
	}

	// Create
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен")
	}

	// Конфликт по central_account_name
	dup := &model.Person{
		ID:                 uuid.New().String(),
		CentralAccountName: "ivanov.ii",
		FirstName:          "Пётр",
		LastName:           "Петров",
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Create() дубликата: ожидался ErrConflict, получено %v", err)
	}

	// GetByID
	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.CentralAccountName != "ivanov.ii" {
		t.Errorf("CentralAccountName = %q, ожидалось ivanov.ii", got.CentralAccountName)
	}

	// GetByCentralAccountName
	got, err = repo.GetByCentralAccountName(ctx, "ivanov.ii")
	if err != nil {
		t.Fatalf("GetByCentralAccountName() ошибка: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("ID = %q, ожидалось %q", got.ID, p.ID)
	}

	// Update
	got.LastName = "Иванов-Сидоров"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	got, _ = repo.GetByID(ctx, p.ID)
	if got.LastName != "Иванов-Сидоров" {
		t.Errorf("LastName = %q после обновления", got.LastName)
	}

	// List с поиском
	search := "иван"
	list, err := repo.List(ctx, &search, 10, 0)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() вернул %d записей, ожидалась 1", len(list))
	}

	// Departments
	deps, err := repo.Departments(ctx)
	if err != nil {
		t.Fatalf("Departments() ошибка: %v", err)
	}
	if len(deps) != 1 || deps[0] != "ИТ" {
		t.Errorf("Departments() = %v, ожидалось [ИТ]", deps)
	}

	// Delete
	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() после удаления: ожидался ErrNotFound, получено %v", err)
	}
	if err := repo.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() повторно: ожидался ErrNotFound, получено %v", err)
	}
}

// --- Тесты DirectoryUserRepository ---

func TestDirectoryUserCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	users := NewDirectoryUserRepository(pool)
	persons := NewPersonRepository(pool)

	u := &model.DirectoryUser{
		ID:                uuid.New().String(),
		LogonName:         "ivanov.ii",
		DistinguishedName: "CN=Ivanov,OU=Users,DC=example,DC=com",
		Enabled:           true,
		PasswordExpires:   true,
	}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// Конфликт по distinguished_name
	dup := &model.DirectoryUser{
		ID:                uuid.New().String(),
		LogonName:         "ivanov2",
		DistinguishedName: u.DistinguishedName,
	}
	if err := users.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Create() дубликата DN: ожидался ErrConflict, получено %v", err)
	}

	// GetByDN
	got, err := users.GetByDN(ctx, u.DistinguishedName)
	if err != nil {
		t.Fatalf("GetByDN() ошибка: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ID = %q, ожидалось %q", got.ID, u.ID)
	}

	// GetByLogonName
	got, err = users.GetByLogonName(ctx, "ivanov.ii")
	if err != nil {
		t.Fatalf("GetByLogonName() ошибка: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByLogonName() вернул другую запись")
	}

	// AssignPerson + ListByPersonID
	p := &model.Person{
		ID:                 uuid.New().String(),
		CentralAccountName: "ivanov.ii",
		FirstName:          "Иван",
		LastName:           "Иванов",
	}
	if err := persons.Create(ctx, p); err != nil {
		t.Fatalf("Create() сотрудника: %v", err)
	}
	if err := users.AssignPerson(ctx, u.ID, &p.ID); err != nil {
		t.Fatalf("AssignPerson() ошибка: %v", err)
	}
	linked, err := users.ListByPersonID(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByPersonID() ошибка: %v", err)
	}
	if len(linked) != 1 || linked[0].ID != u.ID {
		t.Errorf("ListByPersonID() = %d записей", len(linked))
	}

	// Удаление сотрудника обнуляет person_id (ON DELETE SET NULL)
	if err := persons.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() сотрудника: %v", err)
	}
	got, _ = users.GetByID(ctx, u.ID)
	if got.PersonID != nil {
		t.Errorf("PersonID = %v после удаления сотрудника, ожидался nil", *got.PersonID)
	}
}

// --- Тесты DirectoryGroupRepository ---

func TestDirectoryGroupCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewDirectoryGroupRepository(pool)

	g := &model.DirectoryGroup{
		ID:                uuid.New().String(),
		Name:              "prj-nexus-admins",
		DistinguishedName: "CN=prj-nexus-admins,OU=Groups,DC=example,DC=com",
		Area:              model.GroupAreaGlobal,
		Kind:              model.GroupKindSecurity,
	}
	if err := repo.Create(ctx, g); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	got, err := repo.GetByDN(ctx, g.DistinguishedName)
	if err != nil {
		t.Fatalf("GetByDN() ошибка: %v", err)
	}
	if got.Area != model.GroupAreaGlobal || got.Kind != model.GroupKindSecurity {
		t.Errorf("Area/Kind = %s/%s", got.Area, got.Kind)
	}

	got.Description = strPtr("Администраторы проекта Nexus")
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() ошибка: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ListAll() = %d записей, ожидалась 1", len(all))
	}

	if err := repo.Delete(ctx, got.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	count, _ := repo.Count(ctx)
	if count != 0 {
		t.Errorf("Count() = %d после Delete", count)
	}
}

// --- Тесты RoleRepository и RoleResourceRepository ---

func TestRoleCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	roles := NewRoleRepository(pool)
	resources := NewRoleResourceRepository(pool)

	res := &model.RoleResource{
		ID:       uuid.New().String(),
		Kind:     model.ResourceProject,
		Name:     "Проект",
		ViewID:   "project",
		TitleKey: "role.resource.project.title",
	}
	if err := resources.Create(ctx, res); err != nil {
		t.Fatalf("Create() ресурса: %v", err)
	}

	// Второй ресурс того же вида запрещён
	dup := &model.RoleResource{
		ID:   uuid.New().String(),
		Kind: model.ResourceProject,
		Name: "Дубликат",
	}
	if err := resources.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Create() второго ресурса вида project: ожидался ErrConflict, получено %v", err)
	}

	byKind, err := resources.GetByKind(ctx, model.ResourceProject)
	if err != nil {
		t.Fatalf("GetByKind() ошибка: %v", err)
	}
	if byKind.ID != res.ID {
		t.Errorf("GetByKind() вернул другую запись")
	}

	role := &model.Role{
		ID:         uuid.New().String(),
		Name:       "prj-nexus-admins",
		ResourceID: res.ID,
	}
	if err := roles.Create(ctx, role); err != nil {
		t.Fatalf("Create() роли: %v", err)
	}

	// Поиск по имени без учёта регистра
	got, err := roles.GetByNameFold(ctx, "PRJ-Nexus-ADMINS")
	if err != nil {
		t.Fatalf("GetByNameFold() ошибка: %v", err)
	}
	if got.ID != role.ID {
		t.Errorf("GetByNameFold() вернул другую запись")
	}

	// ListOrg пуст, пока нет ролей-подразделений
	orgs, err := roles.ListOrg(ctx)
	if err != nil {
		t.Fatalf("ListOrg() ошибка: %v", err)
	}
	if len(orgs) != 0 {
		t.Errorf("ListOrg() = %d записей, ожидалось 0", len(orgs))
	}

	got.OrgRole = true
	if err := roles.Update(ctx, got); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	orgs, _ = roles.ListOrg(ctx)
	if len(orgs) != 1 {
		t.Errorf("ListOrg() = %d записей после обновления, ожидалась 1", len(orgs))
	}
}

// --- Тесты RelationRepository ---

func TestRelations(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	persons := NewPersonRepository(pool)
	users := NewDirectoryUserRepository(pool)
	groups := NewDirectoryGroupRepository(pool)
	roles := NewRoleRepository(pool)
	resources := NewRoleResourceRepository(pool)
	relations := NewRelationRepository(pool)

	res := &model.RoleResource{ID: uuid.New().String(), Kind: model.ResourceDefault, Name: "По умолчанию"}
	if err := resources.Create(ctx, res); err != nil {
		t.Fatalf("Create() ресурса: %v", err)
	}
	role := &model.Role{ID: uuid.New().String(), Name: "test-role", ResourceID: res.ID}
	if err := roles.Create(ctx, role); err != nil {
		t.Fatalf("Create() роли: %v", err)
	}
	p := &model.Person{ID: uuid.New().String(), CentralAccountName: "petrov.pp", FirstName: "Пётр", LastName: "Петров"}
	if err := persons.Create(ctx, p); err != nil {
		t.Fatalf("Create() сотрудника: %v", err)
	}
	u := &model.DirectoryUser{ID: uuid.New().String(), LogonName: "petrov.pp", DistinguishedName: "CN=Petrov,DC=example,DC=com"}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("Create() учётной записи: %v", err)
	}
	g := &model.DirectoryGroup{
		ID: uuid.New().String(), Name: "test-group",
		DistinguishedName: "CN=test-group,DC=example,DC=com",
		Area:              model.GroupAreaLocal, Kind: model.GroupKindSecurity,
	}
	if err := groups.Create(ctx, g); err != nil {
		t.Fatalf("Create() группы: %v", err)
	}

	// Связи
	if err := relations.LinkPerson(ctx, role.ID, p.ID); err != nil {
		t.Fatalf("LinkPerson() ошибка: %v", err)
	}
	// Повторная связь не ошибка
	if err := relations.LinkPerson(ctx, role.ID, p.ID); err != nil {
		t.Fatalf("LinkPerson() повторно: %v", err)
	}
	if err := relations.LinkUser(ctx, role.ID, u.ID); err != nil {
		t.Fatalf("LinkUser() ошибка: %v", err)
	}
	if err := relations.LinkGroup(ctx, role.ID, g.ID); err != nil {
		t.Fatalf("LinkGroup() ошибка: %v", err)
	}

	ids, err := relations.PersonIDsForRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("PersonIDsForRole() ошибка: %v", err)
	}
	if len(ids) != 1 || ids[0] != p.ID {
		t.Errorf("PersonIDsForRole() = %v", ids)
	}

	roleIDs, err := relations.RoleIDsForGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("RoleIDsForGroup() ошибка: %v", err)
	}
	if len(roleIDs) != 1 || roleIDs[0] != role.ID {
		t.Errorf("RoleIDsForGroup() = %v", roleIDs)
	}

	// Удаление роли без очистки связей запрещено FK
	if err := roles.Delete(ctx, role.ID); err == nil {
		t.Error("Delete() роли со связями: ожидалась ошибка FK")
	}

	// Очистка связей и удаление
	if err := relations.RemoveAllForRole(ctx, role.ID); err != nil {
		t.Fatalf("RemoveAllForRole() ошибка: %v", err)
	}
	if err := roles.Delete(ctx, role.ID); err != nil {
		t.Fatalf("Delete() роли после очистки связей: %v", err)
	}

	ids, _ = relations.RoleIDsForPerson(ctx, p.ID)
	if len(ids) != 0 {
		t.Errorf("RoleIDsForPerson() = %v после очистки", ids)
	}
}

// --- Тесты DirectoryEndpointRepository и SyncStateRepository ---

func TestEndpointAndSyncState(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	endpoints := NewDirectoryEndpointRepository(pool)
	syncState := NewSyncStateRepository(pool)

	ep := &model.DirectoryEndpoint{
		ID:           uuid.New().String(),
		Name:         "dc1",
		Host:         "dc1.example.com",
		Port:         636,
		Secure:       true,
		BindDN:       "CN=svc,DC=example,DC=com",
		BindPassword: "secret",
		BaseDN:       "DC=example,DC=com",
	}
	if err := endpoints.Create(ctx, ep); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	count, err := endpoints.Count(ctx)
	if err != nil {
		t.Fatalf("Count() ошибка: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, ожидалось 1", count)
	}

	ep.Port = 389
	ep.Secure = false
	if err := endpoints.Update(ctx, ep); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	got, _ := endpoints.GetByID(ctx, ep.ID)
	if got.Port != 389 || got.Secure {
		t.Errorf("Port/Secure = %d/%v после обновления", got.Port, got.Secure)
	}

	// sync_state создаётся миграцией
	state, err := syncState.Get(ctx)
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if state.ID != 1 {
		t.Errorf("ID = %d, ожидалось 1", state.ID)
	}
	if state.LastUserImportAt != nil {
		t.Errorf("LastUserImportAt = %v, ожидался nil", state.LastUserImportAt)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := syncState.UpdateUserImportAt(ctx, now); err != nil {
		t.Fatalf("UpdateUserImportAt() ошибка: %v", err)
	}
	state, _ = syncState.Get(ctx)
	if state.LastUserImportAt == nil || !state.LastUserImportAt.Equal(now) {
		t.Errorf("LastUserImportAt = %v, ожидалось %v", state.LastUserImportAt, now)
	}
}

// --- Тесты TxRunner ---

// Зачистка связей и удаление сущности идут в одной транзакции:
// ошибка между ними не должна оставить сущность без связей.
func TestCascadeTxRollback(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	roles := NewRoleRepository(pool)
	groups := NewDirectoryGroupRepository(pool)
	resources := NewRoleResourceRepository(pool)
	relations := NewRelationRepository(pool)
	runner := NewTxRunner(pool)

	res := &model.RoleResource{ID: uuid.New().String(), Kind: model.ResourceDefault, Name: "По умолчанию"}
	if err := resources.Create(ctx, res); err != nil {
		t.Fatalf("Create() ресурса: %v", err)
	}
	role := &model.Role{ID: uuid.New().String(), Name: "tx-role", ResourceID: res.ID}
	if err := roles.Create(ctx, role); err != nil {
		t.Fatalf("Create() роли: %v", err)
	}
	g := &model.DirectoryGroup{
		ID: uuid.New().String(), Name: "tx-group",
		DistinguishedName: "CN=tx-group,DC=example,DC=com",
		Area:              model.GroupAreaLocal, Kind: model.GroupKindSecurity,
	}
	if err := groups.Create(ctx, g); err != nil {
		t.Fatalf("Create() группы: %v", err)
	}
	if err := relations.LinkGroup(ctx, role.ID, g.ID); err != nil {
		t.Fatalf("LinkGroup() ошибка: %v", err)
	}

	errBoom := errors.New("отказ после зачистки связей")
	err := runner.InCascadeTx(ctx, func(r CascadeRepos) error {
		if err := r.Relations.RemoveAllForRole(ctx, role.ID); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("InCascadeTx() = %v, ожидался наш отказ", err)
	}

	// Связь должна пережить откат.
	ids, err := relations.GroupIDsForRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("GroupIDsForRole() ошибка: %v", err)
	}
	if len(ids) != 1 || ids[0] != g.ID {
		t.Errorf("GroupIDsForRole() после отката = %v, ожидалась связь с группой", ids)
	}

	// Успешная транзакция удаляет роль вместе со связями.
	err = runner.InCascadeTx(ctx, func(r CascadeRepos) error {
		if err := r.Relations.RemoveAllForRole(ctx, role.ID); err != nil {
			return err
		}
		return r.Roles.Delete(ctx, role.ID)
	})
	if err != nil {
		t.Fatalf("InCascadeTx() ошибка: %v", err)
	}
	if _, err := roles.GetByID(ctx, role.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() после удаления = %v, ожидался ErrNotFound", err)
	}
	ids, _ = relations.GroupIDsForRole(ctx, role.ID)
	if len(ids) != 0 {
		t.Errorf("GroupIDsForRole() = %v, ожидалась пустота", ids)
	}
}
