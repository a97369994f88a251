// reconciler.go — сервис импорта пользователей и групп из каталога.
//
// DirectoryReconciler вычитывает объекты из Active Directory и сливает
// их с локальным графом сущностей (Person, DirectoryUser, DirectoryGroup,
// Role). Импорт best-effort: ошибка одной записи логируется и не
// прерывает пакет; ошибка транспорта прерывает весь импорт.
//
// Одновременно выполняется не более одного импорта (mu.TryLock):
// конкурирующие вызовы получают ErrSyncInProgress, а не гонку по
// natural-key lookup'ам.
//
// Prometheus-метрики:
//   - adroles_import_duration_seconds{operation} — длительность импорта
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/adroles/internal/directory"
	"github.com/bigkaa/adroles/internal/domain/model"
	"github.com/bigkaa/adroles/internal/repository"
)

// Prometheus-метрики импорта.
var importDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "adroles_import_duration_seconds",
	Help:    "Длительность импорта из каталога",
	Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s … ~51s
}, []string{"operation"})

// DirectoryClient — клиент каталога, используемый реконсилятором.
type DirectoryClient interface {
	// IsConnected проверяет соединение, при разрыве — одна попытка переподключения.
	IsConnected(ctx context.Context) bool
	// Search выполняет поиск в каталоге.
	Search(ctx context.Context, q directory.Query) ([]directory.Entry, error)
	// Reset сбрасывает соединение.
	Reset()
}

// DirectoryReconciler — сервис импорта из каталога.
type DirectoryReconciler struct {
	client        DirectoryClient
	personRepo    repository.PersonRepository
	userRepo      repository.DirectoryUserRepository
	groupRepo     repository.DirectoryGroupRepository
	roleRepo      repository.RoleRepository
	relationRepo  repository.RelationRepository
	syncStateRepo repository.SyncStateRepository
	catalog       *ResourceCatalog
	cascade       *CascadeService
	adminMarker   string
	projectMarker string
	logger        *slog.Logger

	// mu гарантирует не более одного импорта одновременно.
	mu sync.Mutex
}

// NewDirectoryReconciler создаёт сервис импорта из каталога.
func NewDirectoryReconciler(
	client DirectoryClient,
	personRepo repository.PersonRepository,
	userRepo repository.DirectoryUserRepository,
	groupRepo repository.DirectoryGroupRepository,
	roleRepo repository.RoleRepository,
	relationRepo repository.RelationRepository,
	syncStateRepo repository.SyncStateRepository,
	catalog *ResourceCatalog,
	cascade *CascadeService,
	adminMarker string,
	projectMarker string,
	logger *slog.Logger,
) *DirectoryReconciler {
	return &DirectoryReconciler{
		client:        client,
		personRepo:    personRepo,
		userRepo:      userRepo,
		groupRepo:     groupRepo,
		roleRepo:      roleRepo,
		relationRepo:  relationRepo,
		syncStateRepo: syncStateRepo,
		catalog:       catalog,
		cascade:       cascade,
		adminMarker:   adminMarker,
		projectMarker: projectMarker,
		logger:        logger.With(slog.String("component", "reconciler")),
	}
}

// ImportUsers импортирует включённые учётные записи каталога и сотрудников.
// Поддерживается только полная замена (replaceAll = true); инкрементальный
// импорт возвращает ErrNotImplemented.
func (r *DirectoryReconciler) ImportUsers(ctx context.Context, replaceAll bool) (*model.ImportResult, error) {
	if !replaceAll {
		return nil, ErrNotImplemented
	}
	if !r.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer r.mu.Unlock()

	startedAt := time.Now().UTC()

	if !r.client.IsConnected(ctx) {
		r.logger.Warn("Импорт пользователей пропущен: нет соединения с каталогом")
		return &model.ImportResult{StartedAt: startedAt, CompletedAt: time.Now().UTC()}, nil
	}

	entries, err := r.client.Search(ctx, directory.Query{
		Object:     directory.ObjectUser,
		Filter:     directory.EnabledUsersFilter(),
		Attributes: directory.UserAttributes,
	})
	if err != nil {
		r.client.Reset()
		return nil, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}

	// Полная замена: сначала связи, затем сами записи.
	// Учётные записи ссылаются на сотрудников, поэтому удаляются первыми.
	if err := r.relationRepo.RemoveAllUserLinks(ctx); err != nil {
		return nil, fmt.Errorf("очистка связей учётных записей: %w", err)
	}
	if err := r.userRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("удаление учётных записей: %w", err)
	}
	if err := r.relationRepo.RemoveAllPersonLinks(ctx); err != nil {
		return nil, fmt.Errorf("очистка связей сотрудников: %w", err)
	}
	if err := r.personRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("удаление сотрудников: %w", err)
	}

	result := &model.ImportResult{Processed: len(entries), StartedAt: startedAt}

	// Первый проход: учётные записи каталога. Created/Updated считаются
	// по учётным записям; сотрудники сливаются вторым проходом.
	failed := make(map[int]bool, len(entries))
	for i, entry := range entries {
		created, err := r.upsertDirectoryUser(ctx, entry)
		if err != nil {
			failed[i] = true
			r.skip(result, entry.DN, err)
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	// Второй проход: сотрудники. Запись, упавшая в обоих проходах,
	// попадает в Skipped один раз.
	for i, entry := range entries {
		err := r.upsertPerson(ctx, entry)
		if err == nil {
			continue
		}
		if failed[i] {
			r.logger.Warn("Запись пропущена",
				slog.String("id", entry.DN),
				slog.String("error", err.Error()),
			)
			continue
		}
		r.skip(result, entry.DN, err)
	}

	result.CompletedAt = time.Now().UTC()
	importDuration.WithLabelValues("users").Observe(result.CompletedAt.Sub(startedAt).Seconds())

	if err := r.syncStateRepo.UpdateUserImportAt(ctx, result.CompletedAt); err != nil {
		r.logger.Warn("Ошибка обновления last_user_import_at", slog.String("error", err.Error()))
	}

	r.logger.Info("Импорт пользователей завершён",
		slog.Int("processed", result.Processed),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
		slog.Duration("duration", result.CompletedAt.Sub(startedAt)),
	)
	return result, nil
}

// upsertDirectoryUser декодирует запись каталога в DirectoryUser и сохраняет её.
// Существующая запись с тем же DN сохраняет идентификатор и привязку
// к сотруднику. Возвращает true, если запись создана, false — обновлена.
func (r *DirectoryReconciler) upsertDirectoryUser(ctx context.Context, entry directory.Entry) (bool, error) {
	dn := entry.Value(directory.AttrDistinguishedName)
	if dn == "" {
		dn = entry.DN
	}
	if dn == "" {
		return false, fmt.Errorf("запись каталога без distinguishedName")
	}

	logonName := entry.Value(directory.AttrLogonName)
	if logonName == "" {
		return false, fmt.Errorf("запись %s без sAMAccountName", dn)
	}

	control, err := entry.Int(directory.AttrAccountControl)
	if err != nil {
		return false, fmt.Errorf("декодирование userAccountControl записи %s: %w", dn, err)
	}

	user := &model.DirectoryUser{
		ID:                uuid.New().String(),
		LogonName:         logonName,
		DistinguishedName: dn,
		Enabled:           directory.DecodeEnabled(control),
		PasswordExpires:   directory.DecodePasswordExpires(control),
	}

	existing, err := r.userRepo.GetByDN(ctx, dn)
	switch {
	case err == nil:
		// Хранилище очищено перед проходом, значит этот DN уже встречался
		// в текущей выборке. Последняя запись выигрывает.
		r.logger.Warn("Дубликат distinguishedName в выборке каталога, запись будет перезаписана",
			slog.String("dn", dn),
		)
		// Сохраняем идентификатор и привязку к сотруднику.
		user.ID = existing.ID
		user.PersonID = existing.PersonID
		user.AdminAccount = existing.AdminAccount
		user.ServiceAccount = existing.ServiceAccount
		user.RoleManaged = existing.RoleManaged
		if err := r.userRepo.Update(ctx, user); err != nil {
			return false, fmt.Errorf("обновление учётной записи %s: %w", dn, err)
		}
		return false, nil
	case errorsIsNotFound(err):
		if err := r.userRepo.Create(ctx, user); err != nil {
			return false, fmt.Errorf("создание учётной записи %s: %w", dn, err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("поиск учётной записи %s: %w", dn, err)
	}
}

// upsertPerson декодирует запись каталога в Person и сохраняет её.
// Фамилия никогда не пуста: sn → displayName → sAMAccountName.
// Существующий сотрудник с привязанными учётными записями сохраняет
// установленный centralAccountName.
func (r *DirectoryReconciler) upsertPerson(ctx context.Context, entry directory.Entry) error {
	logonName := entry.Value(directory.AttrLogonName)
	if logonName == "" {
		return fmt.Errorf("запись %s без sAMAccountName", entry.DN)
	}

	lastName := entry.Value(directory.AttrLastName)
	if lastName == "" {
		lastName = entry.Value(directory.AttrDisplayName)
	}
	if lastName == "" {
		lastName = logonName
	}

	person := &model.Person{
		ID:                 uuid.New().String(),
		CentralAccountName: logonName,
		FirstName:          entry.Value(directory.AttrFirstName),
		LastName:           lastName,
		Email:              optionalValue(entry, directory.AttrMail),
		Phone:              optionalValue(entry, directory.AttrPhone),
		Mobile:             optionalValue(entry, directory.AttrMobile),
		Department:         optionalValue(entry, directory.AttrDepartment),
		Description:        optionalValue(entry, directory.AttrDescription),
	}

	// Ищем существующего сотрудника через учётную запись каталога.
	user, err := r.userRepo.GetByLogonName(ctx, logonName)
	if err != nil && !errorsIsNotFound(err) {
		return fmt.Errorf("поиск учётной записи %s: %w", logonName, err)
	}

	if user != nil && user.PersonID != nil {
		existing, err := r.personRepo.GetByID(ctx, *user.PersonID)
		if err != nil && !errorsIsNotFound(err) {
			return fmt.Errorf("поиск сотрудника %s: %w", *user.PersonID, err)
		}
		if existing != nil {
			person.ID = existing.ID
			linked, err := r.userRepo.ListByPersonID(ctx, existing.ID)
			if err != nil {
				return fmt.Errorf("получение учётных записей сотрудника %s: %w", existing.ID, err)
			}
			if len(linked) > 0 {
				// Установленный идентификационный ключ не перезаписываем
				// возможным переименованным logon name.
				person.CentralAccountName = existing.CentralAccountName
			}
			if err := r.personRepo.Update(ctx, person); err != nil {
				return fmt.Errorf("обновление сотрудника %s: %w", person.CentralAccountName, err)
			}
			return nil
		}
	}

	// Коллизия по centralAccountName: несколько записей каталога с одним
	// logon name. Последняя запись выигрывает, конфликт логируется.
	if existing, err := r.personRepo.GetByCentralAccountName(ctx, person.CentralAccountName); err == nil {
		r.logger.Warn("Дубликат centralAccountName в каталоге, запись будет перезаписана",
			slog.String("central_account_name", person.CentralAccountName),
			slog.String("dn", entry.DN),
		)
		person.ID = existing.ID
		if err := r.personRepo.Update(ctx, person); err != nil {
			return fmt.Errorf("обновление сотрудника %s: %w", person.CentralAccountName, err)
		}
	} else if errorsIsNotFound(err) {
		if err := r.personRepo.Create(ctx, person); err != nil {
			return fmt.Errorf("создание сотрудника %s: %w", person.CentralAccountName, err)
		}
	} else {
		return fmt.Errorf("поиск сотрудника %s: %w", person.CentralAccountName, err)
	}

	// Привязываем учётную запись к сотруднику.
	if user != nil {
		if err := r.userRepo.AssignPerson(ctx, user.ID, &person.ID); err != nil {
			return fmt.Errorf("привязка учётной записи %s: %w", user.LogonName, err)
		}
	}
	return nil
}

// ImportGroups импортирует группы каталога. Флаг replaceAll симметричен
// импорту пользователей: инкрементальный режим не реализован. Сам импорт —
// слияние по distinguished name: существующая группа сохраняет идентификатор
// и связи с ролями.
func (r *DirectoryReconciler) ImportGroups(ctx context.Context, replaceAll bool) (*model.ImportResult, error) {
	if !replaceAll {
		return nil, ErrNotImplemented
	}
	if !r.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer r.mu.Unlock()

	startedAt := time.Now().UTC()

	if !r.client.IsConnected(ctx) {
		r.logger.Warn("Импорт групп пропущен: нет соединения с каталогом")
		return &model.ImportResult{StartedAt: startedAt, CompletedAt: time.Now().UTC()}, nil
	}

	entries, err := r.client.Search(ctx, directory.Query{
		Object:     directory.ObjectGroup,
		Filter:     directory.GroupsFilter(),
		Attributes: directory.GroupAttributes,
	})
	if err != nil {
		r.client.Reset()
		return nil, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}

	result := &model.ImportResult{Processed: len(entries), StartedAt: startedAt}

	for _, entry := range entries {
		created, err := r.upsertDirectoryGroup(ctx, entry)
		if err != nil {
			r.skip(result, entry.DN, err)
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	result.CompletedAt = time.Now().UTC()
	importDuration.WithLabelValues("groups").Observe(result.CompletedAt.Sub(startedAt).Seconds())

	if err := r.syncStateRepo.UpdateGroupImportAt(ctx, result.CompletedAt); err != nil {
		r.logger.Warn("Ошибка обновления last_group_import_at", slog.String("error", err.Error()))
	}

	r.logger.Info("Импорт групп завершён",
		slog.Int("processed", result.Processed),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
		slog.Duration("duration", result.CompletedAt.Sub(startedAt)),
	)
	return result, nil
}

// upsertDirectoryGroup декодирует запись каталога в DirectoryGroup и сохраняет её.
// Возвращает true, если группа создана, false — обновлена.
func (r *DirectoryReconciler) upsertDirectoryGroup(ctx context.Context, entry directory.Entry) (bool, error) {
	dn := entry.Value(directory.AttrDistinguishedName)
	if dn == "" {
		dn = entry.DN
	}
	if dn == "" {
		return false, fmt.Errorf("запись каталога без distinguishedName")
	}

	name := entry.Value(directory.AttrCommonName)
	if name == "" {
		return false, fmt.Errorf("группа %s без cn", dn)
	}

	groupType, err := entry.Int(directory.AttrGroupType)
	if err != nil {
		return false, fmt.Errorf("декодирование groupType группы %s: %w", dn, err)
	}
	area, kind := directory.DecodeGroupType(groupType)

	var desc *string
	if raw := entry.Value(directory.AttrDescription); raw != "" {
		truncated := directory.TruncateDescription(raw)
		desc = &truncated
	}

	group := &model.DirectoryGroup{
		ID:                uuid.New().String(),
		Name:              name,
		Description:       desc,
		AdminGroup:        containsFold(name, r.adminMarker),
		Area:              area,
		Kind:              kind,
		DistinguishedName: dn,
	}

	existing, err := r.groupRepo.GetByDN(ctx, dn)
	switch {
	case err == nil:
		group.ID = existing.ID
		if err := r.groupRepo.Update(ctx, group); err != nil {
			return false, fmt.Errorf("обновление группы %s: %w", dn, err)
		}
		return false, nil
	case errorsIsNotFound(err):
		if err := r.groupRepo.Create(ctx, group); err != nil {
			return false, fmt.Errorf("создание группы %s: %w", dn, err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("поиск группы %s: %w", dn, err)
	}
}

// ImportRolesFromGroups создаёт роли по группам каталога, для которых
// ещё нет роли с тем же именем (без учёта регистра). Ошибка получения
// ресурса роли прерывает цикл, уже созданные роли сохраняются.
func (r *DirectoryReconciler) ImportRolesFromGroups(ctx context.Context) (*model.ImportResult, error) {
	if !r.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer r.mu.Unlock()

	startedAt := time.Now().UTC()

	groups, err := r.groupRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение групп: %w", err)
	}

	result := &model.ImportResult{Processed: len(groups), StartedAt: startedAt}

	for _, group := range groups {
		if _, err := r.roleRepo.GetByNameFold(ctx, group.Name); err == nil {
			result.Skipped++
			continue
		} else if !errorsIsNotFound(err) {
			r.skip(result, group.Name, fmt.Errorf("поиск роли %s: %w", group.Name, err))
			continue
		}

		kind := model.ResourceDefault
		if containsFold(group.Name, r.projectMarker) {
			kind = model.ResourceProject
		}

		res, err := r.catalog.Get(ctx, kind)
		if err != nil {
			// Без ресурса роль создать нельзя — прерываем оставшийся цикл.
			r.logger.Error("Ресурс роли недоступен, импорт ролей прерван",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
			)
			if result.FirstError == "" {
				result.FirstError = err.Error()
			}
			break
		}

		role := &model.Role{
			ID:          uuid.New().String(),
			Name:        group.Name,
			Description: group.Description,
			AdminRole:   containsFold(group.Name, r.adminMarker),
			ResourceID:  res.ID,
		}
		if err := r.roleRepo.Create(ctx, role); err != nil {
			r.skip(result, group.Name, fmt.Errorf("создание роли %s: %w", group.Name, err))
			continue
		}
		// Связываем роль с породившей её группой.
		if err := r.relationRepo.LinkGroup(ctx, role.ID, group.ID); err != nil {
			r.logger.Warn("Ошибка привязки группы к роли",
				slog.String("role", role.Name),
				slog.String("error", err.Error()),
			)
		}
		result.Created++
	}

	result.CompletedAt = time.Now().UTC()
	importDuration.WithLabelValues("roles").Observe(result.CompletedAt.Sub(startedAt).Seconds())

	r.logger.Info("Импорт ролей из групп завершён",
		slog.Int("processed", result.Processed),
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

// ImportOrgUnitsFromPersons пересоздаёт роли-подразделения по уникальным
// отделам сотрудников: существующие роли-подразделения удаляются с
// каскадом, затем создаётся по одной роли на отдел.
func (r *DirectoryReconciler) ImportOrgUnitsFromPersons(ctx context.Context) (*model.ImportResult, error) {
	if !r.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer r.mu.Unlock()

	startedAt := time.Now().UTC()

	orgResource, err := r.catalog.Get(ctx, model.ResourceOrg)
	if err != nil {
		return nil, fmt.Errorf("получение ресурса подразделений: %w", err)
	}

	existing, err := r.roleRepo.ListOrg(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение ролей-подразделений: %w", err)
	}
	for _, role := range existing {
		if err := r.cascade.DeleteRoleComplete(ctx, role.ID); err != nil {
			return nil, fmt.Errorf("удаление роли-подразделения %s: %w", role.Name, err)
		}
	}

	departments, err := r.personRepo.Departments(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение отделов: %w", err)
	}

	result := &model.ImportResult{Processed: len(departments), StartedAt: startedAt}

	for _, department := range departments {
		role := &model.Role{
			ID:         uuid.New().String(),
			Name:       department,
			OrgRole:    true,
			ResourceID: orgResource.ID,
		}
		if err := r.roleRepo.Create(ctx, role); err != nil {
			r.skip(result, department, fmt.Errorf("создание роли-подразделения %s: %w", department, err))
			continue
		}
		result.Created++
	}

	result.CompletedAt = time.Now().UTC()
	importDuration.WithLabelValues("org_units").Observe(result.CompletedAt.Sub(startedAt).Seconds())

	r.logger.Info("Импорт оргструктуры завершён",
		slog.Int("departments", result.Processed),
		slog.Int("created", result.Created),
	)
	return result, nil
}

// skip фиксирует пропуск записи в итогах импорта.
func (r *DirectoryReconciler) skip(result *model.ImportResult, id string, err error) {
	result.Skipped++
	if result.FirstError == "" {
		result.FirstError = err.Error()
	}
	r.logger.Warn("Запись пропущена",
		slog.String("id", id),
		slog.String("error", err.Error()),
	)
}

// optionalValue возвращает значение атрибута или nil, если оно пусто.
func optionalValue(entry directory.Entry, name string) *string {
	if v := entry.Value(name); v != "" {
		return &v
	}
	return nil
}

// containsFold проверяет вхождение подстроки без учёта регистра.
func containsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// errorsIsNotFound — короткая проверка ErrNotFound репозитория.
func errorsIsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
