// Точка входа AD Roles — сервис импорта пользователей и групп
// из Active Directory и ведения ролевой модели.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт клиент каталога, сервисный слой и API handlers,
// запускает мониторинг зависимостей (topologymetrics) и HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/adroles/internal/api/handlers"
	"github.com/bigkaa/adroles/internal/config"
	"github.com/bigkaa/adroles/internal/database"
	"github.com/bigkaa/adroles/internal/directory"
	"github.com/bigkaa/adroles/internal/repository"
	"github.com/bigkaa/adroles/internal/server"
	"github.com/bigkaa/adroles/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("AD Roles запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("AR_DEPHEALTH_GROUP") == "" {
		logger.Warn("AR_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL идёт через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Клиент каталога (LDAP). Параметры подключения хранятся в БД,
	// конфигурируется ниже через EndpointService.
	dirClient := directory.New(cfg.LDAPSizeLimit, cfg.LDAPTimeLimit, logger)
	defer dirClient.Reset()

	// 6. Repositories
	personRepo := repository.NewPersonRepository(pool)
	userRepo := repository.NewDirectoryUserRepository(pool)
	groupRepo := repository.NewDirectoryGroupRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	resourceRepo := repository.NewRoleResourceRepository(pool)
	relationRepo := repository.NewRelationRepository(pool)
	endpointRepo := repository.NewDirectoryEndpointRepository(pool)
	syncStateRepo := repository.NewSyncStateRepository(pool)

	// 7. Services
	catalog := service.NewResourceCatalog(resourceRepo, logger)
	cascade := service.NewCascadeService(repository.NewTxRunner(pool), logger)
	personSvc := service.NewPersonService(personRepo, userRepo, relationRepo, cascade, logger)
	roleSvc := service.NewRoleService(roleRepo, relationRepo, catalog, cascade, logger)
	entitySvc := service.NewDirectoryEntityService(userRepo, groupRepo, personRepo, relationRepo, cascade, logger)
	endpointSvc := service.NewEndpointService(endpointRepo, dirClient, logger)
	reconciler := service.NewDirectoryReconciler(
		dirClient,
		personRepo, userRepo, groupRepo, roleRepo, relationRepo, syncStateRepo,
		catalog, cascade,
		cfg.AdminMarker, cfg.ProjectMarker,
		logger,
	)

	// 8. Справочник ресурсов ролей должен существовать до первого запроса
	if err := catalog.EnsureAll(ctx); err != nil {
		logger.Error("Ошибка инициализации справочника ресурсов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Подключение к каталогу, если endpoint уже настроен.
	// Ошибка не фатальна: импорт запускается вручную, API работает без каталога.
	endpointSvc.ConfigureClient(ctx)

	// 10. Мониторинг зависимостей (topologymetrics)
	dephealthSvc, err := service.NewDephealthService(
		"adroles",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания dephealth", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := dephealthSvc.Start(ctx); err != nil {
		logger.Error("Ошибка запуска dephealth", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dephealthSvc.Stop()

	// 11. API handlers
	healthHandler := handlers.NewHealthHandler(
		database.NewReadinessChecker(pool),
		&handlers.DirectoryChecker{
			IsConnected: func() bool { return dirClient.IsConnected(context.Background()) },
		},
	)
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		personSvc, roleSvc, entitySvc, endpointSvc, reconciler,
		syncStateRepo, dirClient,
		logger,
	)

	// 12. HTTP-сервер с graceful shutdown
	srv := server.New(cfg, logger, apiHandler)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
