// Пакет config — загрузка и валидация конфигурации AD-Roles
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации AD-Roles.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Каталог (Active Directory / LDAP) ---

	// Маркер административных групп: подстрока в имени группы,
	// по которой группа/роль считается административной
	AdminMarker string
	// Маркер проектных групп: подстрока в имени группы,
	// по которой роль относится к ресурсу «проект»
	ProjectMarker string
	// Максимальное количество записей в одном LDAP-запросе
	LDAPSizeLimit int
	// Таймаут одного LDAP-запроса
	LDAPTimeLimit time.Duration

	// --- Мониторинг зависимостей ---

	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics
	DephealthGroup string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// AR_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("AR_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("AR_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("AR_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// AR_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("AR_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("AR_LOG_LEVEL: %w", err)
	}

	// AR_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("AR_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("AR_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// AR_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("AR_DB_HOST")
	if err != nil {
		return nil, err
	}

	// AR_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("AR_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("AR_DB_PORT: %w", err)
	}

	// AR_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("AR_DB_NAME")
	if err != nil {
		return nil, err
	}

	// AR_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("AR_DB_USER")
	if err != nil {
		return nil, err
	}

	// AR_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("AR_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// AR_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("AR_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("AR_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Каталог ---

	// AR_ADMIN_MARKER — маркер административных групп (по умолчанию "admin")
	cfg.AdminMarker = getEnvDefault("AR_ADMIN_MARKER", "admin")

	// AR_PROJECT_MARKER — маркер проектных групп (по умолчанию "prj")
	cfg.ProjectMarker = getEnvDefault("AR_PROJECT_MARKER", "prj")

	// AR_LDAP_SIZE_LIMIT — лимит записей LDAP-запроса (по умолчанию 1000)
	cfg.LDAPSizeLimit, err = getEnvInt("AR_LDAP_SIZE_LIMIT", 1000)
	if err != nil {
		return nil, fmt.Errorf("AR_LDAP_SIZE_LIMIT: %w", err)
	}
	if cfg.LDAPSizeLimit < 1 || cfg.LDAPSizeLimit > 100000 {
		return nil, fmt.Errorf("AR_LDAP_SIZE_LIMIT: значение %d вне допустимого диапазона 1-100000", cfg.LDAPSizeLimit)
	}

	// AR_LDAP_TIME_LIMIT — таймаут LDAP-запроса (по умолчанию 1s)
	cfg.LDAPTimeLimit, err = getEnvDuration("AR_LDAP_TIME_LIMIT", time.Second)
	if err != nil {
		return nil, fmt.Errorf("AR_LDAP_TIME_LIMIT: %w", err)
	}

	// --- Мониторинг зависимостей ---

	// AR_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("AR_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AR_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// AR_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию "adroles")
	cfg.DephealthGroup = getEnvDefault("AR_DEPHEALTH_GROUP", "adroles")

	// --- Graceful shutdown ---

	// AR_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("AR_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AR_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (для лейблов topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
