package directory

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/bigkaa/adroles/internal/domain/model"
)

// ErrNotConfigured — endpoint каталога не задан.
var ErrNotConfigured = errors.New("endpoint каталога не настроен")

// Client — клиент каталога поверх LDAP.
// Держит одно соединение с контроллером домена; переподключение —
// ленивое, не чаще одной попытки на проверку IsConnected.
type Client struct {
	sizeLimit int
	timeLimit time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	endpoint *model.DirectoryEndpoint
	conn     *ldap.Conn
}

// New создаёт клиент каталога без настроенного endpoint'а.
// sizeLimit и timeLimit применяются к каждому поисковому запросу.
func New(sizeLimit int, timeLimit time.Duration, logger *slog.Logger) *Client {
	return &Client{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		logger:    logger.With(slog.String("component", "directory_client")),
	}
}

// Configure задаёт endpoint каталога и сбрасывает текущее соединение.
func (c *Client) Configure(ep *model.DirectoryEndpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endpoint = ep
	c.closeLocked()
}

// Connect устанавливает соединение с каталогом и выполняет bind.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// connectLocked — подключение под уже взятым mu.
func (c *Client) connectLocked(ctx context.Context) error {
	if c.endpoint == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.closeLocked()

	scheme := "ldap"
	var opts []ldap.DialOpt
	if c.endpoint.Secure {
		scheme = "ldaps"
		opts = append(opts, ldap.DialWithTLSConfig(&tls.Config{
			ServerName: c.endpoint.Host,
		}))
	}
	url := fmt.Sprintf("%s://%s:%d", scheme, c.endpoint.Host, c.endpoint.Port)

	conn, err := ldap.DialURL(url, opts...)
	if err != nil {
		return fmt.Errorf("подключение к каталогу %s: %w", url, err)
	}

	if err := conn.Bind(c.endpoint.BindDN, c.endpoint.BindPassword); err != nil {
		conn.Close()
		return fmt.Errorf("bind к каталогу %s: %w", url, err)
	}

	c.conn = conn
	c.logger.Info("Соединение с каталогом установлено",
		slog.String("host", c.endpoint.Host),
		slog.Int("port", c.endpoint.Port),
		slog.Bool("secure", c.endpoint.Secure),
	)
	return nil
}

// IsConnected проверяет наличие живого соединения с каталогом.
// Если соединения нет — выполняется одна попытка подключения,
// неудача логируется и возвращается false.
func (c *Client) IsConnected(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosing() {
		return true
	}

	if err := c.connectLocked(ctx); err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			c.logger.Warn("Каталог недоступен",
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	return true
}

// Reset закрывает соединение. Следующая проверка IsConnected
// попытается подключиться заново.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// closeLocked — закрытие соединения под уже взятым mu.
func (c *Client) closeLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Search выполняет поисковый запрос к каталогу.
// Лимиты размера и времени применяются на стороне сервера каталога;
// превышение лимита времени возвращается как ошибка транспорта.
func (c *Client) Search(ctx context.Context, q Query) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.endpoint == nil {
		return nil, ErrNotConfigured
	}
	if c.conn == nil || c.conn.IsClosing() {
		if err := c.connectLocked(ctx); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeLimit := int(c.timeLimit.Seconds())
	if timeLimit < 1 {
		timeLimit = 1
	}

	req := ldap.NewSearchRequest(
		c.endpoint.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		c.sizeLimit,
		timeLimit,
		false,
		q.Filter,
		q.Attributes,
		nil,
	)

	res, err := c.conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("поиск в каталоге (%s): %w", q.Object, err)
	}

	entries := make([]Entry, 0, len(res.Entries))
	for _, e := range res.Entries {
		entry := Entry{
			DN:         e.DN,
			Attributes: make(map[string]string, len(e.Attributes)),
		}
		for _, attr := range e.Attributes {
			if len(attr.Values) > 0 {
				entry.Attributes[attr.Name] = attr.Values[0]
			}
		}
		entries = append(entries, entry)
	}

	c.logger.Debug("Поиск в каталоге выполнен",
		slog.String("object", string(q.Object)),
		slog.Int("entries", len(entries)),
	)
	return entries, nil
}
