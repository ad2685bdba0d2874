package syncctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/conflict"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/synclog"
)

// Client — HTTP-клиент консоли оператора к серверу синхронизации
type Client struct {
	client    *http.Client
	baseURL   string
	token     string
	userAgent string
}

func New(serverAddress, token string) *Client {
	baseURL := serverAddress
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		userAgent: "syncctl/1.0",
	}
}

// HealthCheck проверяет доступность сервера и базы данных
func (c *Client) HealthCheck(ctx context.Context) error {
	var out struct {
		Database string `json:"database"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/health", nil, &out); err != nil {
		return err
	}
	if out.Database != "OK" {
		return fmt.Errorf("база данных недоступна")
	}
	return nil
}

// QueueList возвращает страницу очереди устройства
func (c *Client) QueueList(ctx context.Context, status, entityType string, limit, offset int) ([]*queue.Item, int, error) {
	path := "/api/v1/sync/queue?" + listQuery(status, entityType, limit, offset)

	var out struct {
		Items []*queue.Item `json:"items"`
		Total int           `json:"total"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

// QueueGet возвращает один элемент очереди
func (c *Client) QueueGet(ctx context.Context, id int64) (*queue.Item, error) {
	var out struct {
		Item *queue.Item `json:"item"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/sync/queue/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

// QueueRetry возвращает FAILED-элемент в статус PENDING
func (c *Client) QueueRetry(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodPost, "/api/v1/sync/queue/"+strconv.FormatInt(id, 10)+"/retry", nil, nil)
}

// QueueDelete удаляет элемент очереди
func (c *Client) QueueDelete(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/sync/queue/"+strconv.FormatInt(id, 10), nil, nil)
}

// QueueRecover возвращает зависшие IN_PROGRESS элементы в очередь
func (c *Client) QueueRecover(ctx context.Context, staleAfterMinutes int) (int64, error) {
	body := map[string]int{"stale_after_minutes": staleAfterMinutes}

	var out struct {
		Recovered int64 `json:"recovered"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/sync/queue/recover", body, &out); err != nil {
		return 0, err
	}
	return out.Recovered, nil
}

// Attention возвращает элементы, требующие вмешательства оператора
func (c *Client) Attention(ctx context.Context) ([]*queue.Item, error) {
	var out struct {
		Items []*queue.Item `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/sync/queue/attention", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Conflicts возвращает страницу конфликтов устройства
func (c *Client) Conflicts(ctx context.Context, status, entityType string, limit, offset int) ([]*conflict.Conflict, int, error) {
	path := "/api/v1/sync/conflicts?" + listQuery(status, entityType, limit, offset)

	var out struct {
		Conflicts []*conflict.Conflict `json:"conflicts"`
		Total     int                  `json:"total"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Conflicts, out.Total, nil
}

// ConflictGet возвращает один конфликт с обеими версиями данных
func (c *Client) ConflictGet(ctx context.Context, id int64) (*conflict.Conflict, error) {
	var out struct {
		Conflict *conflict.Conflict `json:"conflict"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/sync/conflicts/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return out.Conflict, nil
}

// Resolve разрешает конфликт выбранной стратегией
func (c *Client) Resolve(ctx context.Context, id int64, strategy string, data *snapshot.Snapshot, resolvedBy string) (*conflict.Conflict, error) {
	body := struct {
		Strategy     string             `json:"resolution_strategy"`
		ResolvedData *snapshot.Snapshot `json:"resolved_data,omitempty"`
		ResolvedBy   string             `json:"resolved_by,omitempty"`
	}{Strategy: strategy, ResolvedData: data, ResolvedBy: resolvedBy}

	var out struct {
		Conflict *conflict.Conflict `json:"conflict"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/sync/conflicts/"+strconv.FormatInt(id, 10)+"/resolve", body, &out); err != nil {
		return nil, err
	}
	return out.Conflict, nil
}

// Ignore помечает конфликт как проигнорированный
func (c *Client) Ignore(ctx context.Context, id int64, ignoredBy string) error {
	body := map[string]string{"ignored_by": ignoredBy}
	return c.call(ctx, http.MethodPost, "/api/v1/sync/conflicts/"+strconv.FormatInt(id, 10)+"/ignore", body, nil)
}

// RunSession запускает сессию синхронизации и дожидается результата
func (c *Client) RunSession(ctx context.Context, syncType, direction string) (*synclog.Log, []*queue.Item, error) {
	body := struct {
		SyncType  string `json:"sync_type,omitempty"`
		Direction string `json:"sync_direction,omitempty"`
	}{SyncType: syncType, Direction: direction}

	var out struct {
		Session        *synclog.Log  `json:"session"`
		NeedsAttention []*queue.Item `json:"needs_attention"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/sync/sessions", body, &out); err != nil {
		return nil, nil, err
	}
	return out.Session, out.NeedsAttention, nil
}

// Sessions возвращает историю сессий устройства
func (c *Client) Sessions(ctx context.Context, status string, limit, offset int) ([]*synclog.Log, int, error) {
	path := "/api/v1/sync/logs?" + listQuery(status, "", limit, offset)

	var out struct {
		Sessions []*synclog.Log `json:"sessions"`
		Total    int            `json:"total"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Sessions, out.Total, nil
}

// SessionGet возвращает одну сессию по ID
func (c *Client) SessionGet(ctx context.Context, id string) (*synclog.Log, error) {
	var out struct {
		Session *synclog.Log `json:"session"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/sync/logs/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out.Session, nil
}

// CancelSession отменяет активную сессию
func (c *Client) CancelSession(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, "/api/v1/sync/logs/"+id+"/cancel", nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(raw, &errResp); err == nil {
			if errResp.Error != "" {
				return fmt.Errorf("ошибка сервера: %s", errResp.Error)
			}
			if errResp.Detail != "" {
				return fmt.Errorf("ошибка сервера: %s", errResp.Detail)
			}
		}
		return fmt.Errorf("ошибка сервера: статус %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}

func listQuery(status, entityType string, limit, offset int) string {
	params := make([]string, 0, 4)
	if status != "" {
		params = append(params, "status="+status)
	}
	if entityType != "" {
		params = append(params, "entity_type="+entityType)
	}
	if limit > 0 {
		params = append(params, "limit="+strconv.Itoa(limit))
	}
	if offset > 0 {
		params = append(params, "offset="+strconv.Itoa(offset))
	}
	return strings.Join(params, "&")
}
