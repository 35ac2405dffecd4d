package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrConnection означает, что ответ от сервиса не был получен вовсе
// (обрыв соединения, DNS, таймаут). Такие ошибки всегда терминальны:
// перебор вариантов тела заявки при них не продолжается.
var ErrConnection = errors.New("connection error")

// APIError — структурированная ошибка ответа сервиса. Тело ошибки может
// быть JSON-объектом, простым текстом или пустым; все три варианта
// сводятся к паре Message/Detail.
type APIError struct {
	Status  int
	Code    string
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	text := e.Text()
	if text == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, text)
}

// Text возвращает объединённый текст сообщения и деталей.
// Именно по нему работает эвристика retry/stop в переговорщике.
func (e *APIError) Text() string {
	switch {
	case e.Message != "" && e.Detail != "":
		return e.Message + " " + e.Detail
	case e.Message != "":
		return e.Message
	default:
		return e.Detail
	}
}

// Client — общий HTTP-клиент сервиса турниров: bearer-авторизация,
// JSON-кодирование и сквозной X-Request-ID на каждый запрос.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// BaseURL возвращает базовый адрес сервиса (нужен websocket-клиенту).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token возвращает текущий access-токен сессии.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed without response",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %s %s: %v", ErrConnection, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response body: %v", ErrConnection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, raw)
		c.logger.Debug("request rejected",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.Int("status", resp.StatusCode),
			slog.String("error", apiErr.Text()),
		)
		return apiErr
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// parseAPIError разбирает тело ошибки. Структурированный JSON ищется по
// известным ключам; не-JSON тело целиком становится сообщением.
func parseAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return apiErr
	}

	var payload map[string]any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		apiErr.Message = string(trimmed)
		return apiErr
	}

	if code, ok := payload["code"].(string); ok {
		apiErr.Code = code
	}
	apiErr.Message = firstErrorString(payload, "message", "error", "title")
	apiErr.Detail = firstErrorString(payload, "detail", "details", "errors", "description")
	if apiErr.Message == "" && apiErr.Detail == "" {
		// Ничего знакомого: сохраняем тело как есть.
		apiErr.Message = string(trimmed)
	}
	return apiErr
}

func firstErrorString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := payload[key]
		if !ok {
			continue
		}
		if text := flattenErrorValue(value); text != "" {
			return text
		}
	}
	return ""
}

// flattenErrorValue сводит значение произвольной формы (строка, список
// ошибок, карта поле→сообщения) к одной строке.
func flattenErrorValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if text := flattenErrorValue(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(v))
		for _, key := range keys {
			if text := flattenErrorValue(v[key]); text != "" {
				parts = append(parts, key+": "+text)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
