package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired - access-токен отклонен, а обновление не удалось. Сессия уже очищена.
var ErrSessionExpired = errors.New("session expired")

type ClientConfig struct {
	BaseURL         string
	RefreshEndpoint string
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// transport - общий HTTP-слой всех клиентов API: bearer-токен,
// одна попытка обновления на 401 и разбор ошибок.
type transport struct {
	baseURL         string
	refreshEndpoint string
	client          *http.Client
	store           session.Store
	refreshes       singleflight.Group
	logger          zerolog.Logger
}

func newTransport(cfg ClientConfig, store session.Store, logger zerolog.Logger) *transport {
	if cfg.RefreshEndpoint == "" {
		cfg.RefreshEndpoint = "/auth/token/refresh/"
	}

	return &transport{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		refreshEndpoint: cfg.RefreshEndpoint,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    cfg.MaxIdleConns,
				IdleConnTimeout: cfg.IdleConnTimeout,
			},
		},
		store:  store,
		logger: logger,
	}
}

// apiRequest собирается один раз; тело хранится байтами, чтобы повторить запрос после refresh.
type apiRequest struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func newRequest(method, path string) *apiRequest {
	return &apiRequest{method: method, path: path}
}

func (r *apiRequest) withQuery(q url.Values) *apiRequest {
	r.query = q
	return r
}

func (r *apiRequest) withJSON(payload interface{}) (*apiRequest, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	r.body = body
	r.contentType = "application/json"
	return r, nil
}

// formField - одно поле multipart-формы; File задан для файловых частей.
type formField struct {
	Name  string
	Value string
	File  *models.FileUpload
}

func (r *apiRequest) withMultipart(fields []formField) (*apiRequest, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range fields {
		if f.File != nil {
			part, err := writer.CreateFormFile(f.Name, f.File.FileName)
			if err != nil {
				return nil, fmt.Errorf("failed to create form file: %w", err)
			}
			if _, err := io.Copy(part, f.File.Content); err != nil {
				return nil, fmt.Errorf("failed to copy file content: %w", err)
			}
			continue
		}
		if err := writer.WriteField(f.Name, f.Value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", f.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	r.body = buf.Bytes()
	r.contentType = writer.FormDataContentType()
	return r, nil
}

func (t *transport) do(ctx context.Context, sess *session.Session, req *apiRequest, out interface{}) error {
	status, body, err := t.send(ctx, sess, req)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && sess != nil {
		if err := t.refresh(ctx, sess); err != nil {
			t.logger.Warn().Err(err).Str("path", req.path).Msg("Token refresh failed")
			t.expire(ctx, sess)
			return ErrSessionExpired
		}

		status, body, err = t.send(ctx, sess, req)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			t.expire(ctx, sess)
			return ErrSessionExpired
		}
	}

	if status < 200 || status >= 300 {
		return newAPIError(status, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.path, err)
	}

	return nil
}

func (t *transport) send(ctx context.Context, sess *session.Session, r *apiRequest) (int, []byte, error) {
	target := t.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if sess != nil && sess.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to call %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	t.logger.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API call")

	return resp.StatusCode, data, nil
}

// refresh делает ровно одну попытку обновить access-токен. Параллельные запросы
// одной сессии ждут общий результат.
func (t *transport) refresh(ctx context.Context, sess *session.Session) error {
	if sess.RefreshToken == "" {
		return errors.New("no refresh token")
	}

	v, err, _ := t.refreshes.Do(sess.ID, func() (interface{}, error) {
		req, err := newRequest(http.MethodPost, t.refreshEndpoint).
			withJSON(models.RefreshRequest{Refresh: sess.RefreshToken})
		if err != nil {
			return nil, err
		}

		status, body, err := t.send(ctx, nil, req)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, newAPIError(status, body)
		}

		var tokens models.RefreshResponse
		if err := json.Unmarshal(body, &tokens); err != nil {
			return nil, fmt.Errorf("failed to decode refresh response: %w", err)
		}
		if tokens.Access == "" {
			return nil, errors.New("refresh response has no access token")
		}

		updated := sess.Clone()
		updated.AccessToken = tokens.Access
		if tokens.Refresh != "" {
			updated.RefreshToken = tokens.Refresh
			updated.ExpiresAt = session.ExpiryFromToken(tokens.Refresh, updated.ExpiresAt)
		}
		if err := t.store.Save(ctx, updated); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}

		return tokens, nil
	})
	if err != nil {
		return err
	}

	tokens := v.(models.RefreshResponse)
	sess.AccessToken = tokens.Access
	if tokens.Refresh != "" {
		sess.RefreshToken = tokens.Refresh
		sess.ExpiresAt = session.ExpiryFromToken(tokens.Refresh, sess.ExpiresAt)
	}

	t.logger.Debug().Str("session_id", sess.ID).Msg("Access token refreshed")
	return nil
}

func (t *transport) expire(ctx context.Context, sess *session.Session) {
	if err := t.store.Clear(ctx, sess.ID); err != nil {
		t.logger.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to clear expired session")
	}

	sess.AccessToken = ""
	sess.RefreshToken = ""
	sess.User = nil
}

// decodeList принимает и голый массив, и страницу вида {"results": [...]}.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return items, nil
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to decode paginated list: %w", err)
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return page.Results, nil
}

func listOf[T any](ctx context.Context, t *transport, sess *session.Session, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := t.do(ctx, sess, newRequest(http.MethodGet, path).withQuery(query), &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}
