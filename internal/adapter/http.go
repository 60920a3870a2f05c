package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/utils"
	"github.com/questlog-app/questlog/models"
)

type httpRemoteStore struct {
	client  *resty.Client
	baseURL string

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPRemoteStore constructs the HTTP/REST implementation of
// [RemoteStore]. It normalises and validates the base URL from
// adapterCfg.BaseURL and configures the underlying client with the
// resolved base URL and request timeout.
//
// Returns an error if adapterCfg.BaseURL is empty or cannot be parsed
// as a valid URL.
func NewHTTPRemoteStore(adapterCfg config.ClientAdapter, logger *logger.Logger) (RemoteStore, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter base url: %w", err)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	return &httpRemoteStore{client: client, baseURL: baseURL, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [RemoteStore]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent authenticated
// requests.
func (h *httpRemoteStore) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [RemoteStore]. It returns the bearer token currently
// held by the adapter, or an empty string if none has been set.
func (h *httpRemoteStore) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Register implements [RemoteStore]. It POSTs the credentials to
// POST /api/auth/register. On success the bearer token is extracted from
// the Authorization response header and stored via SetToken.
func (h *httpRemoteStore) Register(ctx context.Context, user models.User) (models.Token, error) {
	return h.authenticate(ctx, "/api/auth/register", user)
}

// Login implements [RemoteStore]. It POSTs the credentials to
// POST /api/auth/login. On success the bearer token is extracted from
// the Authorization response header and stored via SetToken.
func (h *httpRemoteStore) Login(ctx context.Context, user models.User) (models.Token, error) {
	return h.authenticate(ctx, "/api/auth/login", user)
}

func (h *httpRemoteStore) authenticate(ctx context.Context, path string, user models.User) (models.Token, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(user).
		Post(path)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: auth request: %w", ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Token{}, err
	}

	token, err := utils.ParseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return models.Token{}, fmt.Errorf("auth parse bearer token: %w", err)
	}
	userID, err := utils.ParseUserIDFromJWT(token)
	if err != nil {
		return models.Token{}, fmt.Errorf("auth parse user id: %w", err)
	}

	h.SetToken(token)
	return models.Token{SignedString: token, UserID: userID}, nil
}

// FetchSince implements [RemoteStore]. It GETs /api/records/{table},
// passing the optional since bound as an RFC 3339 query parameter, and
// decodes the returned record list.
func (h *httpRemoteStore) FetchSince(ctx context.Context, table string, since *time.Time) ([]models.Record, error) {
	req := h.authedRequest(ctx)
	if since != nil {
		req.SetQueryParam("since", since.UTC().Format(time.RFC3339Nano))
	}

	resp, err := req.Get("/api/records/" + url.PathEscape(table))
	if err != nil {
		return nil, fmt.Errorf("%w: fetch request: %w", ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var records []models.Record
	if err = json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, fmt.Errorf("decode fetch response: %w", err)
	}

	return records, nil
}

// Upsert implements [RemoteStore]. It PUTs the record to
// PUT /api/records/{table} and decodes the persisted row carrying the
// server-stamped UpdatedAt.
func (h *httpRemoteStore) Upsert(ctx context.Context, table string, rec models.Record) (models.Record, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rec).
		Put("/api/records/" + url.PathEscape(table))
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: upsert request: %w", ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Record{}, err
	}

	var persisted models.Record
	if err = json.Unmarshal(resp.Body(), &persisted); err != nil {
		return models.Record{}, fmt.Errorf("decode upsert response: %w", err)
	}

	return persisted, nil
}

// Delete implements [RemoteStore]. It DELETEs
// /api/records/{table}/{id}. An absent id is a success on the server, so
// a 2xx always means the deletion is durable; the response body reports
// whether a row was actually marked.
func (h *httpRemoteStore) Delete(ctx context.Context, table, id string) (bool, error) {
	resp, err := h.authedRequest(ctx).
		Delete("/api/records/" + url.PathEscape(table) + "/" + url.PathEscape(id))
	if err != nil {
		return false, fmt.Errorf("%w: delete request: %w", ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return false, err
	}

	var body models.DeleteResponse
	if err = json.Unmarshal(resp.Body(), &body); err != nil {
		return false, fmt.Errorf("decode delete response: %w", err)
	}

	return body.Deleted, nil
}

// Ping implements [RemoteStore]. It GETs the unauthenticated
// /api/ping endpoint; any failure is reported as [ErrUnavailable].
func (h *httpRemoteStore) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/ping")
	if err != nil {
		return fmt.Errorf("%w: ping request: %w", ErrUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: ping http %d", ErrUnavailable, resp.StatusCode())
	}

	return nil
}

func (h *httpRemoteStore) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}
