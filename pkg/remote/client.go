package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/shipquote-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/metrics"
	redisclient "github.com/angelmondragon/shipquote-backend/pkg/redis"
)

const (
	headerAuthorization = "Authorization"
	headerInstanceID    = "instanceId"
	headerContentType   = "Content-Type"

	tokenExchangePath = "/public/integrations/keys/access"

	responseBodyLogLimit int64 = 2048
)

var (
	errCredentialsRequired = errors.New("remote secret id and secret key are required")
	errLoggerRequired      = errors.New("remote client logger is required")
	errCacheRequired       = errors.New("remote client token cache is required")
)

// TokenCache is the bearer-token cache surface; the shared Redis
// client satisfies it.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	AccessTokenKey() string
}

// Client talks to the carrier quoting backend with centralized bearer
// auth, tenant identification, structured logging, and a single
// refresh-and-replay on authorization expiry.
type Client struct {
	httpClient *http.Client
	cfg        config.RemoteConfig
	cache      TokenCache
	tenantID   string
	logger     *logger.Logger
	metrics    *metrics.PipelineMetrics
	now        func() time.Time
}

// Response is the outcome of a successful remote call. Body holds the
// raw payload; IsJSON reports whether the upstream declared JSON, in
// which case Decode unmarshals it.
type Response struct {
	StatusCode int
	Body       []byte
	IsJSON     bool
}

// Decode unmarshals a JSON response body into v.
func (r *Response) Decode(v any) error {
	if r == nil {
		return errors.New("nil response")
	}
	if !r.IsJSON {
		return errors.New("response is not JSON")
	}
	return json.Unmarshal(r.Body, v)
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds the authenticated remote client.
func NewClient(cfg config.RemoteConfig, cache TokenCache, tenantID string, logg *logger.Logger, m *metrics.PipelineMetrics, opts ...Option) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if cache == nil {
		return nil, errCacheRequired
	}
	if strings.TrimSpace(cfg.SecretID) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errCredentialsRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		cache:      cache,
		tenantID:   tenantID,
		logger:     logg,
		metrics:    m,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// TenantID reports the tenant identifier sent with every request.
func (c *Client) TenantID() string {
	if c == nil {
		return ""
	}
	return c.tenantID
}

// DashboardURL builds the remote dashboard link embedding the current token.
func (c *Client) DashboardURL(ctx context.Context) string {
	token, err := c.AccessToken(ctx)
	if err != nil {
		token = ""
	}
	return fmt.Sprintf("%s/%s/dashboard?instance=%s", strings.TrimRight(c.cfg.DashboardURL, "/"), c.cfg.ClientID, token)
}

// Get performs an authenticated GET; the body map becomes query args.
func (c *Client) Get(ctx context.Context, rawURL string, query map[string]string) (*Response, error) {
	return c.request(ctx, http.MethodGet, rawURL, query, callOptions{})
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, rawURL string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPost, rawURL, body, callOptions{})
}

// Put performs an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, rawURL string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPut, rawURL, body, callOptions{})
}

type callOptions struct {
	omitAuth bool
	isRetry  bool
}

func (c *Client) request(ctx context.Context, method, rawURL string, body any, opts callOptions) (*Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "remote client not configured")
	}

	reqURL := rawURL
	var payload []byte
	if body != nil {
		if method == http.MethodGet {
			withQuery, err := appendQuery(rawURL, body)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build query args")
			}
			reqURL = withQuery
		} else {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
			}
			payload = encoded
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build remote request")
	}

	httpReq.Header.Set(headerContentType, "application/json")
	httpReq.Header.Set(headerInstanceID, c.tenantID)
	if !opts.omitAuth {
		token, err := c.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set(headerAuthorization, token)
	}

	c.log(ctx, "request", method, reqURL, map[string]any{"is_retry": opts.isRetry})

	start := c.now()
	resp, err := c.httpClient.Do(httpReq)
	c.metrics.ObserveRemoteDuration(method, c.now().Sub(start))
	if err != nil {
		// Transport failures are terminal; only auth expiry is replayed.
		c.log(ctx, "error", method, reqURL, map[string]any{"transport_error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteCall, err, "remote transport failure")
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log(ctx, "error", method, reqURL, map[string]any{"read_error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteCall, err, "read remote response")
	}

	if resp.StatusCode == http.StatusUnauthorized && !opts.isRetry {
		c.log(ctx, "info", method, reqURL, map[string]any{"retry": "refreshing expired token"})
		if _, err := c.refreshToken(ctx); err != nil {
			return nil, err
		}
		opts.isRetry = true
		return c.request(ctx, method, rawURL, body, opts)
	}

	if resp.StatusCode != http.StatusOK {
		c.log(ctx, "error", method, reqURL, map[string]any{
			"status": resp.StatusCode,
			"body":   truncate(responseBody),
		})
		return nil, pkgerrors.New(pkgerrors.CodeRemoteCall, fmt.Sprintf("remote call returned status %d", resp.StatusCode))
	}

	contentType := resp.Header.Get(headerContentType)
	isJSON := strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json")

	c.log(ctx, "response", method, reqURL, map[string]any{"status": resp.StatusCode, "json": isJSON})

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       responseBody,
		IsJSON:     isJSON,
	}, nil
}

// AccessToken returns the cached bearer token, minting a fresh one when
// the cache is empty or the decoded expiry (minus the skew margin) has
// passed. Decoding failures are logged and treated as expired.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	cached, err := c.cache.Get(ctx, c.cache.AccessTokenKey())
	if err != nil && !errors.Is(err, redisclient.Nil) {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read token cache")
	}

	if cached != "" && !c.tokenExpired(ctx, cached) {
		return cached, nil
	}

	return c.refreshToken(ctx)
}

func (c *Client) tokenExpired(ctx context.Context, token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		c.logger.Error(ctx, "access token exists but could not be decoded; assuming expired", err)
		return true
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		c.logger.Error(ctx, "access token has no usable expiry; assuming expired", err)
		return true
	}

	margin := c.cfg.TokenSkewMargin
	if margin <= 0 {
		margin = 5 * time.Minute
	}
	return !expiry.Time.Add(-margin).After(c.now())
}

func (c *Client) refreshToken(ctx context.Context) (string, error) {
	exchangeURL := strings.TrimRight(c.cfg.APIURL, "/") + tokenExchangePath
	resp, err := c.request(ctx, http.MethodPost, exchangeURL, map[string]string{
		"id":     c.cfg.SecretID,
		"secret": c.cfg.SecretKey,
	}, callOptions{omitAuth: true, isRetry: true})
	if err != nil {
		return "", err
	}

	var decoded struct {
		Token string `json:"token"`
	}
	if err := resp.Decode(&decoded); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeRemoteCall, err, "decode token exchange response")
	}
	if decoded.Token == "" {
		return "", pkgerrors.New(pkgerrors.CodeRemoteCall, "token exchange returned an empty token")
	}

	ttl := c.cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := c.cache.Set(ctx, c.cache.AccessTokenKey(), decoded.Token, ttl); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache access token")
	}

	c.metrics.IncTokenRefresh()
	c.logger.Info(ctx, "access token refreshed")
	return decoded.Token, nil
}

func (c *Client) log(ctx context.Context, phase, method, rawURL string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"phase":  phase,
		"method": method,
		"url":    redactURL(rawURL),
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, "remote call failed", nil)
	default:
		c.logger.Info(ctx, fmt.Sprintf("remote %s", phase))
	}
}

func appendQuery(rawURL string, body any) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	values := parsed.Query()
	switch args := body.(type) {
	case map[string]string:
		for k, v := range args {
			values.Set(k, v)
		}
	case url.Values:
		for k, list := range args {
			for _, v := range list {
				values.Add(k, v)
			}
		}
	default:
		return "", fmt.Errorf("unsupported GET body type %T", body)
	}
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}

func redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	values := parsed.Query()
	for key := range values {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "secret") || strings.Contains(lower, "token") || strings.Contains(lower, "instance") {
			values.Set(key, "[REDACTED]")
		}
	}
	parsed.RawQuery = values.Encode()
	return parsed.String()
}

func truncate(body []byte) string {
	if int64(len(body)) > responseBodyLogLimit {
		return string(body[:responseBodyLogLimit]) + "..."
	}
	return string(body)
}
