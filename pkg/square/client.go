// Package square is the thin Square wrapper used to refund booking deposits.
package square

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sqclient "github.com/square/square-go-sdk/client"
	sqoption "github.com/square/square-go-sdk/option"
	"golang.org/x/time/rate"

	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired = errors.New("square access token is required")
	errLoggerRequired      = errors.New("square logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

type Client struct {
	sdk         *sqclient.Client
	environment string
	limiter     *rate.Limiter
	logger      *logger.Logger
}

func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	baseURL := baseURLs[env]
	if override := strings.TrimSpace(cfg.BaseURL); override != "" {
		baseURL = override
	}
	opts := []sqoption.RequestOption{sqoption.WithBaseURL(baseURL), sqoption.WithToken(token)}
	if cfg.Timeout > 0 {
		opts = append(opts, sqoption.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"square_env":      env,
		"square_base_url": baseURL,
	}), "square client initialized")

	return &Client{
		sdk:         sqclient.NewClient(opts...),
		environment: env,
		limiter:     newLimiter(cfg.RequestsPerS),
		logger:      logg,
	}, nil
}

// newLimiter allows bursts up to one second's worth of requests.
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
}

func normalizeEnv(raw string) (string, error) {
	env := strings.ToLower(strings.TrimSpace(raw))
	if env == "" {
		return sandboxEnv, nil
	}
	if _, ok := baseURLs[env]; !ok {
		return "", fmt.Errorf("square environment must be %q or %q, got %q", sandboxEnv, productionEnv, raw)
	}
	return env, nil
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "square request throttled").
			WithDetails(map[string]any{"retryable": !errors.Is(err, context.Canceled)})
	}
	return nil
}

var sensitiveKeys = []string{"card", "token", "secret", "email", "phone"}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return "[REDACTED]"
		}
	}
	return value
}

// trace logs one gateway call. A non-nil err is logged at error level.
func (c *Client) trace(ctx context.Context, op string, fields map[string]any, err error) {
	if c == nil || c.logger == nil {
		return
	}
	safe := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		safe[k] = redact(k, v)
	}
	safe["operation"] = op
	ctx = c.logger.WithFields(ctx, safe)
	if err != nil {
		c.logger.Error(ctx, "square "+op+" failed", err)
		return
	}
	c.logger.Info(ctx, "square "+op)
}
