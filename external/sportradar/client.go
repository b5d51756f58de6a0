package sportradar

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/resilience"
	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	defaultHost        = "https://api.sportradar.com"
	defaultAccessLevel = "trial"
	apiVersion         = "v7"
	defaultLanguage    = "en"
	maxBodyBytes       = 8 << 20
)

var (
	apiKeyParamRegex = regexp.MustCompile(`api_key=[^&\s"']+`)
	errTransient     = crerr.New("sportradar transient failure")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	AccessLevel    string
	Language       string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.BreakerConfig
}

// Client fetches raw MLB documents. Callers own decoding.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.Breaker
	circuitEnabled bool
	flight         singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        resolveBaseURL(cfg),
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

// resolveBaseURL accepts a full versioned base or builds one from host, access level and language.
func resolveBaseURL(cfg ClientConfig) string {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if strings.Contains(base, "/mlb/") {
		return base
	}
	if base == "" {
		base = defaultHost
	}
	access := strings.TrimSpace(cfg.AccessLevel)
	if access == "" {
		access = defaultAccessLevel
	}
	lang := strings.TrimSpace(cfg.Language)
	if lang == "" {
		lang = defaultLanguage
	}
	return fmt.Sprintf("%s/mlb/%s/%s/%s", base, access, apiVersion, lang)
}

func (c *Client) FetchDailySchedule(ctx context.Context, day time.Time) ([]byte, error) {
	return c.getJSON(ctx, fmt.Sprintf("/games/%04d/%02d/%02d/schedule.json", day.Year(), int(day.Month()), day.Day()))
}

func (c *Client) FetchBoxscore(ctx context.Context, gameID string) ([]byte, error) {
	return c.gameDocument(ctx, gameID, "boxscore")
}

func (c *Client) FetchSummary(ctx context.Context, gameID string) ([]byte, error) {
	return c.gameDocument(ctx, gameID, "summary")
}

func (c *Client) FetchPlayByPlay(ctx context.Context, gameID string) ([]byte, error) {
	return c.gameDocument(ctx, gameID, "pbp")
}

func (c *Client) gameDocument(ctx context.Context, gameID, doc string) ([]byte, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("%w: game id is required", usecase.ErrInvalidInput)
	}
	return c.getJSON(ctx, "/games/"+url.PathEscape(gameID)+"/"+doc+".json")
}

func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sportradar circuit breaker rejected request", "state", c.breaker.State(), "path", path)
			return nil, fmt.Errorf("%w: sport data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	values.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + values.Encode()

	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			c.breaker.Record(!isCircuitFailure(reqErr))
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	if !sonic.Valid(raw) {
		return nil, fmt.Errorf("%w: %s is not valid json", usecase.ErrMalformedPayload, path)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Wrapf(errTransient, "send request: %s", sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Wrapf(errTransient, "read response body: %v", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: provider status=404", usecase.ErrNotFound)
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Wrapf(errTransient, "provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			default:
				lastErr = fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
				c.logger.WarnContext(ctx, "sportradar request rejected", "url", redactAPIURL(fullURL), "error", lastErr)
				return nil, lastErr
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "sportradar request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, lastErr)
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "api_key=REDACTED")
}

func isCircuitFailure(err error) bool {
	return err != nil && (crerr.Is(err, errTransient) || stderrors.Is(err, usecase.ErrDependencyUnavailable))
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return sanitizeSensitiveText(rawURL, "")
	}
	query := parsed.Query()
	if query.Has("api_key") {
		query.Set("api_key", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
