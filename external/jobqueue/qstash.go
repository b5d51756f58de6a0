package jobqueue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/resilience"
	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errTransient = crerr.New("qstash transient failure")

type QStashConfig struct {
	HTTPClient       *http.Client
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.BreakerConfig
}

// QStash schedules delayed HTTP callbacks to this service's internal job
// endpoints. Callbacks carry the internal job token as a forwarded header.
type QStash struct {
	client           *http.Client
	baseURL          string
	token            string
	targetBaseURL    string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.Breaker
	circuitEnabled   bool
}

func NewQStash(cfg QStashConfig, logger *logging.Logger) *QStash {
	if logger == nil {
		logger = logging.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	return &QStash{
		client:           client,
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:            strings.TrimSpace(cfg.Token),
		targetBaseURL:    strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		retries:          max(cfg.Retries, 0),
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger,
		breaker:          resilience.NewBreaker(cfg.CircuitBreaker),
		circuitEnabled:   cfg.CircuitBreaker.Enabled,
	}
}

func (q *QStash) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "/" {
		return crerr.New("job path is required")
	}
	baseURL, err := validateHTTPBaseURL(q.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(q.targetBaseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	if q.circuitEnabled {
		if err := q.breaker.Allow(); err != nil {
			q.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "state", q.breaker.State())
			return fmt.Errorf("%w: job queue is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal job payload")
	}

	targetURL := targetBaseURL + path
	publishURL := baseURL + "/v2/publish/" + targetURL
	deduplicationID = strings.TrimSpace(deduplicationID)
	headers := q.headers(delay, deduplicationID)

	preview := curlPreview(publishURL, headers, truncateForLog(string(body), 2048))
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.target_url", targetURL),
			attribute.String("qstash.path", path),
			attribute.String("qstash.deduplication_id", deduplicationID),
		)
	}
	q.logger.DebugContext(ctx, "qstash publish request", "path", path, "target_url", targetURL, "curl_preview", preview)

	err = q.publish(ctx, publishURL, headers, body)
	if q.circuitEnabled {
		q.breaker.Record(err == nil || !crerr.Is(err, errTransient))
	}
	if err != nil {
		q.logger.WarnContext(ctx, "qstash publish failed", "path", path, "target_url", targetURL, "error", err)
		if crerr.Is(err, errTransient) {
			return fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return err
	}

	q.logger.InfoContext(ctx, "qstash job published", "path", path, "delay", normalizeDelay(delay), "deduplication_id", deduplicationID)
	return nil
}

type header struct {
	name   string
	value  string
	secret bool
}

func (q *QStash) headers(delay time.Duration, deduplicationID string) []header {
	out := []header{
		{name: "Authorization", value: "Bearer " + q.token, secret: true},
		{name: "Content-Type", value: "application/json"},
		{name: "Upstash-Method", value: http.MethodPost},
	}
	if q.retries > 0 {
		out = append(out, header{name: "Upstash-Retries", value: strconv.Itoa(q.retries)})
	}
	if delay > 0 {
		out = append(out, header{name: "Upstash-Delay", value: normalizeDelay(delay)})
	}
	if deduplicationID != "" {
		out = append(out, header{name: "Upstash-Deduplication-Id", value: deduplicationID})
	}
	if q.internalJobToken != "" {
		out = append(out, header{name: "Upstash-Forward-X-Internal-Job-Token", value: q.internalJobToken, secret: true})
	}
	return out
}

func (q *QStash) publish(ctx context.Context, publishURL string, headers []header, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, bytes.NewReader(body))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	for _, h := range headers {
		req.Header.Set(h.name, h.value)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return crerr.Wrapf(errTransient, "send qstash request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if isRetryableStatus(resp.StatusCode) {
		return crerr.Wrapf(errTransient, "qstash status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return crerr.Newf("qstash status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

func normalizeDelay(delay time.Duration) string {
	if delay <= 0 {
		return "0s"
	}
	return strconv.Itoa(int(delay.Round(time.Second).Seconds())) + "s"
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return strings.TrimRight(candidate, "/"), nil
}

// curlPreview renders the request for debug logs with secrets masked.
func curlPreview(publishURL string, headers []header, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -X POST ")
	_, _ = buf.WriteString(shellQuote(publishURL))
	for _, h := range headers {
		value := h.value
		if h.secret {
			value = "***"
			if h.name == "Authorization" {
				value = "Bearer ***"
			}
		}
		_, _ = buf.WriteString(" -H ")
		_, _ = buf.WriteString(shellQuote(h.name + ": " + value))
	}
	_, _ = buf.WriteString(" -d ")
	_, _ = buf.WriteString(shellQuote(body))
	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

func truncateForLog(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit] + "...(truncated)"
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}
