package reddit

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/reminder"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

const (
	defaultBaseURL   = "https://oauth.reddit.com"
	defaultUserAgent = "mlb-scorecard/1.0"
	composePath      = "/api/compose"
	maxSubjectLen    = 100
)

var errTransient = crerr.New("reddit transient failure")

type ClientConfig struct {
	BaseURL     string
	AccessToken string
	UserAgent   string
	Timeout     time.Duration
	// Dial overrides the transport dialer; tests use an in-memory listener.
	Dial fasthttp.DialFunc
}

// Client sends private messages through the Reddit API.
type Client struct {
	http      *fasthttp.Client
	baseURL   string
	token     string
	userAgent string
	timeout   time.Duration
	logger    *logging.Logger
}

func NewClient(cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		http: &fasthttp.Client{
			Name:                userAgent,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
			Dial:                cfg.Dial,
		},
		baseURL:   baseURL,
		token:     strings.TrimSpace(cfg.AccessToken),
		userAgent: userAgent,
		timeout:   timeout,
		logger:    logger,
	}
}

// Notify delivers a reminder as a private message.
func (c *Client) Notify(ctx context.Context, n reminder.Notification) error {
	return c.SendPrivateMessage(ctx, n.Username, n.Subject, n.Body)
}

func (c *Client) SendPrivateMessage(ctx context.Context, username, subject, text string) error {
	username = strings.TrimPrefix(strings.TrimSpace(username), "u/")
	if username == "" {
		return fmt.Errorf("%w: recipient is required", usecase.ErrInvalidInput)
	}
	if len(subject) > maxSubjectLen {
		subject = subject[:maxSubjectLen]
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + composePath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.Header.SetUserAgent(c.userAgent)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.token)

	body := bytebufferpool.Get()
	defer bytebufferpool.Put(body)
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("api_type", "json")
	args.Set("to", username)
	args.Set("subject", subject)
	args.Set("text", text)
	body.B = args.AppendBytes(body.B[:0])
	req.SetBody(body.B)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return crerr.Wrapf(errTransient, "send private message to=%s: %v", username, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		err := fmt.Errorf("reddit compose status=%d body=%s", status, abbreviate(resp.Body()))
		if status == fasthttp.StatusTooManyRequests || status >= fasthttp.StatusInternalServerError {
			err = crerr.Wrapf(errTransient, "reddit compose status=%d", status)
		}
		return err
	}
	if err := composeErrors(resp.Body()); err != nil {
		return fmt.Errorf("reddit compose to=%s: %w", username, err)
	}

	c.logger.DebugContext(ctx, "reddit private message sent", "to", username)
	return nil
}

type composeResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
	} `json:"json"`
}

// composeErrors reads the api_type=json error list; an empty or unparseable body is success.
func composeErrors(raw []byte) error {
	var resp composeResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil || len(resp.JSON.Errors) == 0 {
		return nil
	}
	parts := make([]string, 0, len(resp.JSON.Errors))
	for _, e := range resp.JSON.Errors {
		fields := make([]string, 0, len(e))
		for _, f := range e {
			if s, ok := f.(string); ok && s != "" {
				fields = append(fields, s)
			}
		}
		parts = append(parts, strings.Join(fields, ": "))
	}
	return crerr.Newf("api errors: %s", strings.Join(parts, "; "))
}

func abbreviate(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 200 {
		return text
	}
	return text[:200] + "..."
}

// LogNotifier stands in for Reddit when messaging is disabled.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg reminder.Notification) error {
	n.logger.InfoContext(ctx, "reminder notification (messaging disabled)",
		"to", msg.Username,
		"subject", msg.Subject,
	)
	return nil
}
