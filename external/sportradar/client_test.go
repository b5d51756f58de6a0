package sportradar

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/resilience"
	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker resilience.BreakerConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL + "/mlb/trial/v7/en",
		APIKey:         "secret-key",
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func TestClient_Paths(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		paths []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "secret-key" {
			t.Errorf("missing api key on %s", r.URL.Path)
		}
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"game":{}}`))
	}, resilience.BreakerConfig{})
	ctx := t.Context()

	if _, err := client.FetchDailySchedule(ctx, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := client.FetchBoxscore(ctx, "g1"); err != nil {
		t.Fatalf("boxscore: %v", err)
	}
	if _, err := client.FetchSummary(ctx, "g1"); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if _, err := client.FetchPlayByPlay(ctx, "g1"); err != nil {
		t.Fatalf("pbp: %v", err)
	}

	want := []string{
		"/mlb/trial/v7/en/games/2025/07/04/schedule.json",
		"/mlb/trial/v7/en/games/g1/boxscore.json",
		"/mlb/trial/v7/en/games/g1/summary.json",
		"/mlb/trial/v7/en/games/g1/pbp.json",
	}
	mu.Lock()
	defer mu.Unlock()
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected paths:\n%v\nwant\n%v", paths, want)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"message":"no game"}`, wantErr: usecase.ErrNotFound},
		{name: "server error", status: http.StatusBadGateway, body: `upstream`, wantErr: usecase.ErrDependencyUnavailable},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `slow down`, wantErr: usecase.ErrDependencyUnavailable},
		{name: "invalid json", status: http.StatusOK, body: `<html>`, wantErr: usecase.ErrMalformedPayload},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, resilience.BreakerConfig{})

			_, err := client.FetchBoxscore(t.Context(), "g1")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if strings.Contains(err.Error(), "secret-key") {
				t.Fatalf("api key leaked into error: %v", err)
			}
		})
	}
}

func TestClient_BlankGameID(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Errorf("no request expected")
	}, resilience.BreakerConfig{})

	if _, err := client.FetchBoxscore(t.Context(), " "); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestClient_CircuitBreakerOpensAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, resilience.BreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute, HalfOpenProbes: 1})

	for range 2 {
		if _, err := client.FetchBoxscore(t.Context(), "g1"); err == nil {
			t.Fatalf("expected upstream failure")
		}
	}
	_, err := client.FetchBoxscore(t.Context(), "g1")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected breaker rejection, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected breaker to stop upstream calls, got %d hits", got)
	}
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, resilience.BreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenProbes: 1})

	for range 3 {
		if _, err := client.FetchBoxscore(t.Context(), "g1"); !errors.Is(err, usecase.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected every call to reach upstream, got %d", got)
	}
}

func TestRedaction(t *testing.T) {
	t.Parallel()

	got := redactAPIURL("https://api.sportradar.com/mlb/trial/v7/en/games/g1/pbp.json?api_key=abc123")
	if strings.Contains(got, "abc123") || !strings.Contains(got, "api_key=REDACTED") {
		t.Fatalf("unexpected redacted url: %s", got)
	}
	if got := sanitizeSensitiveText(`Get "https://x/y?api_key=abc123": timeout`, "abc123"); strings.Contains(got, "abc123") {
		t.Fatalf("unexpected sanitized text: %s", got)
	}
}

func TestResolveBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cfg  ClientConfig
		want string
	}{
		{cfg: ClientConfig{}, want: "https://api.sportradar.com/mlb/trial/v7/en"},
		{cfg: ClientConfig{AccessLevel: "production", Language: "es"}, want: "https://api.sportradar.com/mlb/production/v7/es"},
		{cfg: ClientConfig{BaseURL: "http://localhost:9000/mlb/trial/v7/en/"}, want: "http://localhost:9000/mlb/trial/v7/en"},
	}
	for _, tc := range tests {
		if got := resolveBaseURL(tc.cfg); got != tc.want {
			t.Fatalf("resolveBaseURL(%+v) = %s, want %s", tc.cfg, got, tc.want)
		}
	}
}
