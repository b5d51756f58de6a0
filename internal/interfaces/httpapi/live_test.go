package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/live"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/playbyplay"
	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
)

func dialLive(t *testing.T, server *httptest.Server, gameID string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/games/" + gameID + "/live"
	return websocket.DefaultDialer.Dial(url, header)
}

func readLiveMessage(t *testing.T, conn *websocket.Conn) live.Message {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read live message: %v", err)
	}
	var msg live.Message
	if err := sonic.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("unmarshal live message: %v", err)
	}
	return msg
}

func TestLiveGame_SendsCurrentThenUpdates(t *testing.T) {
	follower := &fakeLive{
		current: live.Message{Game: game.Info{ID: "g1", Status: game.StatusInProgress}},
		updates: []live.Message{{
			Game:           game.Info{ID: "g1", Status: game.StatusInProgress},
			PlayByPlayData: []playbyplay.HalfInning{{TeamName: "Cubs", Inning: 1, Half: "T", Plays: []string{"Single to left"}}},
		}},
	}
	server := httptest.NewServer(newTestRouter(Services{Live: follower}, ""))
	defer server.Close()

	conn, _, err := dialLive(t, server, "g1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readLiveMessage(t, conn)
	if first.Game.ID != "g1" || len(first.PlayByPlayData) != 0 {
		t.Fatalf("unexpected current message: %+v", first)
	}

	update := readLiveMessage(t, conn)
	if len(update.PlayByPlayData) != 1 || update.PlayByPlayData[0].Plays[0] != "Single to left" {
		t.Fatalf("unexpected update: %+v", update)
	}
}

func TestLiveGame_SnapshotErrorAnswersBeforeUpgrade(t *testing.T) {
	follower := &fakeLive{err: fmt.Errorf("g404: %w", usecase.ErrNotFound)}
	server := httptest.NewServer(newTestRouter(Services{Live: follower}, ""))
	defer server.Close()

	_, resp, err := dialLive(t, server, "g404", nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
}

func TestLiveUpgrader_CheckOrigin(t *testing.T) {
	upgrader := newLiveUpgrader([]string{"https://scorecard.example.com"})

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "https://scorecard.example.com", want: true},
		{origin: "https://evil.example.com", want: false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/games/g1/live", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := upgrader.CheckOrigin(req); got != tt.want {
			t.Fatalf("CheckOrigin(%q)=%v want=%v", tt.origin, got, tt.want)
		}
	}

	if !newLiveUpgrader([]string{"*"}).CheckOrigin(httptest.NewRequest(http.MethodGet, "/", nil)) {
		t.Fatalf("expected wildcard upgrader to allow requests")
	}
}
