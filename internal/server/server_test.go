package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"gameroom-server/internal/config"
	"gameroom-server/internal/engine"
	"gameroom-server/internal/history"
)

const testTimeout = 5 * time.Second

// envelope is a server frame with the payload left raw.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func testConfig() *config.Config {
	return &config.Config{
		Bind:              "127.0.0.1",
		Port:              3000,
		LogLevel:          "info",
		LogFormat:         "json",
		MatchTimeout:      10 * time.Second,
		InactivityTimeout: 20 * time.Second,
		SweepInterval:     30 * time.Second,
		AutoStartDelay:    2 * time.Second,
		MonitorDelay:      5 * time.Second,
		IdleTimeout:       5 * time.Minute,
		RateLimit:         20,
	}
}

// setupTestServer serves the full route table. configure may be nil.
func setupTestServer(t *testing.T, configure func(*config.Config), tune ...func(*engine.Options)) (*Server, *httptest.Server) {
	t.Helper()

	cfg := testConfig()
	if configure != nil {
		configure(cfg)
	}

	s, httpServer := NewServer(cfg, "test", history.NewMemory(0), zerolog.Nop(), tune...)
	ts := httptest.NewServer(httpServer.Handler)

	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
		ts.Close()
	})

	return s, ts
}

func fixedCode(code string) func(*engine.Options) {
	return func(o *engine.Options) {
		o.Codes = func() (string, error) { return code, nil }
	}
}

func wsURL(ts *httptest.Server, kind string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + kind
}

func dial(t *testing.T, ts *httptest.Server, kind string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(ts, kind), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })

	return conn
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	msg := ClientMessage{Type: msgType}
	if payload != nil {
		msg.Payload = mustMarshal(payload)
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, msg))
}

func read(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	var msg envelope
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

// readUntil skips frames until one of msgType arrives and decodes its payload
// into v when v is not nil.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string, v any) envelope {
	t.Helper()

	for {
		msg := read(t, conn)
		if msg.Type != msgType {
			continue
		}
		if v != nil {
			require.NoError(t, json.Unmarshal(msg.Payload, v))
		}
		return msg
	}
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}
