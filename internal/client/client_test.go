package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/curbz/planeguess/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// mockServer sends one snapshot on connect and answers every guess with a
// guessResult and every other command with an error, echoing query options
// back through the snapshot tick.
func mockServer(t *testing.T) (*httptest.Server, chan protocol.Command) {
	t.Helper()
	got := make(chan protocol.Command, 8)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc, err := protocol.ParseEncoding(r.URL.Query().Get("encoding"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		mt := websocket.TextMessage
		if enc == protocol.MsgPack {
			mt = websocket.BinaryMessage
		}
		write := func(v any) {
			b, _ := protocol.Encode(enc, v)
			_ = conn.WriteMessage(mt, b)
		}

		var tick uint64
		if r.URL.Query().Get("acks") == "true" {
			tick = 1
		}
		write(protocol.Snapshot{
			ActivePlanes: map[string]protocol.PlaneView{"AAL1": {Altitude: 30000}},
			Scores:       map[string]int{},
			Tick:         tick,
		})

		for {
			rmt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			renc := protocol.JSON
			if rmt == websocket.BinaryMessage {
				renc = protocol.MsgPack
			}
			cmd, err := protocol.DecodeCommand(renc, data)
			if err != nil {
				continue
			}
			got <- cmd
			if cmd.Type == protocol.MsgGuess {
				write(protocol.NewGuessResult(cmd.PlaneID, false, 0, 0))
			} else {
				write(protocol.NewError(protocol.CodeNotRunning, "game not running"))
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts, got
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, ts *httptest.Server, opts Options) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, wsURL(ts), opts)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestReadSnapshot(t *testing.T) {
	ts, _ := mockServer(t)
	c := dial(t, ts, Options{})

	snap, err := c.ReadSnapshot()
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if _, ok := snap.ActivePlanes["AAL1"]; !ok || snap.Tick != 0 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestDialPassesOptions(t *testing.T) {
	ts, _ := mockServer(t)
	c := dial(t, ts, Options{Acks: true})

	snap, err := c.ReadSnapshot()
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if snap.Tick != 1 {
		t.Fatal("acks option did not reach the server")
	}
}

func TestCommandsAndAcks(t *testing.T) {
	tests := []struct {
		name string
		enc  protocol.Encoding
	}{
		{"json", protocol.JSON},
		{"msgpack", protocol.MsgPack},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts, got := mockServer(t)
			c := dial(t, ts, Options{Encoding: tc.enc})
			if _, err := c.ReadSnapshot(); err != nil {
				t.Fatalf("ReadSnapshot: %v", err)
			}

			if err := c.Guess("alice", "AAL1", "jfk"); err != nil {
				t.Fatalf("Guess: %v", err)
			}
			msg, err := c.Read()
			if err != nil || msg.Result == nil || msg.Result.PlaneID != "AAL1" {
				t.Fatalf("guess ack = %+v, %v", msg, err)
			}
			if cmd := <-got; cmd.Player != "alice" || cmd.Airport != "jfk" {
				t.Fatalf("server saw %+v", cmd)
			}

			if err := c.Toggle(); err != nil {
				t.Fatalf("Toggle: %v", err)
			}
			msg, err = c.Read()
			if err != nil || msg.Error == nil || msg.Error.Code != protocol.CodeNotRunning {
				t.Fatalf("toggle ack = %+v, %v", msg, err)
			}
			if cmd := <-got; cmd.Type != protocol.MsgToggleGameMode {
				t.Fatalf("server saw %+v", cmd)
			}
		})
	}
}

func TestStartStopCommands(t *testing.T) {
	ts, got := mockServer(t)
	c := dial(t, ts, Options{})
	_, _ = c.ReadSnapshot()

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for _, want := range []string{protocol.MsgStartGame, protocol.MsgStopGame} {
		select {
		case cmd := <-got:
			if cmd.Type != want {
				t.Fatalf("got %s, want %s", cmd.Type, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("%s never reached the server", want)
		}
	}
}

func TestProcessMessageRejectsUnknownType(t *testing.T) {
	c := &Client{enc: protocol.JSON}
	b, _ := json.Marshal(map[string]string{"type": "weather"})
	if _, err := c.processMessage(b); err == nil {
		t.Fatal("expected error for unknown frame type")
	}

	mp := &Client{enc: protocol.MsgPack}
	packed, _ := msgpack.Marshal(protocol.NewError(protocol.CodeInternal, "boom"))
	msg, err := mp.processMessage(packed)
	if err != nil || msg.Error == nil || msg.Error.Message != "boom" {
		t.Fatalf("msgpack error frame = %+v, %v", msg, err)
	}
}
