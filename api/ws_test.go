package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/XapioBroke/aichessbot/engine"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func dialTraining(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/training"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, kind string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteJSON(wsMessage{Type: kind, Payload: raw}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// next reads messages until one of the given type arrives.
func next(t *testing.T, conn *websocket.Conn, kind string, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q: %v", kind, err)
		}
		if msg.Type != kind {
			continue
		}
		if v != nil {
			if err := json.Unmarshal(msg.Payload, v); err != nil {
				t.Fatalf("decode %q payload: %v", kind, err)
			}
		}
		return
	}
}

func TestTrainingPushesThreats(t *testing.T) {
	s, _ := newTestServer(t)
	conn := dialTraining(t, s)
	next(t, conn, "hello", nil)

	send(t, conn, "position", gin.H{"moves": []string{"e4", "d5"}, "defending": "white"})
	var resp struct {
		Squares []string `json:"squares"`
	}
	next(t, conn, "threats", &resp)
	if len(resp.Squares) != 1 || resp.Squares[0] != "e4" {
		t.Fatalf("expected e4 threatened, got %v", resp.Squares)
	}

	send(t, conn, "position", gin.H{"moves": []string{"f3", "e5", "g4", "Qh4#"}})
	var out outcomeDTO
	next(t, conn, "outcome", &out)
	if out.Result != "0-1" || out.Method != "checkmate" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestTrainingMoveAndErrors(t *testing.T) {
	s, _ := newTestServer(t)
	conn := dialTraining(t, s)

	send(t, conn, "move", gin.H{"moves": []string{"e4"}, "difficulty": "novice"})
	var mv moveResponse
	next(t, conn, "move", &mv)
	if mv.Move == "" || mv.FEN == "" {
		t.Fatalf("expected a reply move, got %+v", mv)
	}

	send(t, conn, "move", gin.H{"moves": []string{"e2e5"}})
	var e struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}
	next(t, conn, "error", &e)
	if e.Status != 400 {
		t.Fatalf("illegal move should report 400, got %+v", e)
	}

	send(t, conn, "move", gin.H{"moves": []string{"e4"}})
	next(t, conn, "error", &e)
	if e.Status != 400 || !strings.Contains(e.Error, "difficulty") {
		t.Fatalf("missing difficulty should report 400, got %+v", e)
	}
}

func TestTrainingRejectsSecondMoveWhileBusy(t *testing.T) {
	release := make(chan struct{})
	slow := evalFunc(func(ctx context.Context, fen string) (engine.LineEval, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return engine.LineEval{BestMove: "e7e5"}, nil
	})
	s, _ := newTestServer(t, engine.WithRemote(slow, true), engine.WithRemoteTimeout(5*time.Second))
	conn := dialTraining(t, s)

	req := gin.H{"moves": []string{"e4"}, "difficulty": "advanced"}
	send(t, conn, "move", req)
	time.Sleep(50 * time.Millisecond)
	send(t, conn, "move", req)

	var e struct {
		Status int `json:"status"`
	}
	next(t, conn, "error", &e)
	if e.Status != 409 {
		t.Fatalf("second request should be busy, got %+v", e)
	}
	close(release)

	var mv moveResponse
	next(t, conn, "move", &mv)
	if mv.Move != "e7e5" {
		t.Fatalf("expected the delegated move e7e5, got %+v", mv)
	}
}
