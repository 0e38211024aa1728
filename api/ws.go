package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/XapioBroke/aichessbot/engine"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsIdlePingInterval = 30 * time.Second

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Training upgrades to a websocket for training mode. The client sends
// "position" after every change and receives "threats"; "move" asks the
// connection's own engine for a reply. A second "move" while one is being
// computed is answered with a busy error.
func (s *Server) Training(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	t := &trainingConn{
		srv:  s,
		eng:  s.newSession(),
		send: make(chan []byte, 16),
	}
	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, t.send); err != nil {
			s.log.Debug().Err(err).Msg("websocket writer stopped")
		}
	}()
	defer close(t.send)

	t.sendJSON("hello", gin.H{"difficulties": []engine.Difficulty{engine.Novice, engine.Intermediate, engine.Advanced}})
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			cancel()
			t.inflight.Wait()
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			t.sendError(err)
			continue
		}
		t.handle(ctx, msg)
	}
}

type trainingConn struct {
	srv  *Server
	eng  *engine.Engine
	send chan []byte
	// in-flight move computations
	inflight sync.WaitGroup
}

func (t *trainingConn) handle(ctx context.Context, msg wsMessage) {
	switch msg.Type {
	case "position":
		var req threatsRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			t.sendError(err)
			return
		}
		p, err := req.build()
		if err != nil {
			t.sendError(err)
			return
		}
		defending := p.SideToMove()
		if req.Defending != nil {
			defending = *req.Defending
		}
		threats := engine.DetectThreats(p, defending)
		t.sendJSON("threats", threatsResponse{
			Defending: defending,
			Threats:   threats,
			Squares:   nonNil(engine.ThreatenedSquares(threats)),
		})
		if p.IsTerminal() {
			t.sendJSON("outcome", outcomeOf(p))
		}
	case "move":
		var req moveRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			t.sendError(err)
			return
		}
		p, err := req.build()
		if err != nil {
			t.sendError(err)
			return
		}
		if p.IsTerminal() {
			t.sendError(errTerminal)
			return
		}
		d, err := req.difficulty()
		if err != nil {
			t.sendError(err)
			return
		}
		t.inflight.Add(1)
		go func() {
			defer t.inflight.Done()
			m, err := t.eng.SelectMove(ctx, p, nil, d)
			if err != nil {
				t.sendError(err)
				return
			}
			san := p.SAN(m)
			p.MakeMove(m)
			t.sendJSON("move", moveResponse{
				Move:    m.String(),
				SAN:     san,
				FEN:     p.FEN(),
				Check:   p.InCheck(),
				Outcome: outcomeOf(p),
			})
		}()
	case "ping":
		t.sendJSON("pong", nil)
	default:
		t.sendJSON("error", gin.H{"error": "unknown message type " + msg.Type})
	}
}

func (t *trainingConn) sendError(err error) {
	t.sendJSON("error", gin.H{"error": err.Error(), "status": statusFor(err)})
}

func (t *trainingConn) sendJSON(kind string, payload any) {
	msg := wsMessage{Type: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return
		}
		msg.Payload = raw
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case t.send <- data:
	default:
		t.srv.log.Warn().Str("type", kind).Msg("websocket send buffer full, dropping message")
	}
}

func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
