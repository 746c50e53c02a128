package api

import (
	"encoding/json"
	"fmt"
	mrand "math/rand"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/bgsim/pkg/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSMessage is a client request over the WebSocket channel. Type selects
// the operation; ID is echoed back so clients can pipeline requests.
type WSMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSResponse is the reply to one WSMessage.
type WSResponse struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// wsClient serializes writes to one connection through sendChan so the
// read loop never writes to the socket directly.
type wsClient struct {
	srv      *Server
	conn     *websocket.Conn
	sendChan chan WSResponse
	session  *Session
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

func (srv *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	client := &wsClient{
		srv:      srv,
		conn:     conn,
		sendChan: make(chan WSResponse, 256),
	}
	go client.writePump()
	client.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		if c.session != nil {
			c.srv.store.Delete(c.session.ID)
		}
		close(c.sendChan)
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.srv.logger.Debug("websocket read error", "err", err)
			}
			return
		}
		c.sendChan <- c.dispatch(msg)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case resp, ok := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(resp); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch executes one message against the connection's session. Every
// game-mutating type replies with the full state so clients never need a
// follow-up read.
func (c *wsClient) dispatch(msg WSMessage) WSResponse {
	fail := func(err error) WSResponse {
		return WSResponse{Type: "error", ID: msg.ID, Error: err.Error()}
	}

	switch msg.Type {
	case "create":
		var req NewGameRequest
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				return fail(err)
			}
		}
		sess, err := c.srv.store.Create(req)
		if err != nil {
			return fail(err)
		}
		if c.session != nil {
			c.srv.store.Delete(c.session.ID)
		}
		c.session = sess
		return c.stateResponse(msg.ID)

	case "ping":
		return WSResponse{Type: "pong", ID: msg.ID}
	}

	if c.session == nil {
		return fail(fmt.Errorf("no session: send a create message first"))
	}

	switch msg.Type {
	case "state":
		return c.stateResponse(msg.ID)

	case "legal":
		var actions []int
		c.session.Do(func(s *game.State, _ *mrand.Rand) error {
			if !s.Terminated() && !s.IsChanceNode() {
				actions = append([]int(nil), s.LegalActions()...)
			}
			return nil
		})
		return WSResponse{Type: "legal", ID: msg.ID, Payload: map[string][]int{"legal_actions": actions}}

	case "apply", "step":
		var req ActionRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fail(err)
		}
		err := c.session.Do(func(s *game.State, rng *mrand.Rand) error {
			if msg.Type == "step" {
				return s.Step(req.Action, rng)
			}
			return s.ApplyAction(req.Action)
		})
		if err != nil {
			return fail(err)
		}
		return c.stateResponse(msg.ID)

	case "roll":
		err := c.session.Do(func(s *game.State, rng *mrand.Rand) error {
			return s.SampleChance(rng)
		})
		if err != nil {
			return fail(err)
		}
		return c.stateResponse(msg.ID)

	case "reset":
		if err := c.session.Restart(); err != nil {
			return fail(err)
		}
		return c.stateResponse(msg.ID)
	}

	return fail(fmt.Errorf("unknown message type %q", msg.Type))
}

func (c *wsClient) stateResponse(id string) WSResponse {
	var resp StateResponse
	c.session.Do(func(s *game.State, _ *mrand.Rand) error {
		resp = snapshotState(c.session.ID, s)
		return nil
	})
	return WSResponse{Type: "state", ID: id, Payload: resp}
}
