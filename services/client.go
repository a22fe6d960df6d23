package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/betesebbet/bingo-backend/game"
	"github.com/gorilla/websocket"
)

// Client is one player's WebSocket session inside a lobby.
type Client struct {
	playerID string
	conn     *websocket.Conn
	lobby    *Lobby
	sendCh   chan []byte
	closed   chan struct{}
	once     sync.Once
}

func newClient(playerID string, conn *websocket.Conn, lobby *Lobby) *Client {
	return &Client{
		playerID: playerID,
		conn:     conn,
		lobby:    lobby,
		sendCh:   make(chan []byte, 32),
		closed:   make(chan struct{}),
	}
}

// Close is idempotent; sendCh is never closed so a racing broadcast can
// never panic, the pumps exit through the closed signal instead.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

func (c *Client) send(b []byte) {
	select {
	case <-c.closed:
	case c.sendCh <- b:
	default:
		log.Printf("[Client %s] dropping message, slow consumer", c.playerID)
	}
}

func (c *Client) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("[Client %s] marshal: %v", c.playerID, err)
		return
	}
	c.send(b)
}

func (c *Client) sendError(msg string) {
	c.sendJSON(map[string]string{"type": "error", "message": msg})
}

// clientMessage is the intent envelope the presentation layer submits.
type clientMessage struct {
	Action   string `json:"action"`
	Mode     string `json:"mode,omitempty"`
	CardIDs  []int  `json:"card_ids,omitempty"`
	CardID   int    `json:"card_id,omitempty"`
	Number   int    `json:"number,omitempty"`
	Autoplay bool   `json:"autoplay,omitempty"`
}

// readPump consumes intents until the socket drops. Clients are thin: every
// action resolves against the authoritative round on this side.
func (c *Client) readPump() {
	defer c.lobby.removeClient(c)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Client %s] disconnected", c.playerID)
			} else {
				log.Printf("[Client %s] read error: %v", c.playerID, err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg clientMessage) {
	ctx := context.Background()

	switch msg.Action {
	case "join_round":
		mode, err := game.ParseMode(msg.Mode)
		if err != nil {
			c.sendError("unsupported mode")
			return
		}
		snap, err := c.lobby.JoinRound(ctx, c.playerID, mode, msg.CardIDs)
		if err != nil {
			c.sendError(joinErrorMessage(err))
			return
		}
		c.sendJSON(map[string]any{"type": "joined", "round": snap})

	case "mark":
		if err := c.lobby.Mark(c.playerID, msg.CardID, msg.Number); err != nil {
			c.sendError(err.Error())
		}

	case "autoplay":
		if err := c.lobby.SetAutoplay(c.playerID, msg.Autoplay); err != nil {
			c.sendError(err.Error())
		}

	case "bingo":
		res, err := c.lobby.DeclareBingo(ctx, c.playerID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.sendJSON(map[string]any{"type": "settled", "result": res})

	case "leave":
		res, err := c.lobby.LeaveRound(ctx, c.playerID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.sendJSON(map[string]any{"type": "settled", "result": res})

	default:
		log.Printf("[Client %s] unknown action %q", c.playerID, msg.Action)
		c.sendError("unknown action")
	}
}

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrInsufficientBalance):
		return "Insufficient balance for this stake."
	case errors.Is(err, game.ErrTooManyCards):
		return "Card limit for one session exceeded."
	case errors.Is(err, game.ErrRoundClosed):
		return "Round already started, join the next one."
	case errors.Is(err, game.ErrAlreadyJoined):
		return "You already joined this round."
	case errors.Is(err, ErrAlreadyInRound):
		return "Finish your current round before joining another."
	default:
		return err.Error()
	}
}

// writePump flushes queued messages to the socket until the client closes.
func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.sendCh:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[Client %s] write error: %v", c.playerID, err)
				return
			}
		}
	}
}
