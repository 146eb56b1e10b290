package websocket

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

// outMessage is a queued frame awaiting delivery; binary frames carry
// a pongengine wire-format snapshot, text frames carry JSON control
// messages (game_start, game_over, notifications, matchmaking events).
type outMessage struct {
	data   []byte
	binary bool
}

// Client wraps one upgraded connection. A client is associated with
// exactly one logical channel at a time (notification feed,
// matchmaking queue, a specific match, a tournament bracket) via Kind
// and GameID, set by the handler that accepted the upgrade.
type Client struct {
	UserID string
	Kind   string // "notification" | "matchmaking" | "pong" | "tournament"
	GameID string // set when Kind == "pong"

	Conn *websocket.Conn
	Send chan outMessage
}

func NewClient(userID, kind, gameID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Kind:   kind,
		GameID: gameID,
		Conn:   conn,
		Send:   make(chan outMessage, 256),
	}
}

// SendJSON implements notify.Socket.
func (c *Client) SendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WS] marshal failed for %s: %v", c.UserID, err)
		return
	}
	select {
	case c.Send <- outMessage{data: data, binary: false}:
	default:
		log.Printf("[WS] send buffer full for %s, dropping message", c.UserID)
	}
}

// SendBinary queues a raw binary frame (a pongengine wire snapshot).
func (c *Client) SendBinary(data []byte) {
	select {
	case c.Send <- outMessage{data: data, binary: true}:
	default:
		log.Printf("[WS] send buffer full for %s, dropping frame", c.UserID)
	}
}

// ReadPump reads incoming frames until the connection closes,
// dispatching each frame's raw payload to handleMessage. The pong
// channel's wire protocol is plain text ("w"/"s"), not JSON, so
// decoding is left to the caller rather than done here. Always run on
// its own goroutine.
func (c *Client) ReadPump(onClose func(*Client), handleMessage func(*Client, []byte)) {
	defer func() {
		onClose(c)
		c.Conn.Close()
	}()

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		handleMessage(c, data)
	}
}

// WritePump drains Send to the socket. Always run on its own goroutine.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		wireType := websocket.TextMessage
		if message.binary {
			wireType = websocket.BinaryMessage
		}
		if err := c.Conn.WriteMessage(wireType, message.data); err != nil {
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
