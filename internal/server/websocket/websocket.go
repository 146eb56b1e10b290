// Package websocket is the WS upgrade gate: upgrades authenticated
// HTTP connections onto one of four logical channels (notification
// feed, matchmaking queue, a live match, a tournament bracket) and
// adapts the gorilla/websocket connection to the Broadcaster/Socket
// interfaces the game and notification layers depend on.
//
// Authentication rides the same cookie-based access token the HTTP
// API uses, so a socket and its owning session always agree on who
// is logged in.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"pong-platform/backend/internal/auth"
	"pong-platform/backend/internal/gamesession"
	"pong-platform/backend/internal/notify"
	"pong-platform/backend/internal/pongengine"
	"pong-platform/backend/internal/server/matchmaking"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var AllowedOrigins = getAllowedOrigins()

func getAllowedOrigins() []string {
	originsEnv := os.Getenv("ALLOWED_ORIGINS")
	if originsEnv == "" {
		log.Println("[SECURITY] WARNING: ALLOWED_ORIGINS not set, defaulting to localhost:3000")
		return []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		}
	}

	origins := strings.Split(originsEnv, ",")
	trimmed := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed = append(trimmed, strings.TrimSpace(origin))
	}

	log.Printf("[SECURITY] Allowed WebSocket origins: %v", trimmed)
	return trimmed
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	if origin == "" {
		log.Printf("[SECURITY] Rejected WebSocket connection: missing Origin header from %s", r.RemoteAddr)
		return false
	}

	for _, allowed := range AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	log.Printf("[SECURITY] Rejected WebSocket connection from unauthorized origin: %s (remote: %s)", origin, r.RemoteAddr)
	return false
}

var Upgrader = websocket.Upgrader{
	CheckOrigin: checkOrigin,
}

// Gateway owns every live socket and adapts them to Broadcaster/Socket.
type Gateway struct {
	hub      *notify.Hub
	sessions *gamesession.Registry
	matcher  *matchmaking.Matcher

	mu          sync.RWMutex
	gameClients map[string][]*Client // gameID -> sockets watching that match
}

func NewGateway(hub *notify.Hub, sessions *gamesession.Registry) *Gateway {
	return &Gateway{
		hub:         hub,
		sessions:    sessions,
		gameClients: make(map[string][]*Client),
	}
}

// SetMatcher late-binds the quick-play matcher once it exists; the
// matchmaking socket route needs it, but the matcher itself is
// constructed with this Gateway as its Broadcaster, so it can't be
// passed into NewGateway.
func (g *Gateway) SetMatcher(m *matchmaking.Matcher) {
	g.matcher = m
}

// SendFrame implements gamesession.Broadcaster: push a binary pongengine
// snapshot to every socket watching gameID.
func (g *Gateway) SendFrame(gameID string, frame []byte) {
	for _, c := range g.clientsFor(gameID) {
		c.SendBinary(frame)
	}
}

// SendControl implements gamesession.Broadcaster: push a JSON control
// message to every socket watching gameID, or just playerID's socket
// if playerID is non-empty.
func (g *Gateway) SendControl(gameID, playerID string, msg any) {
	for _, c := range g.clientsFor(gameID) {
		if playerID == "" || c.UserID == playerID {
			c.SendJSON(msg)
		}
	}
}

func (g *Gateway) clientsFor(gameID string) []*Client {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Client, len(g.gameClients[gameID]))
	copy(out, g.gameClients[gameID])
	return out
}

func (g *Gateway) attachToGame(gameID string, c *Client) {
	g.mu.Lock()
	g.gameClients[gameID] = append(g.gameClients[gameID], c)
	g.mu.Unlock()
}

func (g *Gateway) detachFromGame(gameID string, c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	clients := g.gameClients[gameID]
	for i, existing := range clients {
		if existing == c {
			g.gameClients[gameID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(g.gameClients[gameID]) == 0 {
		delete(g.gameClients, gameID)
	}
}

func upgrade(c *gin.Context) (*websocket.Conn, bool) {
	conn, err := Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return nil, false
	}
	return conn, true
}

// HandleNotification upgrades a socket onto the player's notification
// feed: friend requests, challenge responses, match-found and
// tournament-bracket events, plus presence fan-out.
func (g *Gateway) HandleNotification(c *gin.Context) {
	userID := c.GetString("user_id")
	conn, ok := upgrade(c)
	if !ok {
		return
	}

	client := NewClient(userID, "notification", "", conn)
	g.hub.Connect(userID, client)

	go client.WritePump()
	client.ReadPump(func(cl *Client) {
		g.hub.Disconnect(userID, cl)
	}, func(cl *Client, data []byte) {})
}

// HandleMatchmaking upgrades a socket onto the quick-play queue:
// opening the socket enqueues the player, a {"action":
// "cancel_matchmaking"} text frame withdraws them, and closing the
// socket withdraws them implicitly so a player who just vanishes
// doesn't camp the queue forever.
func (g *Gateway) HandleMatchmaking(c *gin.Context) {
	userID := c.GetString("user_id")
	conn, ok := upgrade(c)
	if !ok {
		return
	}

	if g.matcher != nil {
		if err := g.matcher.Enqueue(c.Request.Context(), userID); err != nil {
			closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
			conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
			conn.Close()
			return
		}
	}

	client := NewClient(userID, "matchmaking", "", conn)
	g.hub.Connect(userID, client)

	go client.WritePump()
	client.ReadPump(func(cl *Client) {
		g.hub.Disconnect(userID, cl)
		if g.matcher != nil {
			g.matcher.Cancel(userID)
		}
	}, func(cl *Client, data []byte) {
		var msg struct {
			Action string `json:"action"`
		}
		if err := json.Unmarshal(data, &msg); err != nil || msg.Action != "cancel_matchmaking" {
			return
		}
		if g.matcher == nil {
			return
		}
		if err := g.matcher.Cancel(userID); err == nil {
			cl.SendJSON(map[string]any{"status": "cancelled", "message": "removed from matchmaking queue"})
		}
	})
}

// HandlePong upgrades a socket onto a live match: binary state frames
// flow out, and the only inbound payload is the literal text "w" or
// "s" naming a paddle direction; anything else is ignored. Attaching
// the socket to its session is what releases the match from
// AWAITING_BOTH into RUNNING once both players have joined.
func (g *Gateway) HandlePong(c *gin.Context, gameID string) {
	userID := c.GetString("user_id")

	session, ok := g.sessions.Get(gameID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found or already finished"})
		return
	}

	conn, ok := upgrade(c)
	if !ok {
		return
	}

	client := NewClient(userID, "pong", gameID, conn)
	g.attachToGame(gameID, client)
	session.Attach(userID)

	go client.WritePump()
	client.ReadPump(func(cl *Client) {
		g.detachFromGame(gameID, cl)
		session.Disconnect(c.Request.Context(), userID)
	}, func(cl *Client, data []byte) {
		dir, ok := directionFromText(data)
		if !ok {
			return
		}
		session.Input(gamesession.Input{PlayerID: userID, Dir: dir})
	})
}

// HandleTournament upgrades a socket and registers it with the
// notification hub, so it receives the same hub events as the
// notification feed (including the tournament creation notice). The
// tournament service sends no further events on bracket advance.
func (g *Gateway) HandleTournament(c *gin.Context) {
	userID := c.GetString("user_id")
	conn, ok := upgrade(c)
	if !ok {
		return
	}

	client := NewClient(userID, "tournament", "", conn)
	g.hub.Connect(userID, client)

	go client.WritePump()
	client.ReadPump(func(cl *Client) {
		g.hub.Disconnect(userID, cl)
	}, func(cl *Client, data []byte) {})
}

func directionFromText(data []byte) (pongengine.Direction, bool) {
	switch string(data) {
	case "w":
		return pongengine.DirectionUp, true
	case "s":
		return pongengine.DirectionDown, true
	default:
		return pongengine.DirectionNone, false
	}
}

// AuthGate validates the access cookie (without rotating the refresh
// cookie, unlike the HTTP API's GinMiddleware) and then applies
// RequireAuth, so an unauthenticated client is rejected with a plain
// 401 before the HTTP upgrade ever happens, rather than after
// establishing a socket.
func AuthGate(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if access, err := c.Cookie(auth.AccessCookieName); err == nil {
			if userID, err := authService.ValidateAccess(access); err == nil {
				c.Set("user_id", userID)
			}
		}
		auth.RequireAuth()(c)
	}
}
