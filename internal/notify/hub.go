// Package notify implements the notification and presence fan-out hub:
// a process-wide registry of player id -> live sockets, derived
// online/offline presence, and typed event delivery to friends.
//
// Presence only flips a player offline once the last socket for that
// player is gone — a player with two tabs open closing one must stay
// online.
package notify

import (
	"log"
	"sync"
)

// Socket is anything that can receive a notification frame; the
// websocket client wrapper in internal/server/websocket implements it.
type Socket interface {
	SendJSON(v any)
}

// Hub fans notification and presence events out to every socket a
// player currently has open.
type Hub struct {
	mu      sync.RWMutex
	sockets map[string]map[Socket]struct{}

	// FriendIDs resolves a player's accepted friends; backed by
	// internal/social, which is a thin reader over the external
	// friendship store.
	FriendIDs func(playerID string) ([]string, error)

	// CancelPendingRequests implements cancel-on-disconnect: deleting
	// the player's own PENDING GameRequest rows once their last socket
	// drops. Late-bound by the service wiring after both the hub and
	// the challenge service exist, since challenge.NewService itself
	// takes the hub as a dependency.
	CancelPendingRequests func(playerID string)
}

func NewHub(friendIDs func(string) ([]string, error)) *Hub {
	return &Hub{
		sockets:   make(map[string]map[Socket]struct{}),
		FriendIDs: friendIDs,
	}
}

// Connect attaches a socket for playerID and, if this is the player's
// first open socket, announces them online to friends.
func (h *Hub) Connect(playerID string, s Socket) {
	h.mu.Lock()
	set, ok := h.sockets[playerID]
	if !ok {
		set = make(map[Socket]struct{})
		h.sockets[playerID] = set
	}
	firstSocket := len(set) == 0
	set[s] = struct{}{}
	h.mu.Unlock()

	if firstSocket {
		h.broadcastOnlineStatus(playerID, true)
	}
}

// Disconnect detaches a socket and, only once no sockets remain for
// that player, announces them offline to friends.
func (h *Hub) Disconnect(playerID string, s Socket) {
	h.mu.Lock()
	set, ok := h.sockets[playerID]
	lastSocket := false
	if ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sockets, playerID)
			lastSocket = true
		}
	}
	h.mu.Unlock()

	if lastSocket {
		h.broadcastOnlineStatus(playerID, false)
		if h.CancelPendingRequests != nil {
			h.CancelPendingRequests(playerID)
		}
	}
}

// IsOnline reports whether a player currently has any open socket.
func (h *Hub) IsOnline(playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sockets[playerID]) > 0
}

// Send delivers msg to every live socket for playerID. Safe to call
// concurrently with Connect/Disconnect: a send racing a disconnect
// either reaches the socket or silently misses it, never panics.
func (h *Hub) Send(playerID string, msg any) {
	h.mu.RLock()
	sockets := make([]Socket, 0, len(h.sockets[playerID]))
	for s := range h.sockets[playerID] {
		sockets = append(sockets, s)
	}
	h.mu.RUnlock()

	for _, s := range sockets {
		s.SendJSON(msg)
	}
}

func (h *Hub) broadcastOnlineStatus(playerID string, online bool) {
	friends, err := h.FriendIDs(playerID)
	if err != nil {
		log.Printf("[HUB] failed to resolve friends for %s: %v", playerID, err)
		return
	}
	payload := Envelope(EventOnlineStatus, map[string]any{
		"player": playerID,
		"online": online,
	})
	for _, friendID := range friends {
		h.Send(friendID, payload)
	}
}

// Envelope wraps an event's fields in the {message:{type, ...}} shape
// used for the typed hub events listed below. Status-keyed control
// frames (such as matchmaking's "matched") are sent through Send
// as-is, without this envelope.
func Envelope(eventType string, fields map[string]any) map[string]any {
	msg := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		msg[k] = v
	}
	msg["type"] = eventType
	return map[string]any{"message": msg}
}

// Event kinds delivered through the hub, named so handlers don't
// sprinkle string literals across packages.
const (
	EventFriendRequest       = "friend_request"
	EventGameRequest         = "game_request"
	EventGameRequestResponse = "game_request_response"
	EventTournamentInvite    = "tournament"
	EventChatMessage         = "chat_message"
	EventOnlineStatus        = "online_status"
)
