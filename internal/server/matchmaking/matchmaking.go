// Package matchmaking implements the quick-play queue: a FIFO of
// waiting players, paired two at a time into a new PongGame. The
// pop-two-and-create step is the critical section that must be
// serialized so the same player is never paired twice; it is guarded
// by the Redis SETNX distributed lock in internal/locks, under a
// single well-known "matchmaking-queue" key.
package matchmaking

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"pong-platform/backend/internal/gamesession"
	"pong-platform/backend/internal/locks"
	"pong-platform/backend/internal/models"
	"pong-platform/backend/internal/notify"
	"pong-platform/backend/internal/social"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAlreadyQueued = errors.New("already in matchmaking queue")
	ErrAlreadyInGame = errors.New("already in an active game")
	ErrNotQueued     = errors.New("not currently queued")
)

// Matcher owns the in-memory FIFO and the services needed to stand up
// a match once two players are paired.
type Matcher struct {
	db       *gorm.DB
	locks    *locks.LockManager
	sessions *gamesession.Registry
	hub      *notify.Hub
	bc       gamesession.Broadcaster
	social   *social.Store

	mu    sync.Mutex
	queue []string
}

func NewMatcher(db *gorm.DB, lockMgr *locks.LockManager, sessions *gamesession.Registry, hub *notify.Hub, bc gamesession.Broadcaster, social *social.Store) *Matcher {
	return &Matcher{
		db:       db,
		locks:    lockMgr,
		sessions: sessions,
		hub:      hub,
		bc:       bc,
		social:   social,
	}
}

// Enqueue adds a player to the queue and attempts an immediate match.
func (m *Matcher) Enqueue(ctx context.Context, playerID string) error {
	if inGame, err := m.hasActiveGame(playerID); err != nil {
		return err
	} else if inGame {
		return ErrAlreadyInGame
	}

	m.mu.Lock()
	for _, id := range m.queue {
		if id == playerID {
			m.mu.Unlock()
			return ErrAlreadyQueued
		}
	}
	m.queue = append(m.queue, playerID)
	m.mu.Unlock()

	go m.tryMatch(context.Background())
	return nil
}

// Cancel removes a player from the queue.
func (m *Matcher) Cancel(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range m.queue {
		if id == playerID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return nil
		}
	}
	return ErrNotQueued
}

// QueueSize reports how many players are currently waiting.
func (m *Matcher) QueueSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Matcher) hasActiveGame(playerID string) (bool, error) {
	var count int64
	err := m.db.Model(&models.PongGame{}).
		Where("(player1_id = ? OR player2_id = ?) AND status IN ?", playerID, playerID,
			[]models.GameStatus{models.GameStatusPending, models.GameStatusStarted}).
		Count(&count).Error
	return count > 0, err
}

// tryMatch is the serialized pop-two-and-create critical section.
func (m *Matcher) tryMatch(ctx context.Context) {
	lock, err := m.locks.AcquireLock(ctx, "matchmaking-queue", locks.DefaultLockTTL)
	if err != nil {
		log.Printf("[MATCH] could not acquire matchmaking lock: %v", err)
		return
	}
	defer lock.Release(ctx)

	m.mu.Lock()
	if len(m.queue) < 2 {
		m.mu.Unlock()
		return
	}
	p1, p2 := m.queue[0], m.queue[1]
	m.queue = m.queue[2:]
	m.mu.Unlock()

	if blocked, err := m.social.IsBlocked(p1, p2); err != nil {
		log.Printf("[MATCH] block check failed for %s/%s: %v", p1, p2, err)
	} else if blocked {
		// p1 keeps its place at the front (it has waited longest); p2
		// goes to the back so a mutual block can't permanently stall
		// every player queued behind them. Retry immediately against
		// whoever is now second in line.
		m.mu.Lock()
		m.queue = append([]string{p1}, m.queue...)
		m.queue = append(m.queue, p2)
		m.mu.Unlock()
		go m.tryMatch(ctx)
		return
	}

	game := models.PongGame{
		ID:        uuid.New().String(),
		Player1ID: p1,
		Player2ID: p2,
		Status:    models.GameStatusPending,
		CreatedAt: time.Now(),
	}
	if err := m.db.Create(&game).Error; err != nil {
		log.Printf("[MATCH] failed to create game for %s/%s: %v", p1, p2, err)
		return
	}

	session := gamesession.New(m.db, m.bc, game.ID, p1, p2, nil)
	m.sessions.Start(session)

	payload := map[string]any{"status": "matched", "game_id": game.ID}
	m.hub.Send(p1, payload)
	m.hub.Send(p2, payload)

	log.Printf("[MATCH] paired %s vs %s into game %s", p1, p2, game.ID)

	// Another pair may already be waiting.
	go m.tryMatch(ctx)
}
