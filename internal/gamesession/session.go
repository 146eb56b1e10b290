// Package gamesession owns the lifecycle of a single live match: a
// goroutine ticking a pongengine.Game at a nominal 60Hz, paddle input
// delivered over a channel fed by each socket's read pump, and a
// row-locked, idempotent finalize so a natural win and a disconnect
// forfeit racing each other can never both persist a result.
package gamesession

import (
	"context"
	"log"
	"sync"
	"time"

	"pong-platform/backend/internal/models"
	"pong-platform/backend/internal/pongengine"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tickRate = time.Second / 60

// Broadcaster pushes the binary state frame and JSON control frames to
// both sockets attached to a match; implemented by the WS upgrade gate.
type Broadcaster interface {
	SendFrame(gameID string, frame []byte)
	SendControl(gameID, playerID string, msg any)
}

// Input is a single paddle-direction event read off a socket.
type Input struct {
	PlayerID string
	Dir      pongengine.Direction
}

// FinalizeResult is what a session reports once the match is over, so
// callers (the tournament bracket advance) can react without
// re-deriving it from the database.
type FinalizeResult struct {
	GameID   string
	WinnerID string
	LoserID  string
	P1Score  uint32
	P2Score  uint32
}

// Session drives one PongGame end-to-end.
type Session struct {
	GameID string

	db     *gorm.DB
	engine *pongengine.Game
	bc     Broadcaster

	input    chan Input
	stop     chan struct{}
	stopOnce sync.Once
	onDone   func(FinalizeResult)

	attachMu sync.Mutex
	attached map[string]bool
	ready    chan struct{}
	readyOne sync.Once
}

// New constructs a session for an already-persisted, pending PongGame.
// The session is registered (and its goroutine launched via
// Registry.Start) as soon as the match is created, but Run blocks in
// AWAITING_BOTH until Attach has been called for both player1 and
// player2 — the tick loop only starts once both sockets are live.
func New(db *gorm.DB, bc Broadcaster, gameID, player1ID, player2ID string, onDone func(FinalizeResult)) *Session {
	return &Session{
		GameID:   gameID,
		db:       db,
		engine:   pongengine.New(player1ID, player2ID),
		bc:       bc,
		input:    make(chan Input, 32),
		stop:     make(chan struct{}),
		onDone:   onDone,
		attached: make(map[string]bool, 2),
		ready:    make(chan struct{}),
	}
}

// Input queues a paddle direction change; non-blocking so a slow
// consumer can't stall a socket's read pump.
func (s *Session) Input(in Input) {
	select {
	case s.input <- in:
	default:
	}
}

// Attach binds a just-upgraded pong socket to its player slot: it
// sends that player a player_info control frame describing both
// participants, and once both player1 and player2 have attached,
// releases Run from AWAITING_BOTH into RUNNING. Called once per
// player; a second call for the same id is a no-op.
func (s *Session) Attach(playerID string) bool {
	if playerID != s.engine.Player1ID && playerID != s.engine.Player2ID {
		return false
	}

	s.attachMu.Lock()
	alreadyAttached := s.attached[playerID]
	s.attached[playerID] = true
	bothAttached := s.attached[s.engine.Player1ID] && s.attached[s.engine.Player2ID]
	s.attachMu.Unlock()

	if alreadyAttached {
		return true
	}

	s.bc.SendControl(s.GameID, playerID, s.playerInfoPayload(playerID))

	if bothAttached {
		s.readyOne.Do(func() { close(s.ready) })
	}

	return true
}

func (s *Session) playerInfoPayload(forPlayerID string) map[string]any {
	var players []models.Player
	s.db.Where("id IN ?", []string{s.engine.Player1ID, s.engine.Player2ID}).Find(&players)

	byID := make(map[string]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	describe := func(playerID, role string) map[string]any {
		return map[string]any{
			"username": byID[playerID].Username,
			"avatar":   "",
			"role":     role,
		}
	}

	current, opponent, currentRole, opponentRole := s.engine.Player1ID, s.engine.Player2ID, "player1", "player2"
	if forPlayerID == s.engine.Player2ID {
		current, opponent, currentRole, opponentRole = s.engine.Player2ID, s.engine.Player1ID, "player2", "player1"
	}

	return map[string]any{
		"status": "player_info",
		"data": map[string]any{
			"currentPlayer": describe(current, currentRole),
			"opponent":      describe(opponent, opponentRole),
		},
	}
}

// Run waits for both players to Attach (AWAITING_BOTH), then marks the
// game started, launches the ball, and ticks until either a natural
// win or Disconnect ends the match. It blocks and is meant to be
// called from its own goroutine.
func (s *Session) Run(ctx context.Context) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return
	case <-s.stop:
		return
	}

	if err := s.db.WithContext(ctx).Model(&models.PongGame{}).
		Where("id = ? AND status = ?", s.GameID, models.GameStatusPending).
		Update("status", models.GameStatusStarted).Error; err != nil {
		log.Printf("[SESSION] %s: failed to mark started: %v", s.GameID, err)
	}

	s.engine.StartBall()
	s.bc.SendControl(s.GameID, "", map[string]any{"status": "game_start", "game_id": s.GameID})

	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case in := <-s.input:
			s.engine.MovePaddle(in.PlayerID, in.Dir)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			over := s.engine.Update(dt)
			s.bc.SendFrame(s.GameID, pongengine.EncodeFrame(s.engine.Snapshot()))
			if over {
				s.finish(ctx, s.engine.Winner(), false)
				return
			}
		}
	}
}

// Disconnect ends the match early as a forfeit: the remaining player
// wins, mirroring PongConsumer.disconnect's get_winner(disconnected_player=...).
func (s *Session) Disconnect(ctx context.Context, disconnectedPlayerID string) {
	s.stopOnce.Do(func() { close(s.stop) })
	winner := s.engine.Player1ID
	if disconnectedPlayerID == s.engine.Player1ID {
		winner = s.engine.Player2ID
	}
	s.finish(ctx, winner, true)
}

func (s *Session) finish(ctx context.Context, winnerID string, disconnected bool) {
	result, err := s.finalize(ctx, winnerID, disconnected)
	if err != nil {
		log.Printf("[SESSION] %s: finalize failed: %v", s.GameID, err)
		return
	}
	if result == nil {
		// already finalized by a concurrent path; nothing more to report.
		return
	}
	s.bc.SendControl(s.GameID, "", map[string]any{
		"status": "game_over",
		"winner": result.WinnerID,
		"reason": reasonFor(disconnected),
	})
	if s.onDone != nil {
		s.onDone(*result)
	}
}

func reasonFor(disconnected bool) string {
	if disconnected {
		return "FORFEIT"
	}
	return "NATURAL"
}

// finalize is the idempotent, row-locked transition to FINISHED. It is
// safe to call more than once for the same game (e.g. a natural win
// racing a near-simultaneous disconnect): the second caller sees
// status already FINISHED and returns (nil, nil) without double
// counting wins/losses.
func (s *Session) finalize(ctx context.Context, winnerID string, disconnected bool) (*FinalizeResult, error) {
	var result *FinalizeResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.PongGame
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", s.GameID).First(&game).Error; err != nil {
			return err
		}

		if game.Status == models.GameStatusFinished {
			return nil
		}

		p1, p2 := s.engine.Scores()
		now := time.Now()
		game.Status = models.GameStatusFinished
		game.Player1Score = p1
		game.Player2Score = p2
		game.Disconnected = disconnected
		game.WinnerID = &winnerID
		game.FinishedAt = &now

		if err := tx.Save(&game).Error; err != nil {
			return err
		}

		loserID := game.Player1ID
		if winnerID == game.Player1ID {
			loserID = game.Player2ID
		}

		if err := tx.Model(&models.Player{}).Where("id = ?", winnerID).
			UpdateColumn("wins", gorm.Expr("wins + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Player{}).Where("id = ?", loserID).
			UpdateColumn("losses", gorm.Expr("losses + 1")).Error; err != nil {
			return err
		}

		result = &FinalizeResult{
			GameID:   s.GameID,
			WinnerID: winnerID,
			LoserID:  loserID,
			P1Score:  p1,
			P2Score:  p2,
		}
		return nil
	})

	return result, err
}
