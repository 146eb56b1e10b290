// Package challenge implements the direct-challenge FSM: send,
// accept, reject, cancel.
package challenge

import (
	"errors"
	"log"
	"time"

	"pong-platform/backend/internal/gamesession"
	"pong-platform/backend/internal/models"
	"pong-platform/backend/internal/notify"
	"pong-platform/backend/internal/social"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSelfChallenge       = errors.New("cannot challenge yourself")
	ErrOpponentOffline     = errors.New("opponent is not online")
	ErrAlreadyPending      = errors.New("already have a pending game request")
	ErrBlocked             = errors.New("blocked")
	ErrRequestNotFound     = errors.New("game request not found")
	ErrNotOpponent         = errors.New("only the challenged player may respond")
	ErrRequestNotPending   = errors.New("game request is no longer pending")
	ErrAlreadyInActiveGame = errors.New("already in an active game")
)

type Service struct {
	db       *gorm.DB
	hub      *notify.Hub
	social   *social.Store
	sessions *gamesession.Registry
	bc       gamesession.Broadcaster
}

func NewService(db *gorm.DB, hub *notify.Hub, social *social.Store, sessions *gamesession.Registry, bc gamesession.Broadcaster) *Service {
	return &Service{db: db, hub: hub, social: social, sessions: sessions, bc: bc}
}

// Send creates a pending GameRequest from requesterID to opponentID.
func (s *Service) Send(requesterID, opponentID string) (*models.GameRequest, error) {
	if requesterID == opponentID {
		return nil, ErrSelfChallenge
	}

	if blocked, err := s.social.IsBlocked(requesterID, opponentID); err != nil {
		return nil, err
	} else if blocked {
		return nil, ErrBlocked
	}

	if !s.hub.IsOnline(opponentID) {
		return nil, ErrOpponentOffline
	}

	if active, err := s.hasActiveGame(requesterID); err != nil {
		return nil, err
	} else if active {
		return nil, ErrAlreadyInActiveGame
	}
	if active, err := s.hasActiveGame(opponentID); err != nil {
		return nil, err
	} else if active {
		return nil, ErrAlreadyInActiveGame
	}

	var existing int64
	if err := s.db.Model(&models.GameRequest{}).
		Where("status = ? AND (requester_id = ? OR opponent_id = ? OR requester_id = ? OR opponent_id = ?)",
			models.GameRequestPending, requesterID, requesterID, opponentID, opponentID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAlreadyPending
	}

	req := &models.GameRequest{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		OpponentID:  opponentID,
		Status:      models.GameRequestPending,
		CreatedAt:   time.Now(),
	}
	if err := s.db.Create(req).Error; err != nil {
		return nil, err
	}

	s.hub.Send(opponentID, notify.Envelope(notify.EventGameRequest, map[string]any{
		"request_id": req.ID,
		"from":       requesterID,
	}))

	return req, nil
}

// Accept transitions a request to accepted, creates the pending
// PongGame, and starts the session. Only the challenged player may
// accept.
func (s *Service) Accept(requestID, opponentID string) (*models.PongGame, error) {
	var req models.GameRequest
	if err := s.db.Where("id = ?", requestID).First(&req).Error; err != nil {
		return nil, ErrRequestNotFound
	}
	if req.OpponentID != opponentID {
		return nil, ErrNotOpponent
	}
	if req.Status != models.GameRequestPending {
		return nil, ErrRequestNotPending
	}

	game := &models.PongGame{
		ID:        uuid.New().String(),
		Player1ID: req.RequesterID,
		Player2ID: req.OpponentID,
		Status:    models.GameStatusPending,
		CreatedAt: time.Now(),
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(game).Error; err != nil {
			return err
		}
		return tx.Model(&req).Updates(map[string]any{
			"status":      models.GameRequestAccepted,
			"game_id":     game.ID,
			"resolved_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	session := gamesession.New(s.db, s.bc, game.ID, game.Player1ID, game.Player2ID, nil)
	s.sessions.Start(session)

	s.hub.Send(req.RequesterID, notify.Envelope(notify.EventGameRequestResponse, map[string]any{
		"game_id": game.ID,
	}))

	return game, nil
}

// Reject transitions a request to rejected. Only the challenged player
// may reject.
func (s *Service) Reject(requestID, opponentID string) error {
	var req models.GameRequest
	if err := s.db.Where("id = ?", requestID).First(&req).Error; err != nil {
		return ErrRequestNotFound
	}
	if req.OpponentID != opponentID {
		return ErrNotOpponent
	}
	if req.Status != models.GameRequestPending {
		return ErrRequestNotPending
	}

	now := time.Now()
	if err := s.db.Model(&req).Updates(map[string]any{
		"status":      models.GameRequestRejected,
		"resolved_at": now,
	}).Error; err != nil {
		return err
	}

	s.hub.Send(req.RequesterID, notify.Envelope(notify.EventGameRequestResponse, map[string]any{
		"game_id": nil,
	}))
	return nil
}

// Cancel lets the requester withdraw their own still-pending request.
// The implicit cancel-on-disconnect path is CancelPendingForDisconnect.
func (s *Service) Cancel(requestID, requesterID string) error {
	var req models.GameRequest
	if err := s.db.Where("id = ?", requestID).First(&req).Error; err != nil {
		return ErrRequestNotFound
	}
	if req.RequesterID != requesterID {
		return ErrNotOpponent
	}
	if req.Status != models.GameRequestPending {
		return ErrRequestNotPending
	}

	now := time.Now()
	return s.db.Model(&req).Updates(map[string]any{
		"status":      models.GameRequestCancelled,
		"resolved_at": now,
	}).Error
}

// CancelPendingForDisconnect deletes the player's own PENDING
// GameRequest rows (as either requester or opponent) with no
// notification to the counterpart, implementing the hub's implicit
// cancel-on-disconnect. Driven by notify.Hub.Disconnect, not by an
// explicit HTTP call.
func (s *Service) CancelPendingForDisconnect(playerID string) {
	if err := s.db.Where("status = ? AND (requester_id = ? OR opponent_id = ?)",
		models.GameRequestPending, playerID, playerID).
		Delete(&models.GameRequest{}).Error; err != nil {
		log.Printf("[CHALLENGE] failed to cancel pending requests for %s on disconnect: %v", playerID, err)
	}
}

func (s *Service) hasActiveGame(playerID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.PongGame{}).
		Where("(player1_id = ? OR player2_id = ?) AND status IN ?", playerID, playerID,
			[]models.GameStatus{models.GameStatusPending, models.GameStatusStarted}).
		Count(&count).Error
	return count > 0, err
}
