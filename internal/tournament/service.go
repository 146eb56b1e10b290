// Package tournament runs the fixed, four-player single-elimination
// bracket: two semifinals played concurrently, then one final between
// the semifinal winners. There is no registration window, blind
// schedule, or prize pool to manage — all four seats are named by the
// creator up front, so creation and bracket advance are the only two
// operations.
package tournament

import (
	"log"
	"time"

	"pong-platform/backend/internal/gamesession"
	"pong-platform/backend/internal/models"
	"pong-platform/backend/internal/notify"
	"pong-platform/backend/internal/social"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	roundSemifinal1 = "semifinal1"
	roundSemifinal2 = "semifinal2"
	roundFinal      = "final"
)

type Service struct {
	db       *gorm.DB
	sessions *gamesession.Registry
	bc       gamesession.Broadcaster
	hub      *notify.Hub
	social   *social.Store
}

func NewService(db *gorm.DB, sessions *gamesession.Registry, bc gamesession.Broadcaster, hub *notify.Hub, social *social.Store) *Service {
	return &Service{db: db, sessions: sessions, bc: bc, hub: hub, social: social}
}

// Create registers a bracket over exactly four named players and
// immediately starts both semifinals.
func (s *Service) Create(creatorID, player2, player3, player4 string) (*models.Tournament, error) {
	players := []string{creatorID, player2, player3, player4}
	seen := make(map[string]bool, 4)
	for _, p := range players {
		if seen[p] {
			return nil, ErrDuplicatePlayers
		}
		seen[p] = true
	}

	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			if blocked, err := s.social.IsBlocked(players[i], players[j]); err != nil {
				return nil, err
			} else if blocked {
				return nil, ErrPlayerBlocked
			}
		}
	}

	t := &models.Tournament{
		ID:        uuid.New().String(),
		CreatorID: creatorID,
		Player1ID: creatorID,
		Player2ID: player2,
		Player3ID: player3,
		Player4ID: player4,
		Status:    models.TournamentInProgress,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(t).Error; err != nil {
		return nil, err
	}

	s.notifyCreation(t)

	s.startSemifinal(t, roundSemifinal1, t.Player1ID, t.Player2ID)
	s.startSemifinal(t, roundSemifinal2, t.Player3ID, t.Player4ID)

	return t, nil
}

func (s *Service) startSemifinal(t *models.Tournament, round, p1, p2 string) {
	tournamentID := t.ID
	game := &models.PongGame{
		ID:           uuid.New().String(),
		Player1ID:    p1,
		Player2ID:    p2,
		Status:       models.GameStatusPending,
		TournamentID: &tournamentID,
		Round:        round,
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(game).Error; err != nil {
		log.Printf("[TOURNEY] %s: failed to create %s: %v", tournamentID, round, err)
		return
	}
	if err := s.db.Create(&models.TournamentGame{TournamentID: tournamentID, GameID: game.ID, Round: round}).Error; err != nil {
		log.Printf("[TOURNEY] %s: failed to link %s: %v", tournamentID, round, err)
	}

	session := gamesession.New(s.db, s.bc, game.ID, p1, p2, func(res gamesession.FinalizeResult) {
		s.onSemifinalDone(tournamentID, round, res)
	})
	s.sessions.Start(session)
}

// onSemifinalDone records the semifinal winner and, once both
// semifinals have reported, starts the final.
func (s *Service) onSemifinalDone(tournamentID, round string, res gamesession.FinalizeResult) {
	var finalists []models.TournamentGame
	if err := s.db.Where("tournament_id = ? AND round IN ?", tournamentID, []string{roundSemifinal1, roundSemifinal2}).
		Find(&finalists).Error; err != nil {
		log.Printf("[TOURNEY] %s: failed to load semifinal games: %v", tournamentID, err)
		return
	}

	winners := make(map[string]string, 2) // round -> winner id
	winners[round] = res.WinnerID

	for _, tg := range finalists {
		if tg.Round == round {
			continue
		}
		var game models.PongGame
		if err := s.db.Where("id = ?", tg.GameID).First(&game).Error; err != nil {
			continue
		}
		if game.Status == models.GameStatusFinished && game.WinnerID != nil {
			winners[tg.Round] = *game.WinnerID
		}
	}

	w1, ok1 := winners[roundSemifinal1]
	w2, ok2 := winners[roundSemifinal2]
	if !ok1 || !ok2 {
		return // other semifinal still in progress
	}

	var t models.Tournament
	if err := s.db.Where("id = ?", tournamentID).First(&t).Error; err != nil {
		log.Printf("[TOURNEY] %s: failed to load tournament for final: %v", tournamentID, err)
		return
	}

	s.startFinal(&t, w1, w2)
}

func (s *Service) startFinal(t *models.Tournament, w1, w2 string) {
	tournamentID := t.ID
	game := &models.PongGame{
		ID:           uuid.New().String(),
		Player1ID:    w1,
		Player2ID:    w2,
		Status:       models.GameStatusPending,
		TournamentID: &tournamentID,
		Round:        roundFinal,
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(game).Error; err != nil {
		log.Printf("[TOURNEY] %s: failed to create final: %v", tournamentID, err)
		return
	}
	if err := s.db.Create(&models.TournamentGame{TournamentID: tournamentID, GameID: game.ID, Round: roundFinal}).Error; err != nil {
		log.Printf("[TOURNEY] %s: failed to link final: %v", tournamentID, err)
	}

	session := gamesession.New(s.db, s.bc, game.ID, w1, w2, func(res gamesession.FinalizeResult) {
		s.onFinalDone(tournamentID, res)
	})
	s.sessions.Start(session)
}

func (s *Service) onFinalDone(tournamentID string, res gamesession.FinalizeResult) {
	now := time.Now()
	if err := s.db.Model(&models.Tournament{}).Where("id = ?", tournamentID).Updates(map[string]any{
		"status":      models.TournamentFinished,
		"winner_id":   res.WinnerID,
		"finished_at": now,
	}).Error; err != nil {
		log.Printf("[TOURNEY] %s: failed to record champion: %v", tournamentID, err)
	}
}

// notifyCreation sends the single "tournament" notification required
// at bracket creation, to every participant except the creator (who
// already knows — they just built the bracket).
func (s *Service) notifyCreation(t *models.Tournament) {
	payload := notify.Envelope(notify.EventTournamentInvite, map[string]any{
		"tournament_id": t.ID,
	})
	for _, p := range []string{t.Player2ID, t.Player3ID, t.Player4ID} {
		s.hub.Send(p, payload)
	}
}

// Get returns a tournament by id.
func (s *Service) Get(id string) (*models.Tournament, error) {
	var t models.Tournament
	if err := s.db.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, ErrTournamentNotFound
	}
	return &t, nil
}
