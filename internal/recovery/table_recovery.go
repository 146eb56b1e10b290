// Package recovery sweeps orphaned in-progress matches on startup. A
// Pong match has no resumable mid-point, so the only sound recovery
// is to forfeit anything the previous process left STARTED and never
// finished.
package recovery

import (
	"fmt"
	"log"
	"time"

	"pong-platform/backend/internal/models"

	"gorm.io/gorm"
)

type Recovery struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Recovery {
	return &Recovery{db: db}
}

// ForfeitOrphanedGames finds every game left STARTED by a crashed
// process and closes it out as a double forfeit: no winner, both
// players credited a loss is wrong, so neither win/loss counter is
// touched — only the game row is marked finished and disconnected.
func (r *Recovery) ForfeitOrphanedGames() error {
	var orphaned []models.PongGame
	if err := r.db.Where("status = ?", models.GameStatusStarted).Find(&orphaned).Error; err != nil {
		return fmt.Errorf("failed to query orphaned games: %w", err)
	}

	if len(orphaned) == 0 {
		log.Println("[RECOVERY] no orphaned games to forfeit")
		return nil
	}

	now := time.Now()
	for _, game := range orphaned {
		if err := r.db.Model(&models.PongGame{}).Where("id = ?", game.ID).Updates(map[string]any{
			"status":       models.GameStatusFinished,
			"disconnected": true,
			"finished_at":  &now,
		}).Error; err != nil {
			log.Printf("[RECOVERY] failed to forfeit game %s: %v", game.ID, err)
			continue
		}
		log.Printf("[RECOVERY] forfeited orphaned game %s (players %s, %s)", game.ID, game.Player1ID, game.Player2ID)
	}

	log.Printf("[RECOVERY] forfeited %d orphaned game(s)", len(orphaned))
	return nil
}
