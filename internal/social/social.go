// Package social is a thin reader over the friendship and block-list
// tables. Friend/block CRUD is owned by an external collaborator;
// this package only needs read-only answers to "are these two
// blocked" and "who are this player's friends".
package social

import (
	"pong-platform/backend/internal/models"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// IsBlocked checks both orderings of the pair, since a block recorded
// by either side should stop matchmaking/challenges between them.
func (s *Store) IsBlocked(a, b string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Block{}).
		Where("(player_id = ? AND blocked_id = ?) OR (player_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// IsFriend reports whether two players have an accepted friendship in
// either direction.
func (s *Store) IsFriend(a, b string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Friendship{}).
		Where("accepted = ?", true).
		Where("(player1_id = ? AND player2_id = ?) OR (player1_id = ? AND player2_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// FriendIDs lists every player id with an accepted friendship with
// playerID, used by the notification hub's online/offline fan-out.
func (s *Store) FriendIDs(playerID string) ([]string, error) {
	var friendships []models.Friendship
	if err := s.db.Where("accepted = ?", true).
		Where("player1_id = ? OR player2_id = ?", playerID, playerID).
		Find(&friendships).Error; err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(friendships))
	for _, f := range friendships {
		if f.Player1ID == playerID {
			ids = append(ids, f.Player2ID)
		} else {
			ids = append(ids, f.Player1ID)
		}
	}
	return ids, nil
}
