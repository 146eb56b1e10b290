package models

import "time"

// Player is the authoritative identity record for everything the core
// game components read: credentials, win/loss record, presence, and
// 2FA enrollment. Profile fields beyond this (avatar, tournament
// nickname, friend graph) belong to the external profile/chat store
// and are only referenced here by id.
type Player struct {
	ID               string `gorm:"primaryKey;size:36" json:"id"`
	Username         string `gorm:"uniqueIndex;size:20" json:"username"`
	PasswordHash     string `gorm:"size:72" json:"-"`
	Online           bool   `gorm:"default:false" json:"online"`
	Wins             uint32 `gorm:"default:0" json:"wins"`
	Losses           uint32 `gorm:"default:0" json:"losses"`
	TwoFactorEnabled bool   `gorm:"default:false" json:"two_factor_enabled"`
	TwoFactorSecret  string `gorm:"size:64" json:"-"`
	// BackupCodes is a JSON-encoded []string; consumed codes are removed
	// from the array, not merely marked used.
	BackupCodes string     `gorm:"type:text" json:"-"`
	APIUserID   *int       `json:"api_user_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// GameStatus is the lifecycle state of a PongGame.
type GameStatus string

const (
	GameStatusPending  GameStatus = "pending"
	GameStatusStarted  GameStatus = "started"
	GameStatusFinished GameStatus = "finished"
)

// PongGame is a single match between two players.
type PongGame struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Player1ID     string     `gorm:"size:36;index" json:"player1_id"`
	Player2ID     string     `gorm:"size:36;index" json:"player2_id"`
	Player1Score  uint32     `gorm:"default:0" json:"player1_score"`
	Player2Score  uint32     `gorm:"default:0" json:"player2_score"`
	Status        GameStatus `gorm:"size:16;default:pending" json:"status"`
	WinnerID      *string    `gorm:"size:36" json:"winner_id,omitempty"`
	Disconnected  bool       `gorm:"default:false" json:"disconnected"`
	TournamentID  *string    `gorm:"size:36;index" json:"tournament_id,omitempty"`
	Round         string     `gorm:"size:16" json:"round,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// GameRequestStatus is the lifecycle state of a direct challenge.
type GameRequestStatus string

const (
	GameRequestPending  GameRequestStatus = "pending"
	GameRequestAccepted GameRequestStatus = "accepted"
	GameRequestRejected GameRequestStatus = "rejected"
	GameRequestCancelled GameRequestStatus = "cancelled"
)

// GameRequest is a pending direct-challenge FSM row.
type GameRequest struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	RequesterID string            `gorm:"size:36;index" json:"requester_id"`
	OpponentID  string            `gorm:"size:36;index" json:"opponent_id"`
	Status      GameRequestStatus `gorm:"size:16;default:pending" json:"status"`
	GameID      *string           `gorm:"size:36" json:"game_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
}

// TournamentStatus is the lifecycle state of a 4-player bracket.
type TournamentStatus string

const (
	TournamentPending    TournamentStatus = "pending"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentFinished   TournamentStatus = "finished"
)

// Tournament is a fixed, single-elimination bracket over exactly four
// participants: two semifinals followed by one final.
type Tournament struct {
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	CreatorID   string           `gorm:"size:36" json:"creator_id"`
	Player1ID   string           `gorm:"size:36" json:"player1_id"`
	Player2ID   string           `gorm:"size:36" json:"player2_id"`
	Player3ID   string           `gorm:"size:36" json:"player3_id"`
	Player4ID   string           `gorm:"size:36" json:"player4_id"`
	Status      TournamentStatus `gorm:"size:16;default:pending" json:"status"`
	WinnerID    *string          `gorm:"size:36" json:"winner_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	FinishedAt  *time.Time       `json:"finished_at,omitempty"`
}

// TournamentGame links a PongGame to its role within a bracket, giving
// the bracket engine an explicit, queryable record of which of the
// three games is which instead of inferring it from timing.
type TournamentGame struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TournamentID string `gorm:"size:36;index" json:"tournament_id"`
	GameID       string `gorm:"size:36;index" json:"game_id"`
	Round        string `gorm:"size:16" json:"round"` // semifinal1 | semifinal2 | final
}

// RefreshBlacklist records a rotated or revoked refresh token jti so a
// replayed cookie is rejected even though its signature still verifies.
type RefreshBlacklist struct {
	JTI       string    `gorm:"primaryKey;size:36" json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Block is a one-directional block; IsBlocked in internal/social checks
// both orderings so blocking is symmetric regardless of who blocked whom.
type Block struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID  string    `gorm:"size:36;index" json:"player_id"`
	BlockedID string    `gorm:"size:36;index" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Friendship gives the notification hub a real friend list to fan
// online/offline events out to; friend-request CRUD itself is owned
// by an external service.
type Friendship struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Player1ID string    `gorm:"size:36;index" json:"player1_id"`
	Player2ID string    `gorm:"size:36;index" json:"player2_id"`
	Accepted  bool      `gorm:"default:false" json:"accepted"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterRequest is the thin external registration payload this repo
// accepts on behalf of the profile store.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MatchHistoryEntry is the per-game projection returned by
// GET /history/matches/{username}.
type MatchHistoryEntry struct {
	GameID       string     `json:"game_id"`
	Opponent     string     `json:"opponent"`
	PlayerScore  uint32     `json:"player_score"`
	OpponentScore uint32    `json:"opponent_score"`
	Won          *bool      `json:"won,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
