package handlers

import (
	"errors"
	"net/http"

	"pong-platform/backend/internal/challenge"
	"pong-platform/backend/internal/db"
	"pong-platform/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// HandleChallengePlayer sends a direct challenge to another player.
func HandleChallengePlayer(c *gin.Context, svc *challenge.Service) {
	userID := c.GetString("user_id")

	var req struct {
		OpponentID string `json:"opponent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	request, err := svc.Send(userID, req.OpponentID)
	if err != nil {
		c.JSON(challengeStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, request)
}

// HandleAcceptChallenge accepts a pending direct challenge.
func HandleAcceptChallenge(c *gin.Context, svc *challenge.Service) {
	userID := c.GetString("user_id")
	requestID := c.Param("request_id")

	game, err := svc.Accept(requestID, userID)
	if err != nil {
		c.JSON(challengeStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, game)
}

// HandleRejectChallenge rejects a pending direct challenge.
func HandleRejectChallenge(c *gin.Context, svc *challenge.Service) {
	userID := c.GetString("user_id")
	requestID := c.Param("request_id")

	if err := svc.Reject(requestID, userID); err != nil {
		c.JSON(challengeStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rejected": true})
}

// HandleCancelChallenge withdraws a challenge the caller sent.
func HandleCancelChallenge(c *gin.Context, svc *challenge.Service) {
	userID := c.GetString("user_id")
	requestID := c.Param("request_id")

	if err := svc.Cancel(requestID, userID); err != nil {
		c.JSON(challengeStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func challengeStatus(err error) int {
	switch {
	case errors.Is(err, challenge.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, challenge.ErrNotOpponent):
		return http.StatusForbidden
	case errors.Is(err, challenge.ErrSelfChallenge),
		errors.Is(err, challenge.ErrBlocked),
		errors.Is(err, challenge.ErrOpponentOffline),
		errors.Is(err, challenge.ErrAlreadyPending),
		errors.Is(err, challenge.ErrRequestNotPending),
		errors.Is(err, challenge.ErrAlreadyInActiveGame):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleMatchHistory returns a player's completed games, most recent
// first, grounded on PlayerGamesView's per-opponent projection.
func HandleMatchHistory(c *gin.Context, database *db.DB) {
	username := c.Param("username")

	var player models.Player
	if err := database.Where("username = ?", username).First(&player).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	var games []models.PongGame
	if err := database.Where("(player1_id = ? OR player2_id = ?) AND status = ?", player.ID, player.ID, models.GameStatusFinished).
		Order("finished_at DESC").
		Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	entries := make([]models.MatchHistoryEntry, 0, len(games))
	for _, g := range games {
		entry := models.MatchHistoryEntry{
			GameID:     g.ID,
			CreatedAt:  g.CreatedAt,
			FinishedAt: g.FinishedAt,
		}
		if g.Player1ID == player.ID {
			entry.Opponent = g.Player2ID
			entry.PlayerScore = g.Player1Score
			entry.OpponentScore = g.Player2Score
		} else {
			entry.Opponent = g.Player1ID
			entry.PlayerScore = g.Player2Score
			entry.OpponentScore = g.Player1Score
		}
		if g.WinnerID != nil {
			won := *g.WinnerID == player.ID
			entry.Won = &won
		}
		entries = append(entries, entry)
	}

	c.JSON(http.StatusOK, entries)
}
