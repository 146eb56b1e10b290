package handlers

import (
	"errors"
	"net/http"

	"pong-platform/backend/internal/tournament"

	"github.com/gin-gonic/gin"
)

// HandleCreateTournament starts a fixed 4-player bracket: the caller
// plus three named opponents, all four seats filled up front.
func HandleCreateTournament(c *gin.Context, svc *tournament.Service) {
	userID := c.GetString("user_id")

	var req struct {
		Player2ID string `json:"player2_id"`
		Player3ID string `json:"player3_id"`
		Player4ID string `json:"player4_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := svc.Create(userID, req.Player2ID, req.Player3ID, req.Player4ID)
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, tournament.ErrDuplicatePlayers) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, t)
}

// HandleGetTournament returns the bracket's current state.
func HandleGetTournament(c *gin.Context, svc *tournament.Service) {
	t, err := svc.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, t)
}
