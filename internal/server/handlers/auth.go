package handlers

import (
	"net/http"
	"time"

	"pong-platform/backend/internal/auth"
	"pong-platform/backend/internal/db"
	"pong-platform/backend/internal/models"
	"pong-platform/backend/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HandleRegister creates a Player and logs them in immediately.
func HandleRegister(c *gin.Context, database *db.DB, authService *auth.Service) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := authService.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	player := models.Player{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := database.Create(&player).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return
	}

	pair := authService.Mint(player.ID)
	authService.SetCookies(c.Writer, pair)
	c.JSON(http.StatusCreated, publicPlayer(&player))
}

// HandleLogin validates credentials and, for 2FA-enrolled accounts,
// pauses short of minting cookies until HandleVerifyTwoFactor confirms
// a TOTP code or backup code.
func HandleLogin(c *gin.Context, database *db.DB, authService *auth.Service) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if req.Password == "" || len(req.Password) > 128 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	var player models.Player
	if err := database.Where("username = ?", req.Username).First(&player).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !authService.CheckPassword(req.Password, player.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if player.TwoFactorEnabled {
		c.JSON(http.StatusOK, gin.H{"two_factor_required": true, "player_id": player.ID})
		return
	}

	pair := authService.Mint(player.ID)
	authService.SetCookies(c.Writer, pair)
	c.JSON(http.StatusOK, publicPlayer(&player))
}

// HandleVerifyTwoFactor completes a login paused by HandleLogin once
// TwoFactorEnabled is set, accepting either a live TOTP code or a
// single-use backup code.
func HandleVerifyTwoFactor(c *gin.Context, database *db.DB, authService *auth.Service) {
	var req struct {
		PlayerID string `json:"player_id"`
		Code     string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var player models.Player
	if err := database.Where("id = ?", req.PlayerID).First(&player).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if auth.VerifyTOTP(player.TwoFactorSecret, req.Code) {
		pair := authService.Mint(player.ID)
		authService.SetCookies(c.Writer, pair)
		c.JSON(http.StatusOK, publicPlayer(&player))
		return
	}

	codes, _ := auth.UnmarshalBackupCodes(player.BackupCodes)
	remaining, ok := auth.UseBackupCode(codes, req.Code)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}

	encoded, err := auth.MarshalBackupCodes(remaining)
	if err == nil {
		database.Model(&player).Update("backup_codes", encoded)
	}

	pair := authService.Mint(player.ID)
	authService.SetCookies(c.Writer, pair)
	c.JSON(http.StatusOK, publicPlayer(&player))
}

// HandleEnableTwoFactor issues a fresh TOTP secret and backup codes for
// the authenticated player; the client must confirm with a live code
// via HandleConfirmTwoFactor before enforcement turns on.
func HandleEnableTwoFactor(c *gin.Context, database *db.DB) {
	userID := c.GetString("user_id")

	var player models.Player
	if err := database.Where("id = ?", userID).First(&player).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	secret, codes, err := auth.EnrollTwoFactor("pong-platform", player.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enroll 2FA"})
		return
	}

	encoded, err := auth.MarshalBackupCodes(codes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enroll 2FA"})
		return
	}

	if err := database.Model(&player).Updates(map[string]any{
		"two_factor_secret": secret,
		"backup_codes":      encoded,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enroll 2FA"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"secret": secret, "backup_codes": codes})
}

// HandleConfirmTwoFactor turns on enforcement after the client proves
// it can generate a valid code from the secret issued by
// HandleEnableTwoFactor.
func HandleConfirmTwoFactor(c *gin.Context, database *db.DB) {
	userID := c.GetString("user_id")

	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var player models.Player
	if err := database.Where("id = ?", userID).First(&player).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	if !auth.VerifyTOTP(player.TwoFactorSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}

	if err := database.Model(&player).Update("two_factor_enabled", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"two_factor_enabled": true})
}

// HandleGetCurrentUser returns the current authenticated player.
func HandleGetCurrentUser(c *gin.Context, database *db.DB) {
	userID := c.GetString("user_id")

	var player models.Player
	if err := database.Where("id = ?", userID).First(&player).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	c.JSON(http.StatusOK, publicPlayer(&player))
}

// HandleLogout clears both the access and refresh cookies and
// blacklists the refresh token's jti so the cookie can't be replayed.
func HandleLogout(c *gin.Context, authService *auth.Service) {
	if cookie, err := c.Cookie(auth.RefreshCookieName); err == nil {
		if _, jti, exp, err := authService.RefreshClaims(cookie); err == nil {
			authService.Blacklist(c.Request.Context(), jti, exp)
		}
	}
	authService.ClearCookies(c.Writer)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func publicPlayer(p *models.Player) gin.H {
	return gin.H{
		"id":                 p.ID,
		"username":           p.Username,
		"online":             p.Online,
		"wins":               p.Wins,
		"losses":             p.Losses,
		"two_factor_enabled": p.TwoFactorEnabled,
	}
}
