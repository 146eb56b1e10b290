// Package auth implements the access/refresh token lifecycle:
// HMAC-signed JWT pairs carried in HttpOnly cookies, sliding refresh
// with rotation, and a blacklist of retired refresh jtis so a stolen,
// already-rotated cookie cannot be replayed.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pong-platform/backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	AccessCookieName  = "access"
	RefreshCookieName = "refresh"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	// RefreshThreshold mirrors TOKEN_REFRESH_THRESHOLD in the original
	// middleware: an access token within this long of expiring is
	// treated as expired and silently rotated rather than rejected.
	RefreshThreshold = 2 * time.Minute
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenRevoked  = errors.New("token revoked")
)

// Service mints and validates the access/refresh pair and owns the
// retired-jti blacklist.
type Service struct {
	secret     []byte
	db         *gorm.DB
	accessTTL  time.Duration
	refreshTTL time.Duration
	cookieSecure bool
	cookieDomain string
}

// Config controls TTLs and cookie attributes; zero values fall back to
// the defaults used throughout development.
type Config struct {
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieSecure bool
	CookieDomain string
}

func NewService(secret string, db *gorm.DB, cfg Config) *Service {
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &Service{
		secret:       []byte(secret),
		db:           db,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		cookieSecure: cfg.CookieSecure,
		cookieDomain: cfg.CookieDomain,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func (s *Service) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func GenerateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

type claims struct {
	UserID string `json:"user_id"`
	JTI    string `json:"jti"`
	Kind   string `json:"kind"` // "access" | "refresh"
	jwt.RegisteredClaims
}

// TokenPair is a freshly minted access+refresh token pair.
type TokenPair struct {
	Access        string
	Refresh       string
	RefreshJTI    string
	AccessExpiry  time.Time
	RefreshExpiry time.Time
}

// Mint creates a new access+refresh pair for userID. Called at login
// and at the end of every successful refresh rotation.
func (s *Service) Mint(userID string) TokenPair {
	now := time.Now()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)
	refreshJTI := uuid.New().String()

	access, _ := s.sign(claims{
		UserID: userID,
		JTI:    uuid.New().String(),
		Kind:   "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(accessExp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	refresh, _ := s.sign(claims{
		UserID: userID,
		JTI:    refreshJTI,
		Kind:   "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	return TokenPair{
		Access:        access,
		Refresh:       refresh,
		RefreshJTI:    refreshJTI,
		AccessExpiry:  accessExp,
		RefreshExpiry: refreshExp,
	}
}

func (s *Service) sign(c claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Service) parse(tokenString, wantKind string) (*claims, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || c.Kind != wantKind || c.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// ValidateAccess returns the subject userID for a well-formed,
// unexpired access token. Used by the WS upgrade gate, which never
// rotates — it just accepts or rejects.
func (s *Service) ValidateAccess(tokenString string) (string, error) {
	c, err := s.parse(tokenString, "access")
	if err != nil {
		return "", err
	}
	return c.UserID, nil
}

// NeedsRefresh reports whether an access token is within
// RefreshThreshold of expiring (or already expired/invalid), matching
// the original TokenRefreshMiddleware's _is_token_expired check.
func (s *Service) NeedsRefresh(tokenString string) bool {
	c, err := s.parse(tokenString, "access")
	if err != nil {
		return true
	}
	return time.Until(c.ExpiresAt.Time) <= RefreshThreshold
}

// Rotate validates the refresh token, blacklists its jti, and mints a
// fresh pair. Returns ErrTokenRevoked if the jti was already used.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	c, err := s.parse(refreshToken, "refresh")
	if err != nil {
		return TokenPair{}, err
	}

	var existing models.RefreshBlacklist
	err = s.db.WithContext(ctx).Where("jti = ?", c.JTI).First(&existing).Error
	if err == nil {
		return TokenPair{}, ErrTokenRevoked
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return TokenPair{}, fmt.Errorf("blacklist lookup: %w", err)
	}

	if err := s.Blacklist(ctx, c.JTI, c.ExpiresAt.Time); err != nil {
		return TokenPair{}, err
	}

	return s.Mint(c.UserID), nil
}

// RefreshClaims exposes the subject, jti, and expiry of a refresh
// token without rotating it, used by logout to blacklist the cookie
// being discarded.
func (s *Service) RefreshClaims(refreshToken string) (userID, jti string, expiresAt time.Time, err error) {
	c, err := s.parse(refreshToken, "refresh")
	if err != nil {
		return "", "", time.Time{}, err
	}
	return c.UserID, c.JTI, c.ExpiresAt.Time, nil
}

// Blacklist retires a refresh jti so it can never be rotated again.
func (s *Service) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Create(&models.RefreshBlacklist{
		JTI:       jti,
		ExpiresAt: expiresAt,
	}).Error
}

// SetCookies writes both cookies on the response, mirroring
// helpers.set_auth_cookies: HttpOnly, scoped SameSite, Secure per
// environment.
func (s *Service) SetCookies(w http.ResponseWriter, pair TokenPair) {
	s.setCookie(w, AccessCookieName, pair.Access, pair.AccessExpiry)
	s.setCookie(w, RefreshCookieName, pair.Refresh, pair.RefreshExpiry)
}

// ClearCookies expires both cookies immediately, used on logout and
// when a refresh attempt fails outright.
func (s *Service) ClearCookies(w http.ResponseWriter) {
	s.setCookie(w, AccessCookieName, "", time.Unix(0, 0))
	s.setCookie(w, RefreshCookieName, "", time.Unix(0, 0))
}

func (s *Service) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.cookieDomain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
