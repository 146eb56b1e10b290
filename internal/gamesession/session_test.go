package gamesession

import (
	"testing"

	"pong-platform/backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeBroadcaster struct {
	frames   [][]byte
	controls []controlSend
}

type controlSend struct {
	playerID string
	msg      any
}

func (f *fakeBroadcaster) SendFrame(gameID string, frame []byte) {
	f.frames = append(f.frames, frame)
}

func (f *fakeBroadcaster) SendControl(gameID, playerID string, msg any) {
	f.controls = append(f.controls, controlSend{playerID: playerID, msg: msg})
}

func setupSessionDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Player{}, &models.PongGame{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	db.Create(&models.Player{ID: "p1", Username: "alice"})
	db.Create(&models.Player{ID: "p2", Username: "bob"})
	db.Create(&models.PongGame{ID: "g1", Player1ID: "p1", Player2ID: "p2", Status: models.GameStatusPending})
	return db
}

func TestSession_AttachUnknownPlayerRejected(t *testing.T) {
	db := setupSessionDB(t)
	bc := &fakeBroadcaster{}
	s := New(db, bc, "g1", "p1", "p2", nil)

	if s.Attach("stranger") {
		t.Fatal("expected Attach to reject a player id that isn't in this game")
	}
	if len(bc.controls) != 0 {
		t.Fatal("expected no player_info sent for a rejected attach")
	}
}

func TestSession_AttachSendsPlayerInfoAndGatesReady(t *testing.T) {
	db := setupSessionDB(t)
	bc := &fakeBroadcaster{}
	s := New(db, bc, "g1", "p1", "p2", nil)

	if !s.Attach("p1") {
		t.Fatal("expected p1 attach to succeed")
	}
	select {
	case <-s.ready:
		t.Fatal("session should still be AWAITING_BOTH after only one player attached")
	default:
	}
	if len(bc.controls) != 1 {
		t.Fatalf("expected exactly one player_info frame after first attach, got %d", len(bc.controls))
	}
	payload, ok := bc.controls[0].msg.(map[string]any)
	if !ok || payload["status"] != "player_info" {
		t.Fatalf("expected status=player_info payload, got %#v", bc.controls[0].msg)
	}

	if !s.Attach("p2") {
		t.Fatal("expected p2 attach to succeed")
	}
	select {
	case <-s.ready:
	default:
		t.Fatal("session should transition to RUNNING once both players attach")
	}
	if len(bc.controls) != 2 {
		t.Fatalf("expected a second player_info frame after p2 attaches, got %d", len(bc.controls))
	}
}

func TestSession_AttachIsIdempotentPerPlayer(t *testing.T) {
	db := setupSessionDB(t)
	bc := &fakeBroadcaster{}
	s := New(db, bc, "g1", "p1", "p2", nil)

	s.Attach("p1")
	s.Attach("p1")
	if len(bc.controls) != 1 {
		t.Fatalf("expected re-attaching the same player not to resend player_info, got %d sends", len(bc.controls))
	}
}
