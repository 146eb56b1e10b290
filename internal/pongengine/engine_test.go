package pongengine

import "testing"

func TestPaddleClampsWithinCourt(t *testing.T) {
	g := New("p1", "p2")
	g.StartBall()
	g.MovePaddle("p1", DirectionUp)
	for i := 0; i < 1000; i++ {
		g.Update(1.0 / 60)
	}
	snap := g.Snapshot()
	if snap.Paddle1Y < minPaddleY {
		t.Fatalf("paddle1 escaped top bound: %f", snap.Paddle1Y)
	}
}

func TestPaddleKeyupStopsMovement(t *testing.T) {
	g := New("p1", "p2")
	g.StartBall()
	g.MovePaddle("p1", DirectionDown)
	g.Update(1.0 / 60)
	before := g.Snapshot().Paddle1Y
	g.MovePaddle("p1", DirectionNone)
	g.Update(1.0 / 60)
	after := g.Snapshot().Paddle1Y
	if before != after {
		t.Fatalf("expected paddle to stop after keyup, moved from %f to %f", before, after)
	}
}

func TestBallResetsAndScoresOnMiss(t *testing.T) {
	g := New("p1", "p2")
	g.StartBall()
	g.ball.dx = -BallSpeed
	g.ball.x = 1
	gameOver := g.Update(1.0 / 60)
	if gameOver {
		t.Fatal("single point should not end the match")
	}
	p1, p2 := g.Scores()
	if p2 != 1 || p1 != 0 {
		t.Fatalf("expected player2 to score a point, got p1=%d p2=%d", p1, p2)
	}
}

func TestMatchEndsAtTargetScore(t *testing.T) {
	g := New("p1", "p2")
	g.StartBall()
	var over bool
	for i := 0; i < TargetScore; i++ {
		g.ball.dx = -BallSpeed
		g.ball.x = 1
		over = g.Update(1.0 / 60)
	}
	if !over {
		t.Fatal("expected match to be over after reaching target score")
	}
	if g.Winner() != "p2" {
		t.Fatalf("expected p2 to win, got %q", g.Winner())
	}
}

func TestFrameRoundTrip(t *testing.T) {
	g := New("p1", "p2")
	g.StartBall()
	g.Update(1.0 / 60)
	snap := g.Snapshot()
	frame := EncodeFrame(snap)
	if len(frame) != FrameSize {
		t.Fatalf("expected %d-byte frame, got %d", FrameSize, len(frame))
	}
	decoded, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != snap {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, snap)
	}
}
