package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"showdown-battle/ai"
	"showdown-battle/data"
	"showdown-battle/game"
	"showdown-battle/server"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	dex, err := data.Default()
	if err != nil {
		t.Fatal(err)
	}
	s := server.New(dex, nil, server.Options{Difficulty: ai.Easy, GinMode: "test"})
	t.Cleanup(s.Close)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestNewBattleClientRejectsScheme(t *testing.T) {
	if _, err := NewBattleClient("ftp://example.com"); err == nil {
		t.Error("ftp url accepted")
	}
}

func TestNotConnected(t *testing.T) {
	bc, err := NewBattleClient("http://localhost:1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bc.Listen(); err != ErrNotConnected {
		t.Errorf("listen err = %v", err)
	}
	if err := bc.SubmitAction(game.SideOne, game.MoveAction(0)); err != ErrNotConnected {
		t.Errorf("submit err = %v", err)
	}
	if err := bc.Close(); err != nil {
		t.Errorf("close err = %v", err)
	}
}

func TestPlayBattleToTheEnd(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	bc, err := NewBattleClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	seed := uint64(21)
	b, err := bc.CreateBattle(ctx, BattleRequest{Team: Team{Name: "Red"}, Seed: &seed})
	if err != nil {
		t.Fatal(err)
	}
	if !b.VersusAI || len(b.Legal) == 0 {
		t.Fatalf("battle = %+v", b)
	}
	if err := bc.Connect(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	defer bc.Close()
	msgs, err := bc.Listen()
	if err != nil {
		t.Fatal(err)
	}

	lines := 0
	for {
		select {
		case <-ctx.Done():
			t.Fatal("battle did not finish in time")
		case msg, ok := <-msgs:
			if !ok {
				t.Fatal("socket closed before the battle ended")
			}
			switch msg.Type {
			case "error":
				t.Fatalf("server error: %s", msg.Error)
			case "result":
				if msg.Accepted == nil || !*msg.Accepted {
					t.Fatalf("action rejected: %+v", msg)
				}
			case "update":
				lines += len(msg.Lines)
				if msg.State.Phase == game.PhaseEnded {
					if lines != len(msg.State.Log) {
						t.Errorf("received %d lines for %d log entries", lines, len(msg.State.Log))
					}
					return
				}
				if legal := msg.State.LegalActions(game.SideOne); len(legal) > 0 {
					if err := bc.SubmitAction(game.SideOne, legal[0]); err != nil {
						t.Fatal(err)
					}
				}
			}
		}
	}
}

func TestCreateBattleError(t *testing.T) {
	srv := newServer(t)
	bc, err := NewBattleClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bc.CreateBattle(context.Background(), BattleRequest{Difficulty: "brutal"}); err == nil {
		t.Error("unknown difficulty accepted")
	}
}
