package services

import (
	"testing"
	"time"

	"github.com/betesebbet/bingo-backend/game"
)

func TestHistorySubscribeDelivers(t *testing.T) {
	h := NewGormHistory(nil)

	feed, cancel := h.Subscribe("p1")
	defer cancel()

	rec := game.Record{ID: "r1", PlayerID: "p1", Outcome: game.OutcomeWon, Payout: 80}
	h.push(rec)

	select {
	case got := <-feed:
		if got.ID != "r1" || got.Payout != 80 {
			t.Fatalf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no record delivered")
	}
}

func TestHistorySubscribeIsScopedToPlayer(t *testing.T) {
	h := NewGormHistory(nil)

	feed, cancel := h.Subscribe("p1")
	defer cancel()

	h.push(game.Record{ID: "r2", PlayerID: "someone-else"})

	select {
	case got := <-feed:
		t.Fatalf("received another player's record: %+v", got)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHistoryCancelClosesFeed(t *testing.T) {
	h := NewGormHistory(nil)

	feed, cancel := h.Subscribe("p1")
	cancel()
	cancel() // idempotent

	if _, open := <-feed; open {
		t.Fatal("feed still open after cancel")
	}

	// pushes after cancel go nowhere, and must not panic
	h.push(game.Record{ID: "r3", PlayerID: "p1"})
}
