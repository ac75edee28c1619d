package game

import (
	"testing"

	"quizlive-client/internal/domain"
)

func TestRankOrdersByScoreDescending(t *testing.T) {
	players := []domain.Player{
		{UID: "a", DisplayName: "Alice", Score: 5},
		{UID: "b", DisplayName: "Bob", Score: 5},
		{UID: "c", DisplayName: "Cara", Score: 9},
	}
	ranked := Rank(players)

	want := []string{"c", "a", "b"}
	for i, uid := range want {
		if ranked[i].UID != uid {
			t.Fatalf("position %d: expected %s, got %s", i, uid, ranked[i].UID)
		}
	}
}

func TestRankIsStableForTies(t *testing.T) {
	players := []domain.Player{
		{UID: "first", Score: 3},
		{UID: "second", Score: 3},
		{UID: "third", Score: 3},
	}
	ranked := Rank(players)
	for i, p := range players {
		if ranked[i].UID != p.UID {
			t.Fatalf("tie order changed: %v", ranked)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	players := []domain.Player{
		{UID: "a", Score: 1},
		{UID: "b", Score: 9},
	}
	_ = Rank(players)
	if players[0].UID != "a" {
		t.Fatalf("input reordered: %v", players)
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Fatalf("expected empty ranking, got %v", got)
	}
}

func TestRankLabel(t *testing.T) {
	cases := map[int]string{0: "1st", 1: "2nd", 2: "3rd", 3: "4th", 9: "10th"}
	for pos, want := range cases {
		if got := RankLabel(pos); got != want {
			t.Fatalf("position %d: expected %s, got %s", pos, want, got)
		}
	}
}
