package game

import (
	"fmt"
	"sort"

	"quizlive-client/internal/domain"
)

// Rank orders players by score descending. Equal scores keep their
// first-seen order, so a player who reached a score earlier is never
// displaced by a later arrival with the same score.
func Rank(players []domain.Player) []domain.Player {
	ranked := make([]domain.Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// RankLabel maps a zero-based leaderboard position to its display label.
func RankLabel(position int) string {
	switch position {
	case 0:
		return "1st"
	case 1:
		return "2nd"
	case 2:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", position+1)
	}
}
