package game

import (
	"sort"

	"github.com/quizdash/quizdash/internal/models"
)

// Standing is one leaderboard row.
type Standing struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Leaderboard ranks a room's players by score, highest first. Ties are broken
// by join order so repeated calls over the same players always produce the
// same sequence.
func Leaderboard(players map[string]*models.Player) []Standing {
	ranked := make([]*models.Player, 0, len(players))
	for _, p := range players {
		ranked = append(ranked, p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Seat < ranked[j].Seat
	})

	standings := make([]Standing, len(ranked))
	for i, p := range ranked {
		standings[i] = Standing{Name: p.Name, Score: p.Score}
	}
	return standings
}
