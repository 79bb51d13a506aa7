package models

// Player is an anonymous participant in a room, tracked only by the
// connection it joined on. Seat records join order and breaks leaderboard
// ties deterministically.
type Player struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Answered bool    `json:"-"`
	Seat     int     `json:"-"`
}
