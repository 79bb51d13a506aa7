package room

import "errors"

// ErrNotFound is returned when no room exists for a given code.
var ErrNotFound = errors.New("room not found")

// ErrGameOver is returned when a question-advancing event hits a finished
// room.
var ErrGameOver = errors.New("game already over")

// ErrCodeExhausted is returned when the registry cannot allocate a collision
// free room code within the retry budget.
var ErrCodeExhausted = errors.New("could not allocate room code")
