package events

import (
	"encoding/json"
	"time"

	"github.com/quizdash/quizdash/internal/game"
	"github.com/quizdash/quizdash/internal/models"
)

// Payload types shared between the coordinator and the gateway. Field names
// are client-facing and fixed.

// CreateRoomPayload is the data of a create_room command.
type CreateRoomPayload struct {
	Quiz      models.Quiz `json:"quiz"`
	AuthToken string      `json:"authToken"`
}

// JoinRoomPayload is the data of a join_room command.
type JoinRoomPayload struct {
	RoomCode    string `json:"roomCode"`
	DisplayName string `json:"displayName"`
}

// NextQuestionPayload is the data of a next_question command.
type NextQuestionPayload struct {
	RoomCode string `json:"roomCode"`
}

// SubmitAnswerPayload is the data of a submit_answer command.
type SubmitAnswerPayload struct {
	RoomCode      string     `json:"roomCode"`
	ChoiceIndices ChoiceList `json:"choiceIndices"`
}

// ChoiceList accepts either a bare index or a list of indices, since
// single-select clients send `3` where multi-select clients send `[0,2]`.
type ChoiceList []int

func (c *ChoiceList) UnmarshalJSON(data []byte) error {
	var single int
	if err := json.Unmarshal(data, &single); err == nil {
		*c = ChoiceList{single}
		return nil
	}
	var many []int
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*c = ChoiceList(many)
	return nil
}

// RoomCreatedPayload is the payload of a room-created event.
type RoomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
}

// PlayersUpdatedPayload is the payload of a players-updated event.
type PlayersUpdatedPayload struct {
	Players []string `json:"players"`
}

// LobbyCountPayload is the payload of a lobby-count event.
type LobbyCountPayload struct {
	Count int `json:"count"`
}

// QuestionStartedPayload is the payload of a question-started event. The
// answer key never rides on this event.
type QuestionStartedPayload struct {
	Index           int       `json:"index"`
	Text            string    `json:"text"`
	Choices         []string  `json:"choices"`
	Deadline        time.Time `json:"deadline"`
	MultipleAllowed bool      `json:"multipleAllowed"`
}

// QuestionEndedPayload is the payload of a question-ended event.
type QuestionEndedPayload struct {
	CorrectIndices []int           `json:"correctIndices"`
	Leaderboard    []game.Standing `json:"leaderboard"`
}

// AnswerResultPayload is the payload of an answer-result event.
type AnswerResultPayload struct {
	Correct bool `json:"correct"`
}

// LeaderboardUpdatePayload is the payload of a leaderboard-update event.
type LeaderboardUpdatePayload struct {
	Standings []game.Standing `json:"standings"`
}

// GameOverPayload is the payload of a game-over event.
type GameOverPayload struct {
	Leaderboard []game.Standing `json:"leaderboard"`
}

// ErrorPayload is the payload of an error event, delivered only to the
// originating connection.
type ErrorPayload struct {
	Message string `json:"message"`
}
