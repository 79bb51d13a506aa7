package events

import "encoding/json"

// Type names an outbound event in the wire catalogue. These strings are part
// of the client contract and must not change.
type Type string

const (
	TypeRoomCreated       Type = "room-created"
	TypePlayersUpdated    Type = "players-updated"
	TypeLobbyCount        Type = "lobby-count"
	TypeQuestionStarted   Type = "question-started"
	TypeQuestionEnded     Type = "question-ended"
	TypeAnswerResult      Type = "answer-result"
	TypeLeaderboardUpdate Type = "leaderboard-update"
	TypeGameOver          Type = "game-over"
	TypeRoomClosed        Type = "room-closed"
	TypeError             Type = "error"
)

// Event is the outbound frame sent to clients.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data,omitempty"`
}

// Inbound command types accepted from clients.
const (
	CmdCreateRoom   = "create_room"
	CmdJoinRoom     = "join_room"
	CmdNextQuestion = "next_question"
	CmdSubmitAnswer = "submit_answer"
)

// Command is the inbound frame read off a client connection. Data stays raw
// until the command type is known.
type Command struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
