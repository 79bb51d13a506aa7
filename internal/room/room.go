package room

import (
	"sync"
	"time"

	"github.com/quizdash/quizdash/internal/game"
	"github.com/quizdash/quizdash/internal/models"
)

// State tracks where a room is in the question lifecycle.
type State int

const (
	StateNoQuestion State = iota
	StateQuestionActive
	StateQuestionEnded
	StateGameOver
)

// Room owns one quiz session's mutable state. All mutation goes through
// methods that take the room's lock, so concurrent events targeting the same
// room are serialized.
type Room struct {
	mu sync.Mutex

	code         string
	hostConnID   string
	hostIdentity string
	quiz         models.Quiz

	players  map[string]*models.Player
	nextSeat int

	currentQuestion  int
	questionDeadline *time.Time
	state            State
}

func newRoom(code string, quiz models.Quiz, hostIdentity, hostConnID string) *Room {
	return &Room{
		code:            code,
		hostConnID:      hostConnID,
		hostIdentity:    hostIdentity,
		quiz:            quiz,
		players:         make(map[string]*models.Player),
		currentQuestion: -1,
		state:           StateNoQuestion,
	}
}

// Code returns the room's join code.
func (r *Room) Code() string {
	return r.code
}

// IsHost reports whether connID is the connection currently recognized as
// host.
func (r *Room) IsHost(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostConnID == connID
}

// HostConnID returns the host's connection id.
func (r *Room) HostConnID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostConnID
}

// HostIdentity returns the authenticated identity that created the room. It
// outlives connection churn, unlike HostConnID.
func (r *Room) HostIdentity() string {
	return r.hostIdentity
}

// AddPlayer registers a new player on the given connection and returns the
// current player name list and count.
func (r *Room) AddPlayer(connID, name string) (names []string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.players[connID] = &models.Player{Name: name, Seat: r.nextSeat}
	r.nextSeat++
	return r.playerNamesLocked(), len(r.players)
}

// RemovePlayer drops the player on connID if present. It reports whether a
// player was removed and returns the remaining player names.
func (r *Room) RemovePlayer(connID string) (names []string, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[connID]; !ok {
		return nil, false
	}
	delete(r.players, connID)
	return r.playerNamesLocked(), true
}

// HasPlayer reports whether connID belongs to a tracked player.
func (r *Room) HasPlayer(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[connID]
	return ok
}

func (r *Room) playerNamesLocked() []string {
	standings := game.Leaderboard(r.players)
	names := make([]string, len(standings))
	for i, s := range standings {
		names[i] = s.Name
	}
	return names
}

// Advance describes the outcome of an advance-question transition.
type Advance struct {
	GameOver    bool
	Index       int
	Question    models.Question
	Deadline    time.Time
	Leaderboard []game.Standing
}

// AdvanceQuestion moves the room to the next question. When the index moves
// past the last question the room becomes terminal and the final leaderboard
// is returned. ErrGameOver is returned if the room already finished.
func (r *Room) AdvanceQuestion(now time.Time) (Advance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateGameOver {
		return Advance{}, ErrGameOver
	}

	r.currentQuestion++
	if r.currentQuestion >= len(r.quiz.Questions) {
		r.state = StateGameOver
		r.questionDeadline = nil
		return Advance{GameOver: true, Leaderboard: game.Leaderboard(r.players)}, nil
	}

	question := r.quiz.Questions[r.currentQuestion]
	deadline := now.Add(question.TimeLimit())
	r.questionDeadline = &deadline
	r.state = StateQuestionActive
	for _, p := range r.players {
		p.Answered = false
	}

	return Advance{
		Index:    r.currentQuestion,
		Question: question,
		Deadline: deadline,
	}, nil
}

// EndQuestion closes the answer window for the question at index. It is a
// no-op unless that exact question is still the active one, which makes a
// stale timer fire harmless.
func (r *Room) EndQuestion(index int) (correct []int, standings []game.Standing, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateQuestionActive || r.currentQuestion != index {
		return nil, nil, false
	}
	r.state = StateQuestionEnded
	r.questionDeadline = nil

	question := r.quiz.Questions[index]
	return question.CorrectIndices, game.Leaderboard(r.players), true
}

// Submission is the outcome of an accepted answer.
type Submission struct {
	FullyCorrect bool
	Standings    []game.Standing
}

// SubmitAnswer scores the given choices for the player on connID. The first
// accepted submission per question wins; replays, unknown players, and
// submissions outside an active question are ignored. Answers arriving after
// the deadline but before the end timer fires are still accepted, with the
// speed bonus clamped away.
func (r *Room) SubmitAnswer(connID string, choices []int, now time.Time) (Submission, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateQuestionActive || r.questionDeadline == nil {
		return Submission{}, false
	}
	player, ok := r.players[connID]
	if !ok || player.Answered {
		return Submission{}, false
	}

	player.Answered = true
	remaining := r.questionDeadline.Sub(now)
	question := r.quiz.Questions[r.currentQuestion]
	res := game.Score(question.CorrectIndices, choices, remaining)
	player.Score += res.Points

	return Submission{
		FullyCorrect: res.FullyCorrect,
		Standings:    game.Leaderboard(r.players),
	}, true
}

// Standings returns the room's current leaderboard.
func (r *Room) Standings() []game.Standing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return game.Leaderboard(r.players)
}

// CurrentQuestion returns the active question index, -1 before the first
// question starts.
func (r *Room) CurrentQuestion() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentQuestion
}

// CurrentState returns the room's lifecycle state.
func (r *Room) CurrentState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
