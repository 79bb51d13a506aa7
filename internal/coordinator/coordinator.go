package coordinator

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/quizdash/quizdash/internal/auth"
	"github.com/quizdash/quizdash/internal/bus"
	"github.com/quizdash/quizdash/internal/events"
	"github.com/quizdash/quizdash/internal/room"
)

// ErrUnauthorized is returned for missing or invalid identity tokens.
var ErrUnauthorized = errors.New("unauthorized: invalid or expired token")

// ErrForbidden is returned when a valid identity lacks the host role.
var ErrForbidden = errors.New("forbidden: host role required")

// TokenVerifier validates identity tokens from the external identity
// provider.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Coordinator is the session event-handling layer. It validates inbound
// events, drives room transitions through the registry, schedules
// question-end timers, and publishes outbound broadcasts. One coordinator
// serves all rooms; per-room serialization lives in the rooms themselves.
type Coordinator struct {
	registry  *room.Registry
	transport bus.Transport
	verifier  TokenVerifier
	clock     clockwork.Clock

	activeTimersMu sync.Mutex
	activeTimers   map[string]clockwork.Timer

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a coordinator. Pass clockwork.NewRealClock() in production; a
// FakeClock makes question-end timers deterministic in tests.
func New(registry *room.Registry, transport bus.Transport, verifier TokenVerifier, clock clockwork.Clock) *Coordinator {
	return &Coordinator{
		registry:     registry,
		transport:    transport,
		verifier:     verifier,
		clock:        clock,
		activeTimers: make(map[string]clockwork.Timer),
		done:         make(chan struct{}),
	}
}

// Close stops all pending question-end timers.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// HandleCommand routes one inbound client frame. Validation failures are
// reported back to the originating connection only; they never reach the
// rest of the room.
func (c *Coordinator) HandleCommand(connID string, cmd events.Command) {
	var err error
	switch cmd.Type {
	case events.CmdCreateRoom:
		var p events.CreateRoomPayload
		if err = json.Unmarshal(cmd.Data, &p); err == nil {
			err = c.CreateRoom(connID, p)
		}
	case events.CmdJoinRoom:
		var p events.JoinRoomPayload
		if err = json.Unmarshal(cmd.Data, &p); err == nil {
			err = c.JoinRoom(connID, p)
		}
	case events.CmdNextQuestion:
		var p events.NextQuestionPayload
		if err = json.Unmarshal(cmd.Data, &p); err == nil {
			err = c.NextQuestion(connID, p)
		}
	case events.CmdSubmitAnswer:
		var p events.SubmitAnswerPayload
		if err = json.Unmarshal(cmd.Data, &p); err == nil {
			err = c.SubmitAnswer(connID, p)
		}
	default:
		log.Debug().
			Str("connection_id", connID).
			Str("command", cmd.Type).
			Msg("ignoring unknown command")
		return
	}

	if err != nil {
		c.sendError(connID, err.Error())
	}
}

// CreateRoom validates the caller's identity token and allocates a room for
// its quiz. Only the host role may create rooms.
func (c *Coordinator) CreateRoom(connID string, p events.CreateRoomPayload) error {
	claims, err := c.verifier.Verify(p.AuthToken)
	if err != nil {
		return ErrUnauthorized
	}
	if claims.Role != auth.RoleHost {
		return ErrForbidden
	}
	if err := p.Quiz.Validate(); err != nil {
		return err
	}

	r, err := c.registry.Create(p.Quiz, claims.UserID, connID)
	if err != nil {
		return err
	}

	c.transport.Join(r.Code(), connID)
	c.transport.ToConn(connID, events.Event{
		Type: events.TypeRoomCreated,
		Data: events.RoomCreatedPayload{RoomCode: r.Code()},
	})

	log.Info().
		Str("room_code", r.Code()).
		Str("host_id", claims.UserID).
		Int("questions", len(p.Quiz.Questions)).
		Msg("room created")
	return nil
}

// JoinRoom adds an anonymous player to a room and tells the whole group.
func (c *Coordinator) JoinRoom(connID string, p events.JoinRoomPayload) error {
	r, err := c.registry.Get(p.RoomCode)
	if err != nil {
		return err
	}

	names, count := r.AddPlayer(connID, p.DisplayName)
	c.transport.Join(r.Code(), connID)
	c.broadcastPlayers(r.Code(), names, count)

	log.Info().
		Str("room_code", r.Code()).
		Str("player", p.DisplayName).
		Int("players", count).
		Msg("player joined")
	return nil
}

// NextQuestion advances the host's room. Past the last question the room
// goes terminal and the final leaderboard is broadcast. Calls from
// connections other than the host are silently ignored.
func (c *Coordinator) NextQuestion(connID string, p events.NextQuestionPayload) error {
	r, err := c.registry.Get(p.RoomCode)
	if err != nil {
		return err
	}
	if !r.IsHost(connID) {
		log.Debug().
			Str("room_code", r.Code()).
			Str("connection_id", connID).
			Msg("ignoring next_question from non-host")
		return nil
	}

	adv, err := r.AdvanceQuestion(c.clock.Now())
	if err != nil {
		return err
	}

	if adv.GameOver {
		c.cancelTimer(r.Code())
		c.transport.ToRoom(r.Code(), events.Event{
			Type: events.TypeGameOver,
			Data: events.GameOverPayload{Leaderboard: adv.Leaderboard},
		})
		log.Info().Str("room_code", r.Code()).Msg("game over")
		return nil
	}

	c.transport.ToRoom(r.Code(), events.Event{
		Type: events.TypeQuestionStarted,
		Data: events.QuestionStartedPayload{
			Index:           adv.Index,
			Text:            adv.Question.Text,
			Choices:         adv.Question.Choices,
			Deadline:        adv.Deadline,
			MultipleAllowed: adv.Question.MultipleAllowed(),
		},
	})
	c.scheduleQuestionEnd(r.Code(), adv.Index, adv.Question.TimeLimit()+questionEndGrace)

	log.Info().
		Str("room_code", r.Code()).
		Int("question", adv.Index).
		Time("deadline", adv.Deadline).
		Msg("question started")
	return nil
}

// SubmitAnswer scores a player's submission. Unknown rooms, unknown players,
// and replays are deliberate no-ops with no error surfaced.
func (c *Coordinator) SubmitAnswer(connID string, p events.SubmitAnswerPayload) error {
	r, err := c.registry.Get(p.RoomCode)
	if err != nil {
		return nil
	}

	sub, ok := r.SubmitAnswer(connID, p.ChoiceIndices, c.clock.Now())
	if !ok {
		return nil
	}

	c.transport.ToConn(connID, events.Event{
		Type: events.TypeAnswerResult,
		Data: events.AnswerResultPayload{Correct: sub.FullyCorrect},
	})
	c.transport.ToConn(r.HostConnID(), events.Event{
		Type: events.TypeLeaderboardUpdate,
		Data: events.LeaderboardUpdatePayload{Standings: sub.Standings},
	})
	return nil
}

// Disconnect sweeps a dropped connection: a host takes its room down with
// it, a player is removed from wherever it was playing.
func (c *Coordinator) Disconnect(connID string) {
	for _, r := range c.registry.HostedBy(connID) {
		c.cancelTimer(r.Code())
		c.registry.Delete(r.Code())
		c.transport.ToRoom(r.Code(), events.Event{Type: events.TypeRoomClosed})
		log.Info().
			Str("room_code", r.Code()).
			Msg("host disconnected, room closed")
	}

	for _, r := range c.registry.Containing(connID) {
		names, removed := r.RemovePlayer(connID)
		if !removed {
			continue
		}
		c.broadcastPlayers(r.Code(), names, len(names))
		log.Info().
			Str("room_code", r.Code()).
			Str("connection_id", connID).
			Msg("player disconnected")
	}
}

// endQuestion fires when a question's answer window closes. The room method
// guards against stale fires, so racing a host's early advance is harmless.
func (c *Coordinator) endQuestion(roomCode string, index int) {
	r, err := c.registry.Get(roomCode)
	if err != nil {
		// Room already closed; expected race, not a fault.
		log.Debug().Str("room_code", roomCode).Msg("question-end fired for closed room")
		return
	}

	correct, standings, ok := r.EndQuestion(index)
	if !ok {
		log.Debug().
			Str("room_code", roomCode).
			Int("question", index).
			Msg("stale question-end fire ignored")
		return
	}

	c.transport.ToRoom(roomCode, events.Event{
		Type: events.TypeQuestionEnded,
		Data: events.QuestionEndedPayload{
			CorrectIndices: correct,
			Leaderboard:    standings,
		},
	})
	log.Info().
		Str("room_code", roomCode).
		Int("question", index).
		Msg("question ended")
}

func (c *Coordinator) broadcastPlayers(roomCode string, names []string, count int) {
	c.transport.ToRoom(roomCode, events.Event{
		Type: events.TypePlayersUpdated,
		Data: events.PlayersUpdatedPayload{Players: names},
	})
	c.transport.ToRoom(roomCode, events.Event{
		Type: events.TypeLobbyCount,
		Data: events.LobbyCountPayload{Count: count},
	})
}

func (c *Coordinator) sendError(connID, message string) {
	c.transport.ToConn(connID, events.Event{
		Type: events.TypeError,
		Data: events.ErrorPayload{Message: message},
	})
}
