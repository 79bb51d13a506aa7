package coordinator

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// questionEndGrace pads the answer window so submissions in flight when the
// deadline passes still land before the question closes.
const questionEndGrace = 200 * time.Millisecond

// scheduleQuestionEnd arms a one-shot timer that closes the question at
// index when it fires. The timer is bound to the question index it was
// scheduled for; firing against a room that moved on is a no-op inside
// endQuestion.
func (c *Coordinator) scheduleQuestionEnd(roomCode string, index int, d time.Duration) {
	timer := c.clock.NewTimer(d)
	c.replaceTimer(roomCode, timer)

	go func() {
		select {
		case <-timer.Chan():
			c.removeTimer(roomCode, timer)
			c.endQuestion(roomCode, index)
		case <-c.done:
			stopAndDrainTimer(timer)
			c.removeTimer(roomCode, timer)
			log.Debug().
				Str("room_code", roomCode).
				Int("question", index).
				Msg("question-end timer cancelled on shutdown")
		}
	}()

	log.Debug().
		Str("room_code", roomCode).
		Int("question", index).
		Dur("duration", d).
		Msg("scheduled question-end timer")
}

// replaceTimer atomically replaces the active timer for a room, cancelling
// any timer still pending from the previous question.
func (c *Coordinator) replaceTimer(roomCode string, newTimer clockwork.Timer) {
	c.activeTimersMu.Lock()
	defer c.activeTimersMu.Unlock()

	if existing, exists := c.activeTimers[roomCode]; exists {
		stopAndDrainTimer(existing)
		log.Debug().Str("room_code", roomCode).Msg("replaced existing question-end timer")
	}
	c.activeTimers[roomCode] = newTimer
}

// cancelTimer cancels and removes the active timer for a room.
func (c *Coordinator) cancelTimer(roomCode string) {
	c.activeTimersMu.Lock()
	defer c.activeTimersMu.Unlock()

	if timer, exists := c.activeTimers[roomCode]; exists {
		stopAndDrainTimer(timer)
		delete(c.activeTimers, roomCode)
		log.Debug().Str("room_code", roomCode).Msg("cancelled question-end timer")
	}
}

// removeTimer clears the room's timer entry after a fire, unless it was
// already replaced by a newer timer.
func (c *Coordinator) removeTimer(roomCode string, fired clockwork.Timer) {
	c.activeTimersMu.Lock()
	defer c.activeTimersMu.Unlock()
	if c.activeTimers[roomCode] == fired {
		delete(c.activeTimers, roomCode)
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel, following
// the pattern from the time.Timer.Stop documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
