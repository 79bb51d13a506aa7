package models

import (
	"errors"
	"time"
)

// DefaultTimeLimitSec is the answer window applied when a question does not
// carry its own limit.
const DefaultTimeLimitSec = 20

// Question is a single prompt in a quiz. A question may have more than one
// correct choice; players submitting the exact correct set earn the speed
// bonus.
type Question struct {
	Text           string   `json:"text"`
	Choices        []string `json:"choices"`
	CorrectIndices []int    `json:"correctIndices"`
	TimeLimitSec   int      `json:"timeLimitSec,omitempty"`
}

// TimeLimit returns the answer window for this question.
func (q Question) TimeLimit() time.Duration {
	secs := q.TimeLimitSec
	if secs <= 0 {
		secs = DefaultTimeLimitSec
	}
	return time.Duration(secs) * time.Second
}

// MultipleAllowed reports whether the question expects more than one choice.
func (q Question) MultipleAllowed() bool {
	return len(q.CorrectIndices) > 1
}

// Quiz is the ordered question set a host supplies when creating a room.
// Quizzes are never persisted; they arrive fully formed with the
// room-creation request.
type Quiz struct {
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// Validate checks that the quiz can actually be played: at least one
// question, and every question with at least one in-range correct choice.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return errors.New("quiz has no questions")
	}
	for _, question := range q.Questions {
		if len(question.Choices) < 2 {
			return errors.New("question needs at least two choices")
		}
		if len(question.CorrectIndices) == 0 {
			return errors.New("question has no correct choice")
		}
		for _, idx := range question.CorrectIndices {
			if idx < 0 || idx >= len(question.Choices) {
				return errors.New("correct choice index out of range")
			}
		}
	}
	return nil
}
