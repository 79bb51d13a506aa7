package game

import (
	"time"
)

const (
	// fullCorrectBase is awarded for an exactly-correct submission before
	// the speed bonus.
	fullCorrectBase = 1000

	// bonusWindow is how much remaining time buys one bonus point.
	bonusWindow = 50 * time.Millisecond
)

// Result describes the outcome of scoring one submission.
type Result struct {
	Points       float64
	FullyCorrect bool
}

// Score awards points for a submission against a question's correct-choice
// set. Submissions matching the correct set exactly earn the base plus one
// bonus point per 50ms remaining. Partially correct multi-select answers earn
// linear partial credit with no bonus; wrong extra picks beyond losing the
// perfect path cost nothing. Remaining time below zero is treated as zero.
func Score(correctSet []int, submitted []int, remaining time.Duration) Result {
	if remaining < 0 {
		remaining = 0
	}

	correct := make(map[int]bool, len(correctSet))
	for _, idx := range correctSet {
		correct[idx] = true
	}

	seen := make(map[int]bool, len(submitted))
	hits := 0
	misses := 0
	for _, idx := range submitted {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		if correct[idx] {
			hits++
		} else {
			misses++
		}
	}

	switch {
	case hits == len(correct) && misses == 0:
		bonus := int64(remaining / bonusWindow)
		return Result{Points: float64(fullCorrectBase + bonus), FullyCorrect: true}
	case hits > 0:
		return Result{Points: fullCorrectBase / float64(len(correct)) * float64(hits)}
	default:
		return Result{}
	}
}
