package game

import (
	"testing"
	"time"
)

func TestScoreFullyCorrect(t *testing.T) {
	testCases := []struct {
		name      string
		correct   []int
		submitted []int
		remaining time.Duration
		want      float64
	}{
		{"single choice with 5s left", []int{1}, []int{1}, 5 * time.Second, 1100},
		{"single choice at the wire", []int{1}, []int{1}, 0, 1000},
		{"single choice past the wire", []int{1}, []int{1}, -3 * time.Second, 1000},
		{"multi select exact", []int{0, 2}, []int{2, 0}, time.Second, 1020},
		{"duplicate picks still exact", []int{0, 2}, []int{0, 2, 2, 0}, time.Second, 1020},
		{"full 20s window", []int{3}, []int{3}, 20 * time.Second, 1400},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(tc.correct, tc.submitted, tc.remaining)
			if !res.FullyCorrect {
				t.Fatalf("expected fully correct submission")
			}
			if res.Points != tc.want {
				t.Errorf("expected %v points, got %v", tc.want, res.Points)
			}
		})
	}
}

func TestScorePartialCredit(t *testing.T) {
	testCases := []struct {
		name      string
		correct   []int
		submitted []int
		want      float64
	}{
		{"one of two", []int{0, 2}, []int{0}, 500},
		{"one of two plus wrong extra", []int{0, 2}, []int{0, 1}, 500},
		{"two of three", []int{0, 1, 2}, []int{0, 1}, 1000.0 / 3 * 2},
		{"all correct but contaminated", []int{0, 2}, []int{0, 2, 3}, 1000},
		{"wrong extras do not stack", []int{0, 2}, []int{0, 1, 3}, 500},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Partial credit never earns the speed bonus, regardless of time left.
			res := Score(tc.correct, tc.submitted, 10*time.Second)
			if res.FullyCorrect {
				t.Fatalf("expected partial submission, got fully correct")
			}
			if res.Points != tc.want {
				t.Errorf("expected %v points, got %v", tc.want, res.Points)
			}
		})
	}
}

func TestScoreNoCorrectChoices(t *testing.T) {
	res := Score([]int{0}, []int{1}, 10*time.Second)
	if res.FullyCorrect {
		t.Fatalf("expected incorrect submission")
	}
	if res.Points != 0 {
		t.Errorf("expected 0 points, got %v", res.Points)
	}
}

func TestScoreSpeedBonusMonotone(t *testing.T) {
	prev := Score([]int{1}, []int{1}, 20*time.Second).Points
	for remaining := 19 * time.Second; remaining >= 0; remaining -= time.Second {
		cur := Score([]int{1}, []int{1}, remaining).Points
		if cur > prev {
			t.Fatalf("score increased as remaining time decreased: %v -> %v at %v", prev, cur, remaining)
		}
		prev = cur
	}
}

func TestScoreBonusGranularity(t *testing.T) {
	// One bonus point per full 50ms remaining.
	if got := Score([]int{0}, []int{0}, 49*time.Millisecond).Points; got != 1000 {
		t.Errorf("49ms remaining: expected 1000, got %v", got)
	}
	if got := Score([]int{0}, []int{0}, 50*time.Millisecond).Points; got != 1001 {
		t.Errorf("50ms remaining: expected 1001, got %v", got)
	}
	if got := Score([]int{0}, []int{0}, 5000*time.Millisecond).Points; got != 1100 {
		t.Errorf("5000ms remaining: expected 1100, got %v", got)
	}
}
