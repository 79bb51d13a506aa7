package room

import (
	"testing"
	"time"

	"github.com/quizdash/quizdash/internal/models"
)

func twoQuestionQuiz() models.Quiz {
	return models.Quiz{Questions: []models.Question{
		{Text: "q1", Choices: []string{"a", "b"}, CorrectIndices: []int{1}},
		{Text: "q2", Choices: []string{"a", "b", "c"}, CorrectIndices: []int{0, 2}, TimeLimitSec: 10},
	}}
}

func TestAdvanceQuestionLifecycle(t *testing.T) {
	r := newRoom("ABC234", twoQuestionQuiz(), "host-1", "conn-host")
	now := time.Now()

	if r.CurrentQuestion() != -1 {
		t.Fatalf("expected index -1 before first question, got %d", r.CurrentQuestion())
	}
	if r.CurrentState() != StateNoQuestion {
		t.Fatalf("expected NoQuestion state")
	}

	adv, err := r.AdvanceQuestion(now)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if adv.GameOver || adv.Index != 0 {
		t.Fatalf("expected first question, got %+v", adv)
	}
	if want := now.Add(20 * time.Second); !adv.Deadline.Equal(want) {
		t.Errorf("expected default 20s deadline, got %v", adv.Deadline)
	}

	adv, err = r.AdvanceQuestion(now)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if want := now.Add(10 * time.Second); !adv.Deadline.Equal(want) {
		t.Errorf("expected question time limit to apply, got %v", adv.Deadline)
	}

	adv, err = r.AdvanceQuestion(now)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if !adv.GameOver {
		t.Fatalf("expected game over past last question")
	}
	if r.CurrentState() != StateGameOver {
		t.Fatalf("expected GameOver state")
	}

	if _, err := r.AdvanceQuestion(now); err != ErrGameOver {
		t.Fatalf("expected ErrGameOver after terminal state, got %v", err)
	}
}

func TestAdvanceResetsAnsweredFlags(t *testing.T) {
	r := newRoom("ABC234", twoQuestionQuiz(), "host-1", "conn-host")
	r.AddPlayer("conn-p", "pat")
	now := time.Now()

	if _, err := r.AdvanceQuestion(now); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.SubmitAnswer("conn-p", []int{1}, now); !ok {
		t.Fatalf("expected submission accepted")
	}

	if _, err := r.AdvanceQuestion(now); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.SubmitAnswer("conn-p", []int{0, 2}, now); !ok {
		t.Fatalf("expected answered flag reset on new question")
	}
}

func TestSubmitAnswerReplayIgnored(t *testing.T) {
	r := newRoom("ABC234", twoQuestionQuiz(), "host-1", "conn-host")
	r.AddPlayer("conn-p", "pat")
	now := time.Now()

	if _, err := r.AdvanceQuestion(now); err != nil {
		t.Fatal(err)
	}

	first, ok := r.SubmitAnswer("conn-p", []int{1}, now.Add(5*time.Second))
	if !ok || !first.FullyCorrect {
		t.Fatalf("expected accepted correct submission, got %+v ok=%v", first, ok)
	}
	score := first.Standings[0].Score

	if _, ok := r.SubmitAnswer("conn-p", []int{1}, now); ok {
		t.Fatalf("expected replay to be ignored")
	}
	if got := r.Standings()[0].Score; got != score {
		t.Errorf("replay changed score: %v -> %v", score, got)
	}
}

func TestSubmitAnswerUnknownPlayerIgnored(t *testing.T) {
	r := newRoom("ABC234", twoQuestionQuiz(), "host-1", "conn-host")
	now := time.Now()
	if _, err := r.AdvanceQuestion(now); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.SubmitAnswer("conn-stranger", []int{1}, now); ok {
		t.Fatalf("expected submission from unknown connection to be ignored")
	}
}

func TestSubmitAnswerLateClampsBonus(t *testing.T) {
	r := newRoom("ABC234", twoQuestionQuiz(), "host-1", "conn-host")
	r.AddPlayer("conn-p", "pat")
	now := time.Now()
	if _, err := r.AdvanceQuestion(now); err != nil {
		t.Fatal(err)
	}

	// Past the deadline but before the end timer: accepted, no speed bonus.
	sub, ok := r.SubmitAnswer("conn-p", []int{1}, now.Add(25*time.Second))
	if !ok {
		t.Fatalf("expected late submission accepted")
	}
	if got := sub.Standings[0].Score; got != 1000 {
		t.Errorf("expected 1000 for late correct answer, got %v", got)
	}
}

func TestEndQuestionGuards(t *testing.T) {
	r := newRoom("ABC234", twoQuestionQuiz(), "host-1", "conn-host")
	now := time.Now()
	if _, err := r.AdvanceQuestion(now); err != nil {
		t.Fatal(err)
	}

	correct, _, ok := r.EndQuestion(0)
	if !ok {
		t.Fatalf("expected end to apply for active question")
	}
	if len(correct) != 1 || correct[0] != 1 {
		t.Errorf("unexpected correct set %v", correct)
	}

	// Second fire for the same index is a no-op.
	if _, _, ok := r.EndQuestion(0); ok {
		t.Fatalf("expected duplicated end fire to be ignored")
	}

	// A stale fire for an old index is a no-op too.
	if _, err := r.AdvanceQuestion(now); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := r.EndQuestion(0); ok {
		t.Fatalf("expected stale index end fire to be ignored")
	}
	if _, _, ok := r.EndQuestion(1); !ok {
		t.Fatalf("expected current index end fire to apply")
	}
}

func TestSubmitAfterEndIgnored(t *testing.T) {
	r := newRoom("ABC234", twoQuestionQuiz(), "host-1", "conn-host")
	r.AddPlayer("conn-p", "pat")
	now := time.Now()
	if _, err := r.AdvanceQuestion(now); err != nil {
		t.Fatal(err)
	}
	r.EndQuestion(0)

	if _, ok := r.SubmitAnswer("conn-p", []int{1}, now); ok {
		t.Fatalf("expected submission after question end to be ignored")
	}
}
