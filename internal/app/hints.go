package app

import (
	"strings"

	"pychallenge-service/internal/domain"
)

// HintMask replaces every undisclosed character of a progressive hint.
const HintMask = '•'

// HintState is the hint disclosure state of one question within one attempt.
type HintState struct {
	Shown       bool `json:"shown"`
	RevealCount int  `json:"revealCount"`
}

// HintController tracks hint disclosure for every question of one attempt.
// It belongs to a single play session and is not safe for concurrent use.
type HintController struct {
	questions []domain.Question
	states    []HintState
}

func NewHintController(questions []domain.Question) *HintController {
	return &HintController{
		questions: questions,
		states:    make([]HintState, len(questions)),
	}
}

// Toggle flips the static hint panel. Questions without a hint are left untouched.
func (h *HintController) Toggle(index int) (HintState, error) {
	if err := h.check(index); err != nil {
		return HintState{}, err
	}
	if h.questions[index].HasHint() {
		h.states[index].Shown = !h.states[index].Shown
	}
	return h.states[index], nil
}

// RequestProgressive discloses one more character of the answer, never the
// last one. Requests past the cap are clamped silently. The static hint panel
// is opened as a side effect when the question has one.
func (h *HintController) RequestProgressive(index int) (HintState, error) {
	if err := h.check(index); err != nil {
		return HintState{}, err
	}
	q := h.questions[index]
	if q.IsMultipleChoice() {
		return h.states[index], nil
	}
	state := &h.states[index]
	if state.RevealCount < q.RevealCap() {
		state.RevealCount++
	}
	if q.HasHint() {
		state.Shown = true
	}
	return *state, nil
}

func (h *HintController) check(index int) error {
	if index < 0 || index >= len(h.questions) {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// RenderHint returns the first revealCount characters of the answer followed by
// one mask character per remaining character. revealCount is clamped to the
// question's cap, so the result never equals the full answer unless it is empty.
func RenderHint(q domain.Question, revealCount int) string {
	if q.IsMultipleChoice() || q.Answer == "" {
		return ""
	}
	if revealCount < 0 {
		revealCount = 0
	}
	if limit := q.RevealCap(); revealCount > limit {
		revealCount = limit
	}
	var b strings.Builder
	i := 0
	for _, r := range q.Answer {
		if i < revealCount {
			b.WriteRune(r)
		} else {
			b.WriteRune(HintMask)
		}
		i++
	}
	return b.String()
}
