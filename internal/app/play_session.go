package app

import (
	"context"
	"strings"

	"pychallenge-service/internal/domain"
	"pychallenge-service/internal/metrics"
)

// PlayService starts play sessions against cached challenges.
type PlayService struct {
	challenges ChallengeRepository
	recorder   *AttemptRecorder
	metrics    *metrics.Metrics
}

func NewPlayService(challenges ChallengeRepository, recorder *AttemptRecorder, m *metrics.Metrics) *PlayService {
	return &PlayService{challenges: challenges, recorder: recorder, metrics: m}
}

// Start loads the challenge and opens a fresh attempt for user.
func (s *PlayService) Start(ctx context.Context, challengeID string, user domain.User) (*PlaySession, error) {
	if user.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	challenge, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return NewPlaySession(challenge, user, s.recorder, s.metrics), nil
}

// HintView is what the player sees for one question's hints.
type HintView struct {
	Index       int    `json:"index"`
	Shown       bool   `json:"shown"`
	Hint        string `json:"hint,omitempty"`
	RevealCount int    `json:"revealCount"`
	Progressive string `json:"progressive,omitempty"`
}

// RevealedAnswer is the canonical answer of one question.
type RevealedAnswer struct {
	Index    int    `json:"index"`
	Answer   string `json:"answer"`
	OptionID string `json:"optionId,omitempty"`
}

// PlaySession is one attempt in progress. It is owned by a single connection
// and is discarded without side effects unless Record is called.
type PlaySession struct {
	challenge domain.Challenge
	user      domain.User
	answers   []domain.Submission
	hints     *HintController
	revealed  bool
	result    *domain.ScoreResult
	record    *domain.AttemptRecord
	recorder  *AttemptRecorder
	metrics   *metrics.Metrics
}

func NewPlaySession(challenge domain.Challenge, user domain.User, recorder *AttemptRecorder, m *metrics.Metrics) *PlaySession {
	return &PlaySession{
		challenge: challenge,
		user:      user,
		answers:   make([]domain.Submission, len(challenge.Questions)),
		hints:     NewHintController(challenge.Questions),
		recorder:  recorder,
		metrics:   m,
	}
}

// Challenge returns the challenge being played.
func (p *PlaySession) Challenge() domain.Challenge {
	return p.challenge
}

// SetAnswer replaces the current answer for a question.
func (p *PlaySession) SetAnswer(index int, sub domain.Submission) error {
	if p.result != nil {
		return domain.ErrAlreadySubmitted
	}
	if index < 0 || index >= len(p.answers) {
		return domain.ErrQuestionNotFound
	}
	p.answers[index] = domain.Submission{Text: sub.Text, OptionID: strings.TrimSpace(sub.OptionID)}
	return nil
}

// ToggleHint shows or hides the static hint.
func (p *PlaySession) ToggleHint(index int) (HintView, error) {
	state, err := p.hints.Toggle(index)
	if err != nil {
		return HintView{}, err
	}
	return p.hintView(index, state), nil
}

// RequestHint discloses one more character of the answer.
func (p *PlaySession) RequestHint(index int) (HintView, error) {
	state, err := p.hints.RequestProgressive(index)
	if err != nil {
		return HintView{}, err
	}
	return p.hintView(index, state), nil
}

func (p *PlaySession) hintView(index int, state HintState) HintView {
	q := p.challenge.Questions[index]
	view := HintView{Index: index, Shown: state.Shown, RevealCount: state.RevealCount}
	if state.Shown {
		view.Hint = q.Hint
	}
	if state.RevealCount > 0 {
		view.Progressive = RenderHint(q, state.RevealCount)
	}
	return view
}

// RevealAnswers returns every canonical answer. Revealing before submission
// marks the attempt as answersRevealed.
func (p *PlaySession) RevealAnswers() []RevealedAnswer {
	if p.result == nil {
		p.revealed = true
	}
	out := make([]RevealedAnswer, 0, len(p.challenge.Questions))
	for i, q := range p.challenge.Questions {
		ra := RevealedAnswer{Index: i, Answer: q.CorrectAnswerText()}
		if opt, ok := q.CorrectOption(); ok {
			ra.OptionID = opt.ID
		}
		out = append(out, ra)
	}
	return out
}

// AnswersRevealed reports whether answers were revealed before submission.
func (p *PlaySession) AnswersRevealed() bool {
	return p.revealed
}

// Submit scores the current answers and freezes the session.
func (p *PlaySession) Submit() (domain.ScoreResult, error) {
	if p.result != nil {
		return *p.result, domain.ErrAlreadySubmitted
	}
	result := Score(p.challenge, p.answers)
	p.result = &result
	p.metrics.AttemptsScored.Inc()
	return result, nil
}

// Result returns the score once the session has been submitted.
func (p *PlaySession) Result() (domain.ScoreResult, bool) {
	if p.result == nil {
		return domain.ScoreResult{}, false
	}
	return *p.result, true
}

// Record persists the submitted attempt once. A failed write may be retried by
// the caller; the computed score is unaffected either way.
func (p *PlaySession) Record(ctx context.Context) (domain.AttemptRecord, error) {
	if p.result == nil {
		return domain.AttemptRecord{}, domain.ErrNotSubmitted
	}
	if p.record != nil {
		return *p.record, nil
	}
	record, err := p.recorder.Record(ctx, p.challenge, *p.result, p.user, p.revealed)
	if err != nil {
		return record, err
	}
	p.record = &record
	return record, nil
}
