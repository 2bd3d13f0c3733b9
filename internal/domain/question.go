package domain

import (
	"strings"
	"unicode/utf8"
)

// QuestionKind selects the variant of a Question.
type QuestionKind string

const (
	KindOpenAnswer     QuestionKind = "open"
	KindMultipleChoice QuestionKind = "choice"
)

// Question is either an open-answer question (Answer, optional Hint) or a
// multiple-choice question (Options with exactly one Correct).
type Question struct {
	Kind    QuestionKind `json:"kind"`
	Prompt  string       `json:"prompt"`
	Answer  string       `json:"answer,omitempty"`
	Hint    string       `json:"hint,omitempty"`
	Options []Option     `json:"options,omitempty"`
}

// IsMultipleChoice reports whether the question is answered by picking an option.
func (q Question) IsMultipleChoice() bool {
	return q.Kind == KindMultipleChoice
}

// HasHint reports whether a static hint control should be offered at all.
func (q Question) HasHint() bool {
	return !q.IsMultipleChoice() && strings.TrimSpace(q.Hint) != ""
}

// CorrectOption returns the option flagged correct.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt, true
		}
	}
	return Option{}, false
}

// RevealCap is the largest number of characters a progressive hint may disclose.
// It is always one less than the answer length so the full answer is never revealed.
func (q Question) RevealCap() int {
	if q.IsMultipleChoice() {
		return 0
	}
	n := utf8.RuneCountInString(q.Answer) - 1
	if n < 0 {
		return 0
	}
	return n
}

// CorrectAnswerText is what "reveal answers" shows for the question.
func (q Question) CorrectAnswerText() string {
	if q.IsMultipleChoice() {
		if opt, ok := q.CorrectOption(); ok {
			return opt.Text
		}
		return ""
	}
	return q.Answer
}

// Check reports whether sub answers the question. Blank submissions are never correct.
func (q Question) Check(sub Submission) bool {
	if q.IsMultipleChoice() {
		if sub.OptionID == "" {
			return false
		}
		opt, ok := q.CorrectOption()
		return ok && opt.ID == sub.OptionID
	}
	given := NormalizeAnswer(sub.Text)
	if given == "" {
		return false
	}
	return given == NormalizeAnswer(q.Answer)
}

// NormalizeAnswer trims surrounding whitespace and lower-cases s.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PublicOption is an option without its correctness flag.
type PublicOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PublicQuestion is what a player sees before answers are revealed.
type PublicQuestion struct {
	Index     int            `json:"index"`
	Kind      QuestionKind   `json:"kind"`
	Prompt    string         `json:"prompt"`
	HasHint   bool           `json:"hasHint"`
	RevealCap int            `json:"revealCap"`
	Options   []PublicOption `json:"options,omitempty"`
}

// PublicChallenge is a challenge with every answer stripped.
type PublicChallenge struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	CreatedBy     string           `json:"createdBy"`
	CreatedByName string           `json:"createdByName"`
	QuestionCount int              `json:"questionCount"`
	Questions     []PublicQuestion `json:"questions"`
}

// Public strips answers, hints and correctness flags.
func (c Challenge) Public() PublicChallenge {
	questions := make([]PublicQuestion, 0, len(c.Questions))
	for i, q := range c.Questions {
		pq := PublicQuestion{
			Index:     i,
			Kind:      q.Kind,
			Prompt:    q.Prompt,
			HasHint:   q.HasHint(),
			RevealCap: q.RevealCap(),
		}
		for _, opt := range q.Options {
			pq.Options = append(pq.Options, PublicOption{ID: opt.ID, Text: opt.Text})
		}
		questions = append(questions, pq)
	}
	return PublicChallenge{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		CreatedBy:     c.CreatedBy,
		CreatedByName: c.CreatedByName,
		QuestionCount: len(c.Questions),
		Questions:     questions,
	}
}
