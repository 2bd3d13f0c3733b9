package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"pychallenge-service/internal/domain"
)

// ChallengeDraft is the author's input for a new challenge.
type ChallengeDraft struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Questions   []QuestionDraft `json:"questions" validate:"required,min=1,dive"`
}

// QuestionDraft accepts both variants. Multiple-choice questions may use
// "text" instead of "prompt"; an empty kind is inferred from the options.
type QuestionDraft struct {
	Kind    domain.QuestionKind `json:"kind" validate:"oneof=open choice"`
	Prompt  string              `json:"prompt" validate:"required"`
	Text    string              `json:"text,omitempty"`
	Answer  string              `json:"answer"`
	Hint    string              `json:"hint"`
	Options []OptionDraft       `json:"options" validate:"omitempty,unique=ID,dive"`
}

type OptionDraft struct {
	ID      string `json:"id"`
	Text    string `json:"text" validate:"required"`
	Correct bool   `json:"correct"`
}

// ChallengeValidator wraps go-playground validator with the question variant rules.
type ChallengeValidator struct {
	validate *validator.Validate
}

func NewChallengeValidator() *ChallengeValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateQuestionVariant, QuestionDraft{})
	return &ChallengeValidator{validate: v}
}

// Normalize trims every string, fills defaults and assigns option ids.
func (d ChallengeDraft) Normalize() ChallengeDraft {
	out := ChallengeDraft{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Questions:   make([]QuestionDraft, 0, len(d.Questions)),
	}
	for _, q := range d.Questions {
		nq := QuestionDraft{
			Kind:   q.Kind,
			Prompt: strings.TrimSpace(q.Prompt),
			Answer: strings.TrimSpace(q.Answer),
			Hint:   strings.TrimSpace(q.Hint),
		}
		if nq.Prompt == "" {
			nq.Prompt = strings.TrimSpace(q.Text)
		}
		if nq.Kind == "" {
			nq.Kind = domain.KindOpenAnswer
			if len(q.Options) > 0 {
				nq.Kind = domain.KindMultipleChoice
			}
		}
		for i, opt := range q.Options {
			id := strings.TrimSpace(opt.ID)
			if id == "" {
				id = fmt.Sprintf("o%d", i+1)
			}
			nq.Options = append(nq.Options, OptionDraft{
				ID:      id,
				Text:    strings.TrimSpace(opt.Text),
				Correct: opt.Correct,
			})
		}
		out.Questions = append(out.Questions, nq)
	}
	return out
}

// Validate checks a normalized draft and reports every problem at once.
func (cv *ChallengeValidator) Validate(draft ChallengeDraft) error {
	err := cv.validate.Struct(draft)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &domain.ValidationError{
			Field:  strings.TrimPrefix(fe.Namespace(), "ChallengeDraft."),
			Reason: reasonFor(fe),
		})
	}
	return out
}

func validateQuestionVariant(sl validator.StructLevel) {
	q := sl.Current().Interface().(QuestionDraft)
	switch q.Kind {
	case domain.KindOpenAnswer:
		if q.Answer == "" {
			sl.ReportError(q.Answer, "answer", "Answer", "required", "")
		}
		if len(q.Options) > 0 {
			sl.ReportError(q.Options, "options", "Options", "excluded_with_open", "")
		}
	case domain.KindMultipleChoice:
		if len(q.Options) < 2 {
			sl.ReportError(q.Options, "options", "Options", "min", "2")
			return
		}
		correct := 0
		for _, opt := range q.Options {
			if opt.Correct {
				correct++
			}
		}
		if correct != 1 {
			sl.ReportError(q.Options, "options", "Options", "one_correct", "")
		}
	}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be blank"
	case "min":
		return "needs at least " + fe.Param() + " entries"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "unique":
		return "option ids must be unique"
	case "one_correct":
		return "exactly one option must be marked correct"
	case "excluded_with_open":
		return "open-answer questions take no options"
	}
	return "failed " + fe.Tag()
}

// questions converts a validated draft into domain questions.
func (d ChallengeDraft) questions() []domain.Question {
	out := make([]domain.Question, 0, len(d.Questions))
	for _, q := range d.Questions {
		dq := domain.Question{Kind: q.Kind, Prompt: q.Prompt}
		if q.Kind == domain.KindMultipleChoice {
			for _, opt := range q.Options {
				dq.Options = append(dq.Options, domain.Option{ID: opt.ID, Text: opt.Text, Correct: opt.Correct})
			}
		} else {
			dq.Answer = q.Answer
			dq.Hint = q.Hint
		}
		out = append(out, dq)
	}
	return out
}
