package app

import "pychallenge-service/internal/domain"

// Score checks every question of the challenge against the submission at the
// same index. Missing or blank submissions are scored incorrect. Score has no
// side effects and returns the same result for the same inputs.
func Score(challenge domain.Challenge, answers []domain.Submission) domain.ScoreResult {
	result := domain.ScoreResult{
		Total:   len(challenge.Questions),
		Results: make([]domain.QuestionResult, 0, len(challenge.Questions)),
	}
	for i, q := range challenge.Questions {
		var sub domain.Submission
		if i < len(answers) {
			sub = answers[i]
		}
		correct := q.Check(sub)
		if correct {
			result.CorrectCount++
		}
		result.Results = append(result.Results, domain.QuestionResult{Index: i, Correct: correct})
	}
	return result
}
