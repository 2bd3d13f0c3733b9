package domain

import "time"

// Collections used in the document store.
const (
	ChallengesCollection = "challenges"
	AttemptsCollection   = "attempts"
)

// User is the identity of the caller as provided by the auth layer.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// DisplayLabel is the name stored on records written on behalf of the user.
func (u User) DisplayLabel() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Option represents a possible answer for a multiple-choice question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Challenge is an author-defined quiz. It is never edited after creation.
type Challenge struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	CreatedBy     string     `json:"createdBy"`
	CreatedByName string     `json:"createdByName"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	Questions     []Question `json:"questions"`
}

// Submission is the player's answer for one question: free text for open
// questions, an option ID for multiple-choice ones.
type Submission struct {
	Text     string `json:"text,omitempty"`
	OptionID string `json:"optionId,omitempty"`
}

// QuestionResult reports whether the submission for the question at Index was correct.
type QuestionResult struct {
	Index   int  `json:"index"`
	Correct bool `json:"correct"`
}

// ScoreResult is the outcome of scoring a full submission against a challenge.
type ScoreResult struct {
	CorrectCount int              `json:"correctCount"`
	Total        int              `json:"total"`
	Results      []QuestionResult `json:"results"`
}

// AttemptRecord is one completed play-through. Display fields are copied at write time.
// CreatedAt stays nil until the store has resolved the server timestamp.
type AttemptRecord struct {
	ID              string     `json:"id"`
	ChallengeID     string     `json:"challengeId"`
	ChallengeTitle  string     `json:"challengeTitle"`
	UserID          string     `json:"userId"`
	UserName        string     `json:"userName"`
	Score           int        `json:"score"`
	TotalQuestions  int        `json:"totalQuestions"`
	AnswersRevealed bool       `json:"answersRevealed"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

// Document is a raw record read back from the document store. Fields are
// untyped: anything written by older clients or by hand may show up here.
type Document struct {
	ID     string
	Fields map[string]any
}

// LeaderboardEntry is an attempt with its display position (1-based).
type LeaderboardEntry struct {
	Rank    int           `json:"rank"`
	Attempt AttemptRecord `json:"attempt"`
}

// Leaderboard ranks the most recent attempts, up to Window of them, not every
// attempt ever recorded.
type Leaderboard struct {
	Window      int                `json:"window"`
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generatedAt"`
}
