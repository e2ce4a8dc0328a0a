package db

import "time"

// Submission is one recorded upload attempt.
type Submission struct {
	ID          int64
	RunID       string
	Expression  string
	Reading     string
	DeckName    string
	ModelName   string
	Outcome     string
	NoteID      int64
	Reason      string
	SubmittedAt time.Time
}
