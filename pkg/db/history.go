package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RecordSubmission inserts one upload attempt and returns its row id.
func RecordSubmission(db DBExecutor, s Submission) (int64, error) {
	if strings.TrimSpace(s.RunID) == "" {
		return 0, fmt.Errorf("runID must be non-empty")
	}
	if strings.TrimSpace(s.Outcome) == "" {
		return 0, fmt.Errorf("outcome must be non-empty")
	}
	at := s.SubmittedAt
	if at.IsZero() {
		at = time.Now()
	}
	res, err := db.Exec(`INSERT INTO submissions (run_id, expression, reading, deck_name, model_name, outcome, note_id, reason, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Expression, s.Reading, s.DeckName, s.ModelName, s.Outcome, nullableInt64(s.NoteID), s.Reason, at)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	return res.LastInsertId()
}

// nullableInt64 returns nil for 0 (meaning no note) else the value.
func nullableInt64(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

// GetSubmissionsByRun returns the submissions of one run in insertion order.
func GetSubmissionsByRun(db DBExecutor, runID string) ([]Submission, error) {
	return querySubmissions(db, `WHERE run_id = ? ORDER BY id`, runID)
}

// LastCreated returns the most recent created submission of expression, or
// nil when it was never added.
func LastCreated(db DBExecutor, expression string) (*Submission, error) {
	subs, err := querySubmissions(db, `WHERE expression = ? AND outcome = 'created' ORDER BY id DESC LIMIT 1`, expression)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return &subs[0], nil
}

func querySubmissions(db DBExecutor, where string, args ...interface{}) ([]Submission, error) {
	rows, err := db.Query(`SELECT id, run_id, expression, reading, deck_name, model_name, outcome, note_id, reason, submitted_at FROM submissions `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		var reading, deck, model, reason sql.NullString
		var noteID sql.NullInt64
		if err := rows.Scan(&s.ID, &s.RunID, &s.Expression, &reading, &deck, &model, &s.Outcome, &noteID, &reason, &s.SubmittedAt); err != nil {
			return nil, err
		}
		s.Reading = reading.String
		s.DeckName = deck.String
		s.ModelName = model.String
		s.Reason = reason.String
		s.NoteID = noteID.Int64
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
