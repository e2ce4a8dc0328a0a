// Package submit sends one extracted entry to the flashcard backend.
package submit

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/japaniel/jisho2anki/pkg/anki"
	"github.com/japaniel/jisho2anki/pkg/config"
	"github.com/japaniel/jisho2anki/pkg/jisho"
	"github.com/japaniel/jisho2anki/pkg/mapping"
)

// ProvenanceTag is appended to the tags of every submitted note.
const ProvenanceTag = "jisho2anki"

// Outcome is the terminal state of one submission.
type Outcome string

const (
	Created   Outcome = "created"
	Duplicate Outcome = "duplicate"
	Failed    Outcome = "failed"
)

// Result describes what happened to one submission.
type Result struct {
	Outcome Outcome
	// NoteID is set when Outcome is Created.
	NoteID int64
	// Reason is the backend's message when Outcome is Failed.
	Reason string
}

// NoteAdder is the part of the backend a submission needs.
type NoteAdder interface {
	AddNote(ctx context.Context, note anki.Note) (*int64, error)
}

// Pipeline validates, maps and submits entries.
type Pipeline struct {
	Backend NoteAdder
	Logger  zerolog.Logger
}

// New creates a Pipeline posting to backend.
func New(backend NoteAdder, logger zerolog.Logger) *Pipeline {
	return &Pipeline{Backend: backend, Logger: logger}
}

// Submit turns e into a note and adds it. A configuration problem is
// returned as an error and nothing is sent; every backend problem is
// reported as a Failed result instead.
func (p *Pipeline) Submit(ctx context.Context, e *jisho.Entry, cfg config.MappingConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	fields, err := mapping.ForNoteType(e, cfg, cfg.NoteTypeName)
	if err != nil {
		return Result{}, err
	}

	note := anki.Note{
		DeckName:  cfg.DeckName,
		ModelName: cfg.NoteTypeName,
		Fields:    fields,
		Options:   anki.DeckScopedOptions(cfg.DeckName),
		Tags:      NoteTags(cfg.Tags),
	}

	log := p.Logger.With().Str("expression", expression(e)).Str("deck", cfg.DeckName).Logger()
	id, err := p.Backend.AddNote(ctx, note)
	if err != nil {
		reason := err.Error()
		var apiErr *anki.APIError
		if errors.As(err, &apiErr) {
			reason = apiErr.Message
		}
		log.Warn().Str("reason", reason).Msg("submission failed")
		return Result{Outcome: Failed, Reason: reason}, nil
	}
	if id == nil {
		log.Info().Msg("note already exists")
		return Result{Outcome: Duplicate}, nil
	}
	log.Info().Int64("note_id", *id).Msg("note created")
	return Result{Outcome: Created, NoteID: *id}, nil
}

// NoteTags splits every configured tag on whitespace, drops blanks and
// appends ProvenanceTag.
func NoteTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		out = append(out, strings.Fields(t)...)
	}
	return append(out, ProvenanceTag)
}

func expression(e *jisho.Entry) string {
	if e == nil {
		return ""
	}
	return e.Expression
}
