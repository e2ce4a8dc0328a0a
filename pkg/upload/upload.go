// Package upload submits many entries concurrently and records the
// outcome of each in the submission history.
package upload

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/japaniel/jisho2anki/pkg/config"
	"github.com/japaniel/jisho2anki/pkg/db"
	"github.com/japaniel/jisho2anki/pkg/jisho"
	"github.com/japaniel/jisho2anki/pkg/submit"
)

// Submitter submits one entry. *submit.Pipeline implements it.
type Submitter interface {
	Submit(ctx context.Context, e *jisho.Entry, cfg config.MappingConfig) (submit.Result, error)
}

// Item is the outcome of one entry of a run.
type Item struct {
	Entry  *jisho.Entry
	Result submit.Result
	// Err is set when the entry never reached the backend.
	Err error
}

// Report summarizes a run.
type Report struct {
	RunID      string
	Items      []Item
	Created    int
	Duplicates int
	Failed     int
}

// Uploader submits entries with a fixed number of workers.
type Uploader struct {
	Submitter Submitter
	// DB receives the submission history. nil disables history.
	DB        *sql.DB
	Workers   int
	BatchSize int
	Logger    zerolog.Logger
	// OnProgress is called after each entry with the number finished so far.
	OnProgress func(done, total int)

	// PoolFactory lets tests replace the worker pool.
	PoolFactory func(workers, queue int) Pool
}

// Pool abstracts the worker pool.
type Pool interface {
	Start(ctx context.Context)
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// New creates an Uploader with default concurrency.
func New(s Submitter, conn *sql.DB, logger zerolog.Logger) *Uploader {
	return &Uploader{
		Submitter: s,
		DB:        conn,
		Workers:   4,
		BatchSize: 20,
		Logger:    logger,
	}
}

// Upload submits every entry and returns their results in input order. A
// configuration error aborts the run before anything is sent.
func (u *Uploader) Upload(ctx context.Context, entries []*jisho.Entry, cfg config.MappingConfig) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Mapping(cfg.NoteTypeName); err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString(), Items: make([]Item, len(entries))}
	log := u.Logger.With().Str("run_id", report.RunID).Logger()
	if len(entries) == 0 {
		return report, nil
	}

	var bw *BatchWriter
	if u.DB != nil {
		bw = NewBatchWriter(u.DB, u.BatchSize, 200*time.Millisecond)
		bw.OnError = func(err error) {
			log.Error().Err(err).Msg("history batch failed")
		}
	}

	var pool Pool
	if u.PoolFactory != nil {
		pool = u.PoolFactory(u.Workers, u.Workers*2)
	} else {
		pool = NewWorkerPool(u.Workers, u.Workers*2)
	}
	pool.Start(ctx)

	var done int64
	total := len(entries)
	var submitErr error
	for i, e := range entries {
		idx, entry := i, e
		report.Items[idx].Entry = entry
		job := func(ctx context.Context) error {
			res, err := u.Submitter.Submit(ctx, entry, cfg)
			report.Items[idx].Result = res
			report.Items[idx].Err = err
			if err == nil && bw != nil {
				sub := historyRow(report.RunID, entry, cfg, res)
				if werr := bw.Submit(func(_ context.Context, tx *sql.Tx) error {
					_, err := db.RecordSubmission(tx, sub)
					return err
				}); werr != nil {
					log.Warn().Err(werr).Msg("history not recorded")
				}
			}
			n := atomic.AddInt64(&done, 1)
			if u.OnProgress != nil {
				u.OnProgress(int(n), total)
			}
			return err
		}
		if err := pool.SubmitCtx(ctx, job); err != nil {
			submitErr = err
			for j := idx; j < total; j++ {
				report.Items[j].Entry = entries[j]
				report.Items[j].Err = err
			}
			break
		}
	}
	pool.Close()

	var histErr error
	if bw != nil {
		histErr = bw.Close()
	}

	for _, it := range report.Items {
		switch {
		case it.Err != nil:
		case it.Result.Outcome == submit.Created:
			report.Created++
		case it.Result.Outcome == submit.Duplicate:
			report.Duplicates++
		case it.Result.Outcome == submit.Failed:
			report.Failed++
		}
	}
	log.Info().
		Int("created", report.Created).
		Int("duplicates", report.Duplicates).
		Int("failed", report.Failed).
		Msg("upload finished")

	if submitErr != nil {
		return report, fmt.Errorf("upload interrupted: %w", submitErr)
	}
	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	if histErr != nil && !errors.Is(histErr, ErrBatchWriterClosed) {
		return report, fmt.Errorf("record history: %w", histErr)
	}
	return report, nil
}

func historyRow(runID string, e *jisho.Entry, cfg config.MappingConfig, res submit.Result) db.Submission {
	s := db.Submission{
		RunID:     runID,
		DeckName:  cfg.DeckName,
		ModelName: cfg.NoteTypeName,
		Outcome:   string(res.Outcome),
		NoteID:    res.NoteID,
		Reason:    res.Reason,
	}
	if e != nil {
		s.Expression = e.Expression
		s.Reading = e.Reading
	}
	return s
}
