package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/japaniel/jisho2anki/pkg/anki"
	"github.com/japaniel/jisho2anki/pkg/config"
	"github.com/japaniel/jisho2anki/pkg/db"
	"github.com/japaniel/jisho2anki/pkg/jisho"
	"github.com/japaniel/jisho2anki/pkg/lemma"
	"github.com/japaniel/jisho2anki/pkg/mapping"
	"github.com/japaniel/jisho2anki/pkg/submit"
	"github.com/japaniel/jisho2anki/pkg/upload"
)

// errUsage reports a command line that asks for nothing.
var errUsage = errors.New("nothing to do: pass --query, --file, --list, --show-config or a --set-* flag")

type app struct {
	cfg    *appConfig
	opts   *options
	conn   *sql.DB
	store  config.Store
	log    zerolog.Logger
	stdout io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, cfg.LogLevel)

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	conn, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Debug().Str("path", cfg.DB).Msg("database ready")

	a := &app{
		cfg:    cfg,
		opts:   opts,
		conn:   conn,
		store:  db.NewSettingsStore(conn),
		log:    logger,
		stdout: stdout,
	}
	return a.dispatch(ctx)
}

func (a *app) dispatch(ctx context.Context) error {
	settings, err := config.Load(ctx, a.store)
	if err != nil {
		return err
	}

	acted := false
	if a.opts.configures() {
		if settings, err = a.configure(ctx, settings); err != nil {
			return err
		}
		acted = true
	}
	if a.opts.Show {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(settings); err != nil {
			return err
		}
		acted = true
	}
	if a.opts.List != "" {
		return a.list(ctx, settings)
	}

	queries, err := a.queries()
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		if acted {
			return nil
		}
		return errUsage
	}
	return a.process(ctx, settings, queries)
}

// configure applies the --set-* and --map flags and saves the result.
func (a *app) configure(ctx context.Context, cfg config.MappingConfig) (config.MappingConfig, error) {
	if a.opts.SetURL != "" {
		cfg.BackendURL = a.opts.SetURL
	}
	if a.opts.SetDeck != "" {
		cfg.DeckName = a.opts.SetDeck
	}
	if a.opts.SetModel != "" {
		cfg.NoteTypeName = a.opts.SetModel
	}
	if a.opts.SetTags != "" {
		cfg.Tags = strings.Fields(a.opts.SetTags)
	}
	if len(a.opts.Maps) > 0 {
		if cfg.NoteTypeName == "" {
			return cfg, &config.Error{Field: "modelName", Message: "set a note type before mapping its fields"}
		}
		fields, err := parseMappings(a.opts.Maps)
		if err != nil {
			return cfg, err
		}
		for field, keys := range fields {
			for _, k := range keys {
				if !mapping.IsSourceKey(k) {
					a.log.Warn().Str("field", field).Str("key", k).
						Strs("valid", mapping.SourceKeys()).
						Msg("unknown source key will map to nothing")
				}
			}
		}
		cfg.SetMapping(cfg.NoteTypeName, fields)
	}
	if err := config.Save(ctx, a.store, cfg); err != nil {
		return cfg, err
	}
	fmt.Fprintln(a.stdout, "settings saved")
	return cfg, nil
}

// parseMappings reads Field=key,key pairs.
func parseMappings(pairs []string) (config.FieldMapping, error) {
	out := config.FieldMapping{}
	for _, p := range pairs {
		field, list, ok := strings.Cut(p, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, &config.Error{Field: "fieldMapping", Message: fmt.Sprintf("expected Field=key,key, got %q", p)}
		}
		var keys []string
		for _, k := range strings.Split(list, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		out[field] = keys
	}
	return out, nil
}

func (a *app) list(ctx context.Context, cfg config.MappingConfig) error {
	client := anki.NewClient(cfg.BackendURL, a.log)
	var names []string
	var err error
	switch a.opts.List {
	case "decks":
		names, err = client.DeckNames(ctx)
	case "models":
		names, err = client.ModelNames(ctx)
	case "fields":
		if cfg.NoteTypeName == "" {
			return &config.Error{Field: "modelName", Message: "note type is not configured"}
		}
		names, err = client.ModelFieldNames(ctx, cfg.NoteTypeName)
	default:
		return fmt.Errorf("--list: unknown value %q (want decks, models or fields)", a.opts.List)
	}
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(a.stdout, n)
	}
	return nil
}

// queries collects search terms from --query, positional arguments and
// --file. Blank lines and lines starting with # are skipped.
func (a *app) queries() ([]string, error) {
	var out []string
	for _, q := range a.opts.Queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if a.opts.File == "" {
		return out, nil
	}
	f, err := os.Open(a.opts.File)
	if err != nil {
		return nil, fmt.Errorf("open query file: %w", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	return out, nil
}

func (a *app) process(ctx context.Context, cfg config.MappingConfig, queries []string) error {
	var norm *lemma.Normalizer
	if a.opts.Lemma {
		n, err := lemma.New()
		if err != nil {
			return fmt.Errorf("load tokenizer: %w", err)
		}
		norm = n
	}

	fetcher := jisho.NewFetcher(a.log)
	var selected []*jisho.Entry
	for _, q := range queries {
		term := q
		if norm != nil {
			if term = norm.Normalize(q); term != q {
				a.log.Info().Str("query", q).Str("term", term).Msg("searching dictionary form")
			}
		}
		entries, err := a.search(ctx, fetcher, term)
		if err != nil {
			return err
		}
		picked := a.pick(entries)
		if len(picked) == 0 {
			a.log.Warn().Str("term", term).Int("found", len(entries)).Msg("no entry selected")
		}
		selected = append(selected, picked...)
	}

	if a.opts.DryRun {
		return a.preview(cfg, selected)
	}
	if len(selected) == 0 {
		return nil
	}

	pipeline := submit.New(anki.NewClient(cfg.BackendURL, a.log), a.log)
	up := upload.New(pipeline, a.conn, a.log)
	up.Workers = a.cfg.Workers
	report, err := up.Upload(ctx, selected, cfg)
	if report != nil {
		a.printReport(report)
	}
	return err
}

// search loads up to --pages result pages of term into one document and
// extracts each entry once.
func (a *app) search(ctx context.Context, f *jisho.Fetcher, term string) ([]*jisho.Entry, error) {
	doc, err := f.Fetch(ctx, jisho.SearchURL(a.cfg.JishoURL, term, 1))
	if err != nil {
		return nil, err
	}
	for page := 2; page <= a.opts.Pages; page++ {
		next, err := f.Fetch(ctx, jisho.SearchURL(a.cfg.JishoURL, term, page))
		if err != nil {
			a.log.Warn().Err(err).Int("page", page).Msg("stopping pagination")
			break
		}
		if jisho.AppendEntries(doc, next) == 0 {
			break
		}
	}

	var out []*jisho.Entry
	jisho.Reconcile(doc, func(n *html.Node) {
		if e := jisho.Extract(n); e != nil {
			out = append(out, e)
		}
	})
	a.log.Debug().Str("term", term).Int("entries", len(out)).Msg("page extracted")
	return out, nil
}

func (a *app) pick(entries []*jisho.Entry) []*jisho.Entry {
	if a.opts.All {
		return entries
	}
	i := a.opts.Entry - 1
	if i < 0 || i >= len(entries) {
		return nil
	}
	return entries[i : i+1]
}

// preview prints what would be sent. Without a configured mapping the
// expression and reading are shown.
func (a *app) preview(cfg config.MappingConfig, entries []*jisho.Entry) error {
	fields, err := cfg.Mapping(cfg.NoteTypeName)
	if err != nil {
		fields = config.FieldMapping{
			mapping.KeyExpression: {mapping.KeyExpression},
			mapping.KeyReading:    {mapping.KeyReading},
		}
	}
	for _, e := range entries {
		rec := mapping.Map(e, fields)
		names := make([]string, 0, len(rec))
		for k := range rec {
			names = append(names, k)
		}
		sort.Strings(names)
		fmt.Fprintf(a.stdout, "== %s\n", e.Expression)
		for _, k := range names {
			fmt.Fprintf(a.stdout, "%s: %s\n", k, rec[k])
		}
	}
	return nil
}

func (a *app) printReport(r *upload.Report) {
	for _, it := range r.Items {
		expr := ""
		if it.Entry != nil {
			expr = it.Entry.Expression
		}
		switch {
		case it.Err != nil:
			fmt.Fprintf(a.stdout, "error     %s: %v\n", expr, it.Err)
		case it.Result.Outcome == submit.Created:
			fmt.Fprintf(a.stdout, "created   %s (note %d)\n", expr, it.Result.NoteID)
		case it.Result.Outcome == submit.Duplicate:
			fmt.Fprintf(a.stdout, "duplicate %s\n", expr)
		case it.Result.Outcome == submit.Failed:
			fmt.Fprintf(a.stdout, "failed    %s: %s\n", expr, it.Result.Reason)
		}
	}
	fmt.Fprintf(a.stdout, "%d created, %d duplicates, %d failed (run %s)\n", r.Created, r.Duplicates, r.Failed, r.RunID)
}
