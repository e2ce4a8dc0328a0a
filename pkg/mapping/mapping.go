// Package mapping turns an extracted entry into flashcard field values.
package mapping

import (
	"strings"

	"github.com/japaniel/jisho2anki/pkg/config"
	"github.com/japaniel/jisho2anki/pkg/jisho"
	"golang.org/x/net/html"
)

// Source keys an entry can be mapped from.
const (
	KeyExpression  = "expression"
	KeyReading     = "reading"
	KeySenseGroups = "senseGroups"
	KeyOtherForms  = "otherForms"
	KeyNotes       = "notes"
)

// Separator joins several sources mapped into one field.
const Separator = "<br>"

// SourceKeys lists the valid source keys in display order.
func SourceKeys() []string {
	return []string{KeyExpression, KeyReading, KeySenseGroups, KeyOtherForms, KeyNotes}
}

// IsSourceKey reports whether key names an entry value.
func IsSourceKey(key string) bool {
	for _, k := range SourceKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Record maps a destination field to its final value.
type Record map[string]string

// Value returns the display-ready value of key. Unknown keys are blank.
func Value(e *jisho.Entry, key string) string {
	if e == nil {
		return ""
	}
	switch key {
	case KeyExpression:
		return html.EscapeString(e.Expression)
	case KeyReading:
		return html.EscapeString(e.Reading)
	case KeySenseGroups:
		return e.SensesHTML()
	case KeyOtherForms:
		return e.OtherFormsHTML()
	case KeyNotes:
		return e.NotesHTML()
	}
	return ""
}

// Map resolves every destination field of fields against e. Blank values
// are dropped and a field left with nothing is omitted, so optional note
// fields stay untouched.
func Map(e *jisho.Entry, fields config.FieldMapping) Record {
	rec := Record{}
	for field, keys := range fields {
		var values []string
		for _, key := range keys {
			if v := Value(e, key); strings.TrimSpace(v) != "" {
				values = append(values, v)
			}
		}
		if len(values) > 0 {
			rec[field] = strings.Join(values, Separator)
		}
	}
	return rec
}

// ForNoteType maps e with the configured mapping of noteType. It fails with
// a configuration error when noteType has no mapping at all.
func ForNoteType(e *jisho.Entry, cfg config.MappingConfig, noteType string) (Record, error) {
	fields, err := cfg.Mapping(noteType)
	if err != nil {
		return nil, err
	}
	return Map(e, fields), nil
}
