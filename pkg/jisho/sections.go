package jisho

import "strings"

// Label texts that switch the classifier away from sense groups.
const (
	notesLabel      = "Notes"
	otherFormsLabel = "Other forms"
)

// Block is one child of an entry's meanings list: either a label block
// (part of speech, "Notes", "Other forms") or a content block.
type Block interface {
	IsLabel() bool
	// Text is the label text of a label block.
	Text() string
	// Meaning is the primary meaning text and whether the block has one.
	Meaning() (string, bool)
	// Definition is the full definition text with any "Read more" link
	// removed, and whether the block has a definition section.
	Definition() (string, bool)
	// Enumeration is the leading marker of the definition, e.g. "1.".
	Enumeration() string
	Example() (Example, bool)
}

// Sections is the classifier output. Each slice keeps document order.
type Sections struct {
	Senses     []FormattedSense
	OtherForms []string
	Notes      []string
}

type bucket int

const (
	bucketSense bucket = iota
	bucketNotes
	bucketOtherForms
)

// Classify walks blocks in order and files every content block under the
// label that most recently preceded it.
func Classify(blocks []Block) Sections {
	var out Sections
	var (
		current = bucketSense
		pos     string
	)

	for _, blk := range blocks {
		if blk == nil {
			continue
		}
		if blk.IsLabel() {
			label := normalizeSpace(blk.Text())
			switch {
			case label == notesLabel:
				current, pos = bucketNotes, ""
			case strings.Contains(label, otherFormsLabel):
				current, pos = bucketOtherForms, ""
			default:
				current, pos = bucketSense, label
			}
			continue
		}

		switch current {
		case bucketOtherForms:
			if form, ok := blk.Meaning(); ok {
				out.OtherForms = append(out.OtherForms, normalizeSpace(form))
			}
		case bucketNotes:
			if def, ok := blk.Definition(); ok {
				out.Notes = append(out.Notes, normalizeSpace(def))
			}
		default:
			out.Senses = append(out.Senses, senseFrom(blk, pos))
		}
	}
	return out
}

func senseFrom(blk Block, pos string) FormattedSense {
	s := FormattedSense{PartOfSpeech: pos}
	if def, ok := blk.Definition(); ok {
		if meaning, ok := blk.Meaning(); ok {
			def = meaning
		}
		s.Definition = normalizeSpace(def)
		s.Enumeration = normalizeSpace(blk.Enumeration())
	}
	if ex, ok := blk.Example(); ok {
		s.Example = &Example{
			Sentence:    stripSpace(ex.Sentence),
			Translation: strings.TrimSpace(ex.Translation),
		}
	}
	return s
}
