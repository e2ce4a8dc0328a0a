package jisho

import "github.com/japaniel/jisho2anki/pkg/markup"

const (
	styleSense       = "text-align: left; margin-bottom: 12px;"
	stylePOS         = "font-size: 0.85em; color: #666; margin-bottom: 2px;"
	styleExample     = "margin-top: 5px; padding-left: 10px; border-left: 2px solid #ddd; font-size: 0.9em;"
	styleSentence    = "margin-bottom: 2px;"
	styleTranslation = "color: #555; font-style: italic;"
	styleSection     = "text-align: left; margin-bottom: 5px;"
)

// Fragment renders one sense as a card block.
func (s FormattedSense) Fragment() markup.Fragment {
	var children []markup.Fragment
	if s.PartOfSpeech != "" {
		children = append(children, markup.Block(stylePOS, markup.Text("["+s.PartOfSpeech+"]")))
	}
	if s.Enumeration != "" || s.Definition != "" {
		line := s.Definition
		if s.Enumeration != "" {
			line = s.Enumeration + " " + s.Definition
		}
		children = append(children, markup.Block("", markup.Text(line)))
	}
	if s.Example != nil {
		children = append(children, markup.Block(styleExample,
			markup.Block(styleSentence, markup.Text(s.Example.Sentence)),
			markup.Block(styleTranslation, markup.Text(s.Example.Translation)),
		))
	}
	return markup.Block(styleSense, children...)
}

// SensesHTML renders all senses back to back.
func (e *Entry) SensesHTML() string {
	frags := make([]markup.Fragment, 0, len(e.Senses))
	for _, s := range e.Senses {
		frags = append(frags, s.Fragment())
	}
	return markup.Render(frags...)
}

// OtherFormsHTML renders the alternate forms as one labelled line.
func (e *Entry) OtherFormsHTML() string {
	if len(e.OtherForms) == 0 {
		return ""
	}
	forms := make([]markup.Fragment, 0, len(e.OtherForms))
	for _, f := range e.OtherForms {
		forms = append(forms, markup.Text(f))
	}
	children := []markup.Fragment{markup.Strong(markup.Text("Other forms:")), markup.Text(" ")}
	children = append(children, markup.Join(forms, markup.Text("; "))...)
	return markup.Render(markup.Block(styleSection, children...))
}

// NotesHTML renders the notes one per line under a label.
func (e *Entry) NotesHTML() string {
	if len(e.Notes) == 0 {
		return ""
	}
	notes := make([]markup.Fragment, 0, len(e.Notes))
	for _, n := range e.Notes {
		notes = append(notes, markup.Text(n))
	}
	children := []markup.Fragment{markup.Strong(markup.Text("Notes:")), markup.Break()}
	children = append(children, markup.Join(notes, markup.Break())...)
	return markup.Render(markup.Block(styleSection, children...))
}
