// Package jisho extracts vocabulary entries from jisho.org result pages.
package jisho

import "strings"

// Entry is the normalized record for one dictionary lookup result.
// Text fields hold whitespace-normalized plain text; the rendering helpers
// escape it for display.
type Entry struct {
	Expression string
	Reading    string
	Senses     []FormattedSense
	OtherForms []string
	Notes      []string
}

// FormattedSense is one definition line of a sense group.
type FormattedSense struct {
	// PartOfSpeech is the label that preceded the definition, if any.
	PartOfSpeech string
	// Enumeration is the leading marker, e.g. "1.".
	Enumeration string
	Definition  string
	Example     *Example
}

// Example is a source-language sentence with its translation.
type Example struct {
	Sentence    string
	Translation string
}

// normalizeSpace trims s and collapses internal whitespace runs to one space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripSpace removes all whitespace from s.
func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
