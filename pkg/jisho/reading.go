package jisho

import "strings"

// Annotation is the furigana layer rendered above a headword.
type Annotation struct {
	// Slots holds one phonetic string per annotation slot. An empty slot
	// means the character below it is read as written.
	Slots []string
	// Units holds the non-blank child texts of the headword element in
	// document order. They are not necessarily one per character.
	Units []string
}

// ResolveReading rebuilds the full reading of expression from its annotation.
//
// When the slot count matches the character count each slot maps to one
// character. Otherwise (jukujikun and other irregular readings) empty slots
// fall back to the headword's child text units by position, and slots past
// the last unit contribute nothing. A nil annotation yields expression.
func ResolveReading(expression string, ann *Annotation) string {
	if ann == nil {
		return expression
	}

	clean := []rune(stripSpace(expression))
	var b strings.Builder

	if len(ann.Slots) == len(clean) {
		for i, slot := range ann.Slots {
			if s := strings.TrimSpace(slot); s != "" {
				b.WriteString(s)
			} else {
				b.WriteRune(clean[i])
			}
		}
		return b.String()
	}

	for i, slot := range ann.Slots {
		if s := strings.TrimSpace(slot); s != "" {
			b.WriteString(s)
			continue
		}
		if i < len(ann.Units) {
			b.WriteString(strings.TrimSpace(ann.Units[i]))
		}
	}
	return b.String()
}
