package jisho

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlock struct {
	label      string
	isLabel    bool
	meaning    *string
	definition *string
	enum       string
	example    *Example
}

func (b fakeBlock) IsLabel() bool { return b.isLabel }
func (b fakeBlock) Text() string  { return b.label }

func (b fakeBlock) Meaning() (string, bool) {
	if b.meaning == nil {
		return "", false
	}
	return *b.meaning, true
}

func (b fakeBlock) Definition() (string, bool) {
	if b.definition == nil {
		return "", false
	}
	return *b.definition, true
}

func (b fakeBlock) Enumeration() string { return b.enum }

func (b fakeBlock) Example() (Example, bool) {
	if b.example == nil {
		return Example{}, false
	}
	return *b.example, true
}

func str(s string) *string { return &s }

func label(text string) Block { return fakeBlock{label: text, isLabel: true} }

func content(enum, meaning string) Block {
	return fakeBlock{enum: enum, meaning: str(meaning), definition: str(enum + " " + meaning)}
}

func TestClassifyBucketsByPrecedingLabel(t *testing.T) {
	blocks := []Block{
		label("Noun, Na-adjective"),
		content("1.", "important"),
		content("2.", "valuable"),
		label("Wikipedia definition"),
		content("3.", "Taisetsu"),
		label("Other forms"),
		content("", "大切 【たいせつ】"),
		content("", "大せつ"),
		label("Notes"),
		fakeBlock{definition: str("Rarely-used kanji form.")},
	}

	got := Classify(blocks)

	require.Len(t, got.Senses, 3)
	assert.Equal(t, FormattedSense{PartOfSpeech: "Noun, Na-adjective", Enumeration: "1.", Definition: "important"}, got.Senses[0])
	assert.Equal(t, "Noun, Na-adjective", got.Senses[1].PartOfSpeech)
	assert.Equal(t, "Wikipedia definition", got.Senses[2].PartOfSpeech)
	assert.Equal(t, []string{"大切 【たいせつ】", "大せつ"}, got.OtherForms)
	assert.Equal(t, []string{"Rarely-used kanji form."}, got.Notes)
}

func TestClassifyContentBeforeAnyLabelIsUnlabeledSense(t *testing.T) {
	got := Classify([]Block{content("1.", "dog")})

	require.Len(t, got.Senses, 1)
	assert.Empty(t, got.Senses[0].PartOfSpeech)
	assert.Equal(t, "dog", got.Senses[0].Definition)
	assert.Empty(t, got.OtherForms)
	assert.Empty(t, got.Notes)
}

func TestClassifyOtherFormsMatchesSubstring(t *testing.T) {
	got := Classify([]Block{label("  Other forms (rare) "), content("", "犬")})
	assert.Equal(t, []string{"犬"}, got.OtherForms)
	assert.Empty(t, got.Senses)
}

func TestClassifyNotesRequiresExactLabel(t *testing.T) {
	got := Classify([]Block{label("Notes on usage"), content("1.", "x")})

	require.Len(t, got.Senses, 1)
	assert.Equal(t, "Notes on usage", got.Senses[0].PartOfSpeech)
	assert.Empty(t, got.Notes)
}

func TestClassifyLabelAfterNotesReturnsToSenses(t *testing.T) {
	got := Classify([]Block{
		label("Notes"),
		fakeBlock{definition: str("a note")},
		label("Expression"),
		content("1.", "sense"),
	})

	assert.Equal(t, []string{"a note"}, got.Notes)
	require.Len(t, got.Senses, 1)
	assert.Equal(t, "Expression", got.Senses[0].PartOfSpeech)
}

func TestClassifyPartialBlocks(t *testing.T) {
	got := Classify([]Block{
		label("Other forms"),
		fakeBlock{},
		label("Notes"),
		fakeBlock{meaning: str("ignored")},
		label("Noun"),
		fakeBlock{},
		fakeBlock{definition: str("  whole   definition  "), enum: "2. "},
		nil,
	})

	assert.Empty(t, got.OtherForms)
	assert.Empty(t, got.Notes)
	require.Len(t, got.Senses, 2)
	assert.Equal(t, FormattedSense{PartOfSpeech: "Noun"}, got.Senses[0])
	assert.Equal(t, FormattedSense{PartOfSpeech: "Noun", Enumeration: "2.", Definition: "whole definition"}, got.Senses[1])
}

func TestClassifyExampleIsNormalized(t *testing.T) {
	got := Classify([]Block{fakeBlock{
		meaning:    str("important"),
		definition: str("important"),
		example:    &Example{Sentence: " 大切 な 物 ", Translation: "  An important thing. "},
	}})

	require.Len(t, got.Senses, 1)
	require.NotNil(t, got.Senses[0].Example)
	assert.Equal(t, Example{Sentence: "大切な物", Translation: "An important thing."}, *got.Senses[0].Example)
}
