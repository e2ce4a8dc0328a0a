package jisho

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// Selectors for the jisho.org result markup.
var (
	selEntry       = cascadia.MustCompile(".concept_light")
	selHeadword    = cascadia.MustCompile(".concept_light-representation .text")
	selFurigana    = cascadia.MustCompile(".concept_light-representation .furigana")
	selMeanings    = cascadia.MustCompile(".meanings-wrapper")
	selDefinition  = cascadia.MustCompile(".meaning-definition")
	selMeaning     = cascadia.MustCompile(".meaning-meaning")
	selDivider     = cascadia.MustCompile(".meaning-definition-section_divider")
	selSentence    = cascadia.MustCompile(".sentence")
	selJapanese    = cascadia.MustCompile(".japanese")
	selEnglish     = cascadia.MustCompile(".english")
	selSentenceRub = cascadia.MustCompile(".furigana")
	selLink        = cascadia.MustCompile("a")
)

const (
	classLabel   = "meaning-tags"
	classContent = "meaning-wrapper"
	readMoreText = "Read more"
)

// Parse reads a result page.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// Entries returns the entry nodes of a result page in document order.
func Entries(doc *html.Node) []*html.Node {
	if doc == nil {
		return nil
	}
	return selEntry.MatchAll(doc)
}

// Extract builds the Entry for one entry node. It returns nil only when
// entry is nil; missing sub-structure degrades to empty fields.
func Extract(entry *html.Node) *Entry {
	if entry == nil {
		return nil
	}

	var expression string
	headword := selHeadword.MatchFirst(entry)
	if headword != nil {
		expression = normalizeSpace(dom.TextContent(headword))
	}

	var ann *Annotation
	if furigana := selFurigana.MatchFirst(entry); furigana != nil && headword != nil {
		ann = annotationOf(furigana, headword)
	}

	e := &Entry{
		Expression: expression,
		Reading:    ResolveReading(expression, ann),
	}

	if wrapper := selMeanings.MatchFirst(entry); wrapper != nil {
		sections := Classify(blocksOf(wrapper))
		e.Senses = sections.Senses
		e.OtherForms = sections.OtherForms
		e.Notes = sections.Notes
	}
	return e
}

// ExtractAll extracts every entry of a result page.
func ExtractAll(doc *html.Node) []*Entry {
	var out []*Entry
	for _, n := range Entries(doc) {
		out = append(out, Extract(n))
	}
	return out
}

func annotationOf(furigana, headword *html.Node) *Annotation {
	ann := &Annotation{}
	for _, slot := range dom.Children(furigana) {
		ann.Slots = append(ann.Slots, strings.TrimSpace(dom.TextContent(slot)))
	}
	for _, child := range dom.ChildNodes(headword) {
		if unit := strings.TrimSpace(dom.TextContent(child)); unit != "" {
			ann.Units = append(ann.Units, unit)
		}
	}
	return ann
}

func blocksOf(wrapper *html.Node) []Block {
	var blocks []Block
	for _, child := range dom.Children(wrapper) {
		switch {
		case hasClass(child, classLabel):
			blocks = append(blocks, nodeBlock{n: child, label: true})
		case hasClass(child, classContent):
			blocks = append(blocks, nodeBlock{n: child})
		}
	}
	return blocks
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(dom.ClassName(n)) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeBlock adapts a meanings-wrapper child to Block.
type nodeBlock struct {
	n     *html.Node
	label bool
}

func (b nodeBlock) IsLabel() bool { return b.label }

func (b nodeBlock) Text() string { return dom.TextContent(b.n) }

func (b nodeBlock) Meaning() (string, bool) {
	m := selMeaning.MatchFirst(b.n)
	if m == nil {
		return "", false
	}
	return dom.TextContent(m), true
}

func (b nodeBlock) Definition() (string, bool) {
	def := selDefinition.MatchFirst(b.n)
	if def == nil {
		return "", false
	}
	return dom.TextContent(withoutReadMore(def)), true
}

func (b nodeBlock) Enumeration() string {
	def := selDefinition.MatchFirst(b.n)
	if def == nil {
		return ""
	}
	if div := selDivider.MatchFirst(def); div != nil {
		return dom.TextContent(div)
	}
	return ""
}

func (b nodeBlock) Example() (Example, bool) {
	sentence := selSentence.MatchFirst(b.n)
	if sentence == nil {
		return Example{}, false
	}
	ja := selJapanese.MatchFirst(sentence)
	en := selEnglish.MatchFirst(sentence)
	if ja == nil || en == nil {
		return Example{}, false
	}

	// Drop the furigana so only the written sentence remains.
	ja = dom.Clone(ja, true)
	for _, rt := range selSentenceRub.MatchAll(ja) {
		detach(rt)
	}
	return Example{
		Sentence:    dom.TextContent(ja),
		Translation: dom.TextContent(en),
	}, true
}

// withoutReadMore returns a copy of def without its first link when that
// link is the "Read more" affordance.
func withoutReadMore(def *html.Node) *html.Node {
	link := selLink.MatchFirst(def)
	if link == nil || !strings.Contains(dom.TextContent(link), readMoreText) {
		return def
	}
	clone := dom.Clone(def, true)
	detach(selLink.MatchFirst(clone))
	return clone
}

func detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
