package jisho

import (
	"github.com/andybalholm/cascadia"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// ControlsClass marks an entry that already has controls attached.
const ControlsClass = "jisho2anki-controls"

var (
	selControls = cascadia.MustCompile("." + ControlsClass)
	selStatus   = cascadia.MustCompile(".concept_light-status")
	selWrapper  = cascadia.MustCompile(".concept_light-wrapper")
	selConcepts = cascadia.MustCompile(".concepts")
)

// AlreadyProcessed reports whether entry carries the controls marker.
func AlreadyProcessed(entry *html.Node) bool {
	return entry != nil && selControls.MatchFirst(entry) != nil
}

// Attach inserts the controls marker into entry. It prefers the status
// column, then the wrapper, then the entry itself.
func Attach(entry *html.Node) {
	if entry == nil || AlreadyProcessed(entry) {
		return
	}
	marker := dom.CreateElement("div")
	dom.SetAttribute(marker, "class", ControlsClass)

	if status := selStatus.MatchFirst(entry); status != nil {
		dom.PrependChild(status, marker)
		return
	}
	if wrapper := selWrapper.MatchFirst(entry); wrapper != nil {
		dom.AppendChild(wrapper, marker)
		return
	}
	dom.AppendChild(entry, marker)
}

// Reconcile attaches controls to every entry of doc that has none yet and
// calls fn once for each of them. It returns how many entries were new.
// Calling it again on the same document is a no-op until entries are added.
func Reconcile(doc *html.Node, fn func(entry *html.Node)) int {
	var n int
	for _, entry := range Entries(doc) {
		if AlreadyProcessed(entry) {
			continue
		}
		Attach(entry)
		n++
		if fn != nil {
			fn(entry)
		}
	}
	return n
}

// AppendEntries moves the entries of src into the result list of dst, the
// way loading "More words" extends the page in place.
func AppendEntries(dst, src *html.Node) int {
	if dst == nil || src == nil {
		return 0
	}
	target := selConcepts.MatchFirst(dst)
	if target == nil {
		target = dst
		if body := dom.QuerySelector(dst, "body"); body != nil {
			target = body
		}
	}

	moved := Entries(src)
	for _, entry := range moved {
		detach(entry)
		dom.AppendChild(target, entry)
	}
	return len(moved)
}
