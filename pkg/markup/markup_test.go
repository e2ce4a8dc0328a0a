package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderEscapesText(t *testing.T) {
	got := Render(Text(`a < b & "c"`))
	assert.Equal(t, "a &lt; b &amp; &#34;c&#34;", got)
}

func TestRenderNested(t *testing.T) {
	got := Render(Block("text-align: left;",
		Strong(Text("Notes:")),
		Break(),
		Text("one"),
	))
	assert.Equal(t, `<div style="text-align: left;"><strong>Notes:</strong><br>one</div>`, got)
}

func TestBlockWithoutStyle(t *testing.T) {
	assert.Equal(t, "<div>x</div>", Render(Block("", Text("x"))))
}

func TestJoin(t *testing.T) {
	frags := []Fragment{Text("a"), Text("b"), Text("c")}

	assert.Equal(t, "a; b; c", Render(Join(frags, Text("; "))...))
	assert.Equal(t, "a<br>b<br>c", Render(Join(frags, Break())...))
	assert.Equal(t, "abc", Render(Join(frags, nil)...))
	assert.Empty(t, Join(nil, Break()))
}

func TestRenderSkipsNil(t *testing.T) {
	assert.Equal(t, "x", Render(nil, Text("x"), nil))
}
