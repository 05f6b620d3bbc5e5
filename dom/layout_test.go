package dom

import "testing"

func TestRangeRectCoversInk(t *testing.T) {
	d := mustParse(t, `<p id="p">hello world</p>`)
	p := mustQuery(t, d, "#p")
	text := p.FirstChild

	word := NewRange(Boundary{Node: text, Offset: 6}, Boundary{Node: text, Offset: 11})
	if got, want := d.RangeRect(word), (Rect{Left: 6, Top: 0, Right: 11, Bottom: 1}); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	space := NewRange(Boundary{Node: text, Offset: 5}, Boundary{Node: text, Offset: 6})
	if got := d.RangeRect(space); !got.Empty() {
		t.Errorf("expected whitespace to have no area, got %+v", got)
	}

	if got, want := d.BoundingRect(p), (Rect{Left: 0, Top: 0, Right: 11, Bottom: 1}); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestLayoutBlocksAndWrapping(t *testing.T) {
	d, err := ParseString(`<p id="a">one two three</p><p id="b">four</p>`, WithWidth(8))
	if err != nil {
		t.Fatal(err)
	}

	a := mustQuery(t, d, "#a")
	if got, want := d.BoundingRect(a), (Rect{Left: 0, Top: 0, Right: 7, Bottom: 2}); got != want {
		t.Errorf("expected wrapped paragraph %+v, got %+v", want, got)
	}
	b := mustQuery(t, d, "#b")
	if got, want := d.BoundingRect(b), (Rect{Left: 0, Top: 2, Right: 4, Bottom: 3}); got != want {
		t.Errorf("expected second block on its own line %+v, got %+v", want, got)
	}
}

func TestControlBoxes(t *testing.T) {
	d := mustParse(t, `<p>Name: <input id="n" size="10"></p><textarea id="ta" cols="30" rows="4"></textarea><input type="hidden" id="h">`)

	if got, want := d.BoundingRect(mustQuery(t, d, "#n")), (Rect{Left: 6, Top: 0, Right: 18, Bottom: 1}); got != want {
		t.Errorf("expected input box %+v, got %+v", want, got)
	}
	if got, want := d.BoundingRect(mustQuery(t, d, "#ta")), (Rect{Left: 0, Top: 1, Right: 32, Bottom: 5}); got != want {
		t.Errorf("expected textarea box %+v, got %+v", want, got)
	}
	if got := d.BoundingRect(mustQuery(t, d, "#h")); !got.Empty() {
		t.Errorf("expected hidden input to have no box, got %+v", got)
	}
}

func TestBoundingRectDetached(t *testing.T) {
	d := mustParse(t, `<p id="p">x</p>`)
	p := mustQuery(t, d, "#p")
	p.Parent.RemoveChild(p)
	if got := d.BoundingRect(p); !got.Empty() {
		t.Errorf("expected empty rect for detached node, got %+v", got)
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{Left: 2, Top: 1, Right: 4, Bottom: 2}
	b := Rect{Left: 0, Top: 3, Right: 1, Bottom: 4}
	if got, want := a.Union(b), (Rect{Left: 0, Top: 1, Right: 4, Bottom: 4}); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if got := a.Union(Rect{}); got != a {
		t.Errorf("expected empty rect to be ignored, got %+v", got)
	}
}
