package dom

import (
	"testing"
)

const mixedParagraph = `<p id="p">Hello <b>big</b> world</p>`

func TestSelectTextAcrossNodes(t *testing.T) {
	d := mustParse(t, mixedParagraph)
	p := mustQuery(t, d, "#p")

	if err := d.SelectText(p, 3, 12); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	sel := d.Selection()
	if sel.RangeCount() != 1 {
		t.Fatalf("expected 1 range, got %d", sel.RangeCount())
	}
	if got := sel.String(); got != "lo big wo" {
		t.Errorf("expected 'lo big wo', got %q", got)
	}

	r := sel.RangeAt(0)
	if r.Start.Node != p.FirstChild || r.Start.Offset != 3 {
		t.Errorf("unexpected start boundary %+v", r.Start)
	}
	if r.End.Node != p.LastChild || r.End.Offset != 3 {
		t.Errorf("unexpected end boundary %+v", r.End)
	}
	if r.CommonAncestor() != p {
		t.Error("expected paragraph as common ancestor")
	}
}

func TestSelectTextOutOfBounds(t *testing.T) {
	d := mustParse(t, mixedParagraph)
	p := mustQuery(t, d, "#p")
	if err := d.SelectText(p, 0, 99); err == nil {
		t.Error("expected error for range past the text")
	}
	if err := d.SelectText(p, 4, 2); err == nil {
		t.Error("expected error for reversed range")
	}
}

func TestDeleteContentsAcrossNodes(t *testing.T) {
	d := mustParse(t, mixedParagraph)
	p := mustQuery(t, d, "#p")
	if err := d.SelectText(p, 3, 12); err != nil {
		t.Fatal(err)
	}

	r := d.Selection().RangeAt(0)
	r.DeleteContents()

	if got := TextContent(p); got != "Helrld" {
		t.Errorf("expected 'Helrld', got %q", got)
	}
	if !r.Collapsed() {
		t.Error("expected range to collapse")
	}
	if r.Start.Node != p || r.Start.Offset != 1 {
		t.Errorf("expected collapse to (p, 1), got (%v, %d)", r.Start.Node.Data, r.Start.Offset)
	}

	if err := r.InsertNode(d.CreateTextNode("XYZ")); err != nil {
		t.Fatal(err)
	}
	if got := TextContent(p); got != "HelXYZrld" {
		t.Errorf("expected 'HelXYZrld', got %q", got)
	}
}

func TestDeleteContentsWithinTextNode(t *testing.T) {
	d := mustParse(t, `<p id="p">hello world</p>`)
	p := mustQuery(t, d, "#p")
	r := NewRange(Boundary{Node: p.FirstChild, Offset: 2}, Boundary{Node: p.FirstChild, Offset: 5})

	if got := r.String(); got != "llo" {
		t.Errorf("expected 'llo', got %q", got)
	}
	r.DeleteContents()
	if got := TextContent(p); got != "he world" {
		t.Errorf("expected 'he world', got %q", got)
	}
	if r.Start.Node != p.FirstChild || r.Start.Offset != 2 || !r.Collapsed() {
		t.Errorf("expected collapsed range at offset 2, got %+v", r)
	}
}

func TestInsertNodeSplitsText(t *testing.T) {
	d := mustParse(t, `<p id="p">hello world</p>`)
	p := mustQuery(t, d, "#p")
	r := NewRange(Boundary{Node: p.FirstChild, Offset: 5}, Boundary{Node: p.FirstChild, Offset: 5})

	node := d.CreateTextNode("X")
	if err := r.InsertNode(node); err != nil {
		t.Fatal(err)
	}

	if got := TextContent(p); got != "helloX world" {
		t.Errorf("expected 'helloX world', got %q", got)
	}
	if nodeLength(p) != 3 {
		t.Errorf("expected 3 text nodes after split, got %d", nodeLength(p))
	}
	if p.FirstChild.NextSibling != node {
		t.Error("expected inserted node between the halves")
	}
	if r.End.Node != p || r.End.Offset != 2 {
		t.Errorf("expected collapsed range to grow to (p, 2), got %+v", r.End)
	}

	if err := r.InsertNode(node); err == nil {
		t.Error("expected error inserting an attached node")
	}
}

func TestInsertNodeAtTextEdges(t *testing.T) {
	d := mustParse(t, `<p id="p">abc</p>`)
	p := mustQuery(t, d, "#p")
	text := p.FirstChild

	NewRange(Boundary{Node: text}, Boundary{Node: text}).InsertNode(d.CreateTextNode("<"))
	NewRange(Boundary{Node: text, Offset: 3}, Boundary{Node: text, Offset: 3}).InsertNode(d.CreateTextNode(">"))

	if got := TextContent(p); got != "<abc>" {
		t.Errorf("expected '<abc>', got %q", got)
	}
	if text.Data != "abc" {
		t.Errorf("expected original node untouched, got %q", text.Data)
	}
}

func TestSetStartAfterAndCollapse(t *testing.T) {
	d := mustParse(t, `<p id="p">a<b>b</b>c</p>`)
	p := mustQuery(t, d, "#p")
	b := mustQuery(t, d, "b")

	r := NewRange(Boundary{Node: p}, Boundary{Node: p})
	if err := r.SetStartAfter(b); err != nil {
		t.Fatal(err)
	}
	if r.Start.Node != p || r.Start.Offset != 2 {
		t.Errorf("expected start (p, 2), got %+v", r.Start)
	}
	if r.End != r.Start {
		t.Error("expected end to follow a start that moved past it")
	}

	r.End = Boundary{Node: p, Offset: 3}
	r.Collapse(true)
	if r.End.Offset != 2 {
		t.Errorf("expected collapse to start, got end offset %d", r.End.Offset)
	}

	detached := d.CreateTextNode("x")
	if err := r.SetStartAfter(detached); err == nil {
		t.Error("expected error for detached node")
	}
}

func TestRangeValid(t *testing.T) {
	d := mustParse(t, mixedParagraph)
	p := mustQuery(t, d, "#p")
	text := p.FirstChild

	tests := []struct {
		name string
		r    *Range
		want bool
	}{
		{"in bounds", NewRange(Boundary{Node: text, Offset: 1}, Boundary{Node: text, Offset: 4}), true},
		{"offset past text", NewRange(Boundary{Node: text}, Boundary{Node: text, Offset: 40}), false},
		{"reversed", NewRange(Boundary{Node: p.LastChild}, Boundary{Node: text}), false},
		{"element offsets", NewRange(Boundary{Node: p}, Boundary{Node: p, Offset: 3}), true},
		{"detached", NewRange(Boundary{Node: d.CreateTextNode("x")}, Boundary{Node: text}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Valid(d); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSelectionIsLive(t *testing.T) {
	d := mustParse(t, `<p id="p">hello world</p>`)
	p := mustQuery(t, d, "#p")
	if err := d.SelectText(p, 0, 5); err != nil {
		t.Fatal(err)
	}

	sel := d.Selection()
	live := sel.RangeAt(0)
	clone := live.Clone()

	sel.CollapseToEnd()
	if !live.Collapsed() {
		t.Error("expected the live range to follow the selection")
	}
	if clone.String() != "hello" {
		t.Errorf("expected clone to keep 'hello', got %q", clone.String())
	}
	if !sel.IsCollapsed() {
		t.Error("expected selection to be collapsed")
	}

	sel.AddRange(clone)
	if sel.RangeAt(0) != live {
		t.Error("expected AddRange to be ignored while a range is selected")
	}
	sel.RemoveAllRanges()
	if sel.RangeCount() != 0 || sel.RangeAt(0) != nil {
		t.Error("expected empty selection")
	}
}
