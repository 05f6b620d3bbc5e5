// Package dom models an editable web page: an x/net/html tree plus the
// browser state that selection and replacement depend on (focus, form
// control values, the page selection, event listeners and a character-cell
// layout).
package dom

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"typewise/lineedit"
)

const defaultWidth = 80

// Document is a parsed page with its interactive state.
// It is not safe for concurrent use.
type Document struct {
	root      *html.Node
	url       string
	width     int
	active    *html.Node
	controls  map[*html.Node]*lineedit.Editor
	selection *Selection
	listeners map[*html.Node]map[string][]Listener
}

// Option configures a Document.
type Option func(*Document)

// WithURL records the address the page was loaded from.
func WithURL(u string) Option {
	return func(d *Document) { d.url = u }
}

// WithWidth sets the layout width in terminal cells.
func WithWidth(w int) Option {
	return func(d *Document) {
		if w > 0 {
			d.width = w
		}
	}
}

// Parse reads an HTML page.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	d := &Document{
		root:      root,
		width:     defaultWidth,
		controls:  make(map[*html.Node]*lineedit.Editor),
		listeners: make(map[*html.Node]map[string][]Listener),
	}
	d.selection = &Selection{doc: d}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ParseString parses HTML from a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// URL returns the page address, if known.
func (d *Document) URL() string {
	return d.url
}

// Hostname returns the host part of the page address, or "".
func (d *Document) Hostname() string {
	u, err := url.Parse(d.url)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Width returns the layout width in cells.
func (d *Document) Width() int {
	return d.width
}

// Body returns the body element, or the root if the page has none.
func (d *Document) Body() *html.Node {
	if body := findElement(d.root, atom.Body); body != nil {
		return body
	}
	return d.root
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// Query returns the first element matching a CSS selector, or nil.
func (d *Document) Query(selector string) (*html.Node, error) {
	nodes, err := d.QueryAll(selector)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

// QueryAll returns every element matching a CSS selector in document order.
func (d *Document) QueryAll(selector string) ([]*html.Node, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return goquery.NewDocumentFromNode(d.root).FindMatcher(m).Nodes, nil
}

// Matches reports whether n matches a CSS selector.
func Matches(n *html.Node, selector string) (bool, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return false, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return m.Match(n), nil
}

// Contains reports whether n is attached to this document.
func (d *Document) Contains(n *html.Node) bool {
	if n == nil {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == d.root {
			return true
		}
	}
	return false
}

// CreateTextNode returns a detached text node.
func (d *Document) CreateTextNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Attr returns the value of an attribute and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

func intAttr(n *html.Node, key string, def int) int {
	v, ok := Attr(n, key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i <= 0 {
		return def
	}
	return i
}

// Render writes the page as HTML with the current form control values
// written back into the markup.
func (d *Document) Render(w io.Writer) error {
	for n, ed := range d.controls {
		switch n.DataAtom {
		case atom.Input:
			SetAttr(n, "value", ed.Text())
		case atom.Textarea:
			for c := n.FirstChild; c != nil; {
				next := c.NextSibling
				n.RemoveChild(c)
				c = next
			}
			n.AppendChild(d.CreateTextNode(ed.Text()))
		}
	}
	return html.Render(w, d.root)
}

// Editable describes an editable surface found on the page.
type Editable struct {
	Node     *html.Node
	Kind     string // "input", "textarea" or "contenteditable"
	Selector string // CSS path that selects exactly this element
	Preview  string
}

// Editables lists the text controls and top-level contenteditable regions
// in document order.
func (d *Document) Editables() []Editable {
	var out []Editable
	goquery.NewDocumentFromNode(d.root).Find("input, textarea, [contenteditable]").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		var kind, preview string
		switch {
		case n.DataAtom == atom.Input && d.IsTextControl(n):
			kind, preview = "input", d.Control(n).Text()
		case n.DataAtom == atom.Textarea && d.IsTextControl(n):
			kind, preview = "textarea", d.Control(n).Text()
		case IsContentEditable(n) && (n.Parent == nil || !IsContentEditable(n.Parent)):
			kind, preview = "contenteditable", TextContent(n)
		default:
			return
		}
		out = append(out, Editable{
			Node:     n,
			Kind:     kind,
			Selector: cssPath(n),
			Preview:  strings.Join(strings.Fields(preview), " "),
		})
	})
	return out
}

// cssPath builds a selector from the nearest id-bearing ancestor (or the
// root) down to n using :nth-child steps.
func cssPath(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if id, ok := Attr(cur, "id"); ok && id != "" && !strings.ContainsAny(id, " \t\n") {
			parts = append(parts, cur.Data+"#"+id)
			break
		}
		if cur.Parent == nil || cur.Parent.Type != html.ElementNode {
			parts = append(parts, cur.Data)
			break
		}
		parts = append(parts, fmt.Sprintf("%s:nth-child(%d)", cur.Data, elementIndex(cur)+1))
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

func elementIndex(n *html.Node) int {
	i := 0
	for c := n.Parent.FirstChild; c != nil && c != n; c = c.NextSibling {
		if c.Type == html.ElementNode {
			i++
		}
	}
	return i
}
