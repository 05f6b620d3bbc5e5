package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// IsContentEditable reports whether element n is editable through the
// contenteditable attribute, on itself or inherited. "false" stops
// inheritance and unrecognised values inherit.
func IsContentEditable(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		v, ok := Attr(cur, "contenteditable")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "true", "plaintext-only":
			return true
		case "false":
			return false
		}
	}
	return false
}

// EditableElement returns the nearest element at or above n that is
// content-editable, or nil. Text nodes start from their parent.
func EditableElement(n *html.Node) *html.Node {
	cur := n
	if cur != nil && cur.Type != html.ElementNode {
		cur = cur.Parent
	}
	for ; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && IsContentEditable(cur) {
			return cur
		}
	}
	return nil
}

// EditingHost returns the outermost content-editable element containing n,
// or nil.
func EditingHost(n *html.Node) *html.Node {
	host := EditableElement(n)
	for host != nil && host.Parent != nil && host.Parent.Type == html.ElementNode && IsContentEditable(host.Parent) {
		host = host.Parent
	}
	return host
}
