// Package dom is a small document model over golang.org/x/net/html: lookup,
// mutation, event listeners and rendering for a parsed host page.
package dom

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Event is delivered to listeners by Dispatch.
type Event struct {
	Type   string
	Target *html.Node
}

// Listener handles one event on the node it was installed on.
type Listener func(ctx context.Context, ev Event) error

// Document owns a node tree and the listeners bound to its nodes.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]Listener
}

// Parse reads an HTML page into a Document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing host page: %w", err)
	}
	return &Document{root: root, listeners: map[*html.Node]map[string][]Listener{}}, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the <html> element.
func (d *Document) Root() *html.Node {
	return d.find(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Html })
}

// ByID returns the element with the given id, or nil.
func (d *Document) ByID(id string) *html.Node {
	return d.find(d.root, func(n *html.Node) bool { return Attr(n, "id") == id })
}

// ByClass returns every element carrying class, in document order.
func (d *Document) ByClass(class string) []*html.Node {
	var out []*html.Node
	walk(d.root, func(n *html.Node) {
		if n.Type == html.ElementNode && HasClass(n, class) {
			out = append(out, n)
		}
	})
	return out
}

// Title returns the text of <title>.
func (d *Document) Title() string {
	t := d.find(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Title })
	if t == nil {
		return ""
	}
	return Text(t)
}

// SetTitle sets the text of <title>, creating it under <head> when missing.
func (d *Document) SetTitle(title string) {
	t := d.find(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Title })
	if t == nil {
		head := d.find(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Head })
		if head == nil {
			return
		}
		t = &html.Node{Type: html.ElementNode, Data: "title", DataAtom: atom.Title}
		head.AppendChild(t)
	}
	SetText(t, title)
}

// AddEventListener binds fn to events of type typ on n.
func (d *Document) AddEventListener(n *html.Node, typ string, fn Listener) {
	if n == nil || fn == nil {
		return
	}
	byType := d.listeners[n]
	if byType == nil {
		byType = map[string][]Listener{}
		d.listeners[n] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

// Listeners reports how many listeners of type typ are bound to n.
func (d *Document) Listeners(n *html.Node, typ string) int {
	return len(d.listeners[n][typ])
}

// Dispatch runs the listeners bound to n for typ, in registration order.
// The first listener error stops dispatch and is returned.
func (d *Document) Dispatch(ctx context.Context, n *html.Node, typ string) error {
	for _, fn := range d.listeners[n][typ] {
		if err := fn(ctx, Event{Type: typ, Target: n}); err != nil {
			return fmt.Errorf("%s listener: %w", typ, err)
		}
	}
	return nil
}

// Render writes the whole document with a doctype.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, or "" if rendering fails.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := d.find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
