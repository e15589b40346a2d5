package dom

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attrs configures an element built by El.
//
// A nil value omits the key. "class" sets the class list and "text" the
// text content. A key starting with "on" whose value is a Listener binds the
// listener to the event named by the rest of the key, lower-cased. Any other
// value is written as an attribute with fmt's default format.
type Attrs map[string]any

// El builds an element with attrs applied and children appended in order.
// Children may be strings (text nodes), *html.Node, []*html.Node or nil,
// which is skipped.
func (d *Document) El(tag string, attrs Attrs, children ...any) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := attrs[k]
		if v == nil {
			continue
		}
		if fn, ok := listener(v); ok && strings.HasPrefix(k, "on") && len(k) > 2 {
			d.AddEventListener(n, strings.ToLower(k[2:]), fn)
			continue
		}
		switch k {
		case "class":
			SetAttr(n, "class", fmt.Sprint(v))
		case "text":
			SetText(n, fmt.Sprint(v))
		default:
			SetAttr(n, k, fmt.Sprint(v))
		}
	}

	for _, c := range children {
		appendChild(n, c)
	}
	return n
}

func listener(v any) (Listener, bool) {
	switch fn := v.(type) {
	case Listener:
		return fn, fn != nil
	case func(context.Context, Event) error:
		return fn, fn != nil
	default:
		return nil, false
	}
}

func appendChild(n *html.Node, c any) {
	switch c := c.(type) {
	case nil:
	case string:
		n.AppendChild(&html.Node{Type: html.TextNode, Data: c})
	case *html.Node:
		if c != nil {
			n.AppendChild(c)
		}
	case []*html.Node:
		for _, child := range c {
			if child != nil {
				n.AppendChild(child)
			}
		}
	default:
		n.AppendChild(&html.Node{Type: html.TextNode, Data: fmt.Sprint(c)})
	}
}
