// Package reveal marks page sections as revealed the first time they scroll
// into view.
package reveal

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
)

const (
	SectionClass  = "section"
	RevealedClass = "animate-in"
)

// Margin grows (positive) or shrinks (negative) the viewport edges, in pixels.
type Margin struct {
	Top, Right, Bottom, Left int
}

// Options tune when a target counts as visible.
type Options struct {
	Threshold  float64
	RootMargin Margin
}

// DefaultOptions require a tenth of a section to be visible, with the
// viewport bottom pulled up by 50px.
var DefaultOptions = Options{Threshold: 0.1, RootMargin: Margin{Bottom: -50}}

// Entry is one visibility report for a watched target.
type Entry struct {
	Target       *html.Node
	Intersecting bool
	Ratio        float64
}

// Watcher observes targets for their first sufficient visibility. The
// callback fires at most once per target; the watcher then stops observing
// it.
type Watcher interface {
	ObserveOnce(target *html.Node, opts Options, onVisible func(target *html.Node))
}

type watch struct {
	opts      Options
	onVisible func(*html.Node)
}

// Observer is a Watcher fed by Deliver.
type Observer struct {
	mu      sync.Mutex
	watches map[*html.Node]watch
}

func NewObserver() *Observer {
	return &Observer{watches: map[*html.Node]watch{}}
}

func (o *Observer) ObserveOnce(target *html.Node, opts Options, onVisible func(*html.Node)) {
	if target == nil || onVisible == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.watches[target] = watch{opts: opts, onVisible: onVisible}
}

// Deliver applies visibility reports and returns the targets that fired.
// Reports for targets that are not watched are ignored.
func (o *Observer) Deliver(entries ...Entry) []*html.Node {
	var fired []*html.Node
	for _, e := range entries {
		o.mu.Lock()
		w, ok := o.watches[e.Target]
		if ok && e.Intersecting && e.Ratio >= w.opts.Threshold {
			delete(o.watches, e.Target)
		} else {
			ok = false
		}
		o.mu.Unlock()

		if ok {
			w.onVisible(e.Target)
			fired = append(fired, e.Target)
		}
	}
	return fired
}

// Watching reports whether target is still observed.
func (o *Observer) Watching(target *html.Node) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.watches[target]
	return ok
}

// Pending is the number of targets still observed.
func (o *Observer) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.watches)
}

// Activate registers every section of doc with w and returns how many were
// registered. Nothing is registered when the visitor prefers reduced motion.
func Activate(doc *dom.Document, reducedMotion bool, w Watcher) int {
	if reducedMotion || w == nil {
		return 0
	}
	sections := doc.ByClass(SectionClass)
	for _, s := range sections {
		w.ObserveOnce(s, DefaultOptions, func(target *html.Node) {
			dom.AddClass(target, RevealedClass)
		})
	}
	return len(sections)
}
