package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
	"github.com/Zachkp/folio/internal/reveal"
)

// liveSession is a rendered page kept around so the browser can report
// sections scrolling into view.
type liveSession struct {
	mu       sync.Mutex
	doc      *dom.Document
	observer *reveal.Observer
	expires  time.Time
}

type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*liveSession
	ttl      time.Duration
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{sessions: map[string]*liveSession{}, ttl: ttl}
}

func (r *sessionRegistry) add(id string, s *liveSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.expires = time.Now().Add(r.ttl)
	r.sessions[id] = s
}

func (r *sessionRegistry) get(id string) *liveSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || time.Now().After(s.expires) {
		return nil
	}
	return s
}

// drop forgets a session once nothing in it is watched any more.
func (r *sessionRegistry) drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *sessionRegistry) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, s := range r.sessions {
		if now.After(s.expires) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *sessionRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// sweepLoop expires sessions until ctx is done.
func (r *sessionRegistry) sweepLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.sweep(); n > 0 {
				log.Printf("Expired %d page sessions", n)
			}
		}
	}
}

// htmxWatcher observes sections through an in-memory Observer and marks
// each addressable section so the browser reports its first intersection
// back to the session after delay. Sections without an id cannot report
// back and are not observed.
//
// htmx's intersect trigger takes a threshold but no root margin, so
// opts.RootMargin is not forwarded.
type htmxWatcher struct {
	sessionID string
	observer  *reveal.Observer
	delay     time.Duration
}

var hxAttrs = []string{"hx-post", "hx-trigger", "hx-swap"}

func (w *htmxWatcher) ObserveOnce(target *html.Node, opts reveal.Options, onVisible func(*html.Node)) {
	id := dom.Attr(target, "id")
	if id == "" {
		return
	}
	dom.SetAttr(target, "hx-post", fmt.Sprintf("/reveal/%s/%s", w.sessionID, id))
	dom.SetAttr(target, "hx-trigger", w.trigger(opts))
	dom.SetAttr(target, "hx-swap", "outerHTML")

	w.observer.ObserveOnce(target, opts, func(n *html.Node) {
		for _, a := range hxAttrs {
			dom.RemoveAttr(n, a)
		}
		onVisible(n)
	})
}

func (w *htmxWatcher) trigger(opts reveal.Options) string {
	t := fmt.Sprintf("intersect once threshold:%g", opts.Threshold)
	if w.delay > 0 {
		t += fmt.Sprintf(" delay:%dms", w.delay.Milliseconds())
	}
	return t
}
