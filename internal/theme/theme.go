// Package theme implements the light/dark toggle. The explicit choice lives
// in a Toggle value and is mirrored to the data-theme attribute of the root
// element and to a Storage under StorageKey.
package theme

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
)

// Mode is an explicit theme choice, or Unset to follow the system.
type Mode string

const (
	Unset Mode = ""
	Light Mode = "light"
	Dark  Mode = "dark"
)

const (
	StorageKey = "theme"
	Attribute  = "data-theme"
	ToggleID   = "themeToggle"
)

// ParseMode accepts only "light" and "dark"; anything else is Unset.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case Light, Dark:
		return Mode(s)
	}
	return Unset
}

// Storage is a durable per-client key/value store.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Toggle is the theme state of one page.
type Toggle struct {
	mode        Mode
	store       Storage
	root        *html.Node
	prefersDark bool
}

// Init restores the stored choice onto doc and binds the toggle control.
// It must run before any content is rendered.
func Init(ctx context.Context, doc *dom.Document, store Storage, prefersDark bool) (*Toggle, error) {
	t := &Toggle{store: store, root: doc.Root(), prefersDark: prefersDark}

	saved, ok, err := store.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("reading saved theme: %w", err)
	}
	if ok {
		if mode := ParseMode(saved); mode != Unset {
			if err := t.Set(ctx, mode); err != nil {
				return nil, err
			}
		}
	}

	if btn := doc.ByID(ToggleID); btn != nil {
		doc.AddEventListener(btn, "click", func(ctx context.Context, _ dom.Event) error {
			return t.Click(ctx)
		})
	}
	return t, nil
}

// Mode returns the current explicit choice.
func (t *Toggle) Mode() Mode { return t.mode }

// Set applies mode. Unset clears both the attribute and the stored key.
func (t *Toggle) Set(ctx context.Context, mode Mode) error {
	mode = ParseMode(string(mode))
	if mode == Unset {
		if t.root != nil {
			dom.RemoveAttr(t.root, Attribute)
		}
		if err := t.store.Remove(ctx, StorageKey); err != nil {
			return fmt.Errorf("clearing theme: %w", err)
		}
		t.mode = Unset
		return nil
	}

	if t.root != nil {
		dom.SetAttr(t.root, Attribute, string(mode))
	}
	if err := t.store.Set(ctx, StorageKey, string(mode)); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	t.mode = mode
	return nil
}

// Next is the mode a click moves to. From Unset it picks the opposite of
// what the system currently shows.
func (t *Toggle) Next() Mode {
	switch t.mode {
	case Light:
		return Dark
	case Dark:
		return Light
	}
	if t.prefersDark {
		return Light
	}
	return Dark
}

// Click advances the toggle one step.
func (t *Toggle) Click(ctx context.Context) error {
	next := t.Next()
	if err := t.Set(ctx, next); err != nil {
		return err
	}
	log.Printf("Theme switched to %s", next)
	return nil
}
