// Package export renders the portfolio offline, as a standalone HTML page or
// as a PDF printed by headless Chrome.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
	"github.com/Zachkp/folio/internal/loader"
	"github.com/Zachkp/folio/internal/page"
	"github.com/Zachkp/folio/internal/reveal"
	"github.com/Zachkp/folio/internal/theme"
)

var (
	// ErrPDFDependencyMissing indicates no Chrome or Chromium binary was found.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)

// Options controls an offline render.
type Options struct {
	Template         string
	Source           string
	Theme            theme.Mode
	PlaceholderEmail string
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Title    string
	Filename string
	MimeType string
}

// visibleWatcher reveals every section at once; a printed page never scrolls.
type visibleWatcher struct{}

func (visibleWatcher) ObserveOnce(target *html.Node, _ reveal.Options, onVisible func(*html.Node)) {
	onVisible(target)
}

// HTML renders the host template with the profile document from
// opts.Source. A load failure is rendered into the page like it is when
// served, and also returned.
func HTML(ctx context.Context, opts Options) (*Result, error) {
	tmpl, err := os.ReadFile(opts.Template)
	if err != nil {
		return nil, fmt.Errorf("reading host template %s: %w", opts.Template, err)
	}
	doc, err := dom.Parse(bytes.NewReader(tmpl))
	if err != nil {
		return nil, err
	}

	store := theme.NewMemoryStorage()
	if opts.Theme != theme.Unset {
		if err := store.Set(ctx, theme.StorageKey, string(opts.Theme)); err != nil {
			return nil, err
		}
	}

	sess := page.NewSession(doc, loader.New(opts.Source, nil), store, visibleWatcher{}, page.Env{}, opts.PlaceholderEmail)
	sess.RevealDelay = 0
	runErr := sess.Run(ctx)

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	title := doc.Title()
	return &Result{
		Data:     buf.Bytes(),
		Title:    title,
		Filename: sanitizeFilename(title) + ".html",
		MimeType: "text/html",
	}, runErr
}
