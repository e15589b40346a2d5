// Package loader fetches the profile document for one page load.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/Zachkp/folio/internal/portfolio"
)

// DefaultPath is the well-known location of the profile document.
const DefaultPath = "app/profile.json"

// LoadError reports a document that could not be retrieved.
type LoadError struct {
	Source string
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("loading %s failed: %d", e.Source, e.Status)
	}
	return fmt.Sprintf("loading %s failed: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ParseError reports a retrieved document whose body is not valid JSON.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Loader produces the view-model for a page load.
type Loader interface {
	Load(ctx context.Context) (*portfolio.Portfolio, error)
}

// New returns an HTTP loader for http(s) sources and a file loader otherwise.
func New(source string, client *http.Client) Loader {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return &HTTP{URL: source, Client: client}
	}
	return &File{Path: strings.TrimPrefix(source, "file://")}
}

// HTTP fetches the document over the network, bypassing caches.
type HTTP struct {
	URL    string
	Client *http.Client
}

func (l *HTTP) Load(ctx context.Context) (*portfolio.Portfolio, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, &LoadError{Source: l.URL, Err: err}
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: l.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoadError{Source: l.URL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LoadError{Source: l.URL, Err: err}
	}
	return parse(l.URL, body)
}

// File reads the document from disk. A missing file is reported like a
// 404 response.
type File struct {
	Path string
}

func (l *File) Load(ctx context.Context) (*portfolio.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Source: l.Path, Err: err}
	}
	body, err := os.ReadFile(l.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Source: l.Path, Status: http.StatusNotFound, Err: err}
	}
	if err != nil {
		return nil, &LoadError{Source: l.Path, Err: err}
	}
	return parse(l.Path, body)
}

func parse(source string, body []byte) (*portfolio.Portfolio, error) {
	p, err := portfolio.Parse(body)
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	return p, nil
}
