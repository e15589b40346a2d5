// Package render maps slices of the portfolio view-model onto mount targets
// of the host page. Every renderer clears its target before filling it, and
// a nil target makes it a no-op.
package render

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/Zachkp/folio/internal/dom"
	"github.com/Zachkp/folio/internal/portfolio"
)

// Renderer builds section subtrees for one document.
type Renderer struct {
	Doc  *dom.Document
	Text Strings

	// PlaceholderEmail suppresses an email that contains it, so the sample
	// address of a template document is never shown. Empty disables the check.
	PlaceholderEmail string
}

// New returns a Renderer using the default copy.
func New(doc *dom.Document, placeholderEmail string) *Renderer {
	return &Renderer{Doc: doc, Text: Default, PlaceholderEmail: placeholderEmail}
}

// ShowEmail reports whether email should be displayed.
func (r *Renderer) ShowEmail(email string) bool {
	if !portfolio.IsNonEmptyString(email) {
		return false
	}
	return r.PlaceholderEmail == "" || !strings.Contains(email, r.PlaceholderEmail)
}

// Pills renders each item as a tag; with accentFirst the first one is
// emphasised.
func (r *Renderer) Pills(target *html.Node, items []string, accentFirst bool) {
	if target == nil {
		return
	}
	dom.Clear(target)
	n := 0
	for _, item := range items {
		if !portfolio.IsNonEmptyString(item) {
			continue
		}
		class := "pill"
		if accentFirst && n == 0 {
			class += " pill--accent"
		}
		target.AppendChild(r.Doc.El("span", dom.Attrs{"class": class, "text": item}))
		n++
	}
}

// Links renders external link buttons. Entries without a url are skipped and
// the first rendered link is the primary one.
func (r *Renderer) Links(target *html.Node, links []portfolio.Link) {
	if target == nil {
		return
	}
	dom.Clear(target)
	for i, l := range validLinks(links) {
		class := "btn"
		if i == 0 {
			class += " btn--primary"
		}
		target.AppendChild(r.external(class, l))
	}
}

// Highlights renders a bullet per item.
func (r *Renderer) Highlights(target *html.Node, items []string) {
	if target == nil {
		return
	}
	dom.Clear(target)
	for _, item := range items {
		if portfolio.IsNonEmptyString(item) {
			target.AppendChild(r.Doc.El("li", nil, item))
		}
	}
}

// Experience renders the timeline.
func (r *Renderer) Experience(target *html.Node, entries []portfolio.Experience) {
	if target == nil {
		return
	}
	dom.Clear(target)
	for _, e := range entries {
		target.AppendChild(r.Doc.El("div", dom.Attrs{"class": "timeline__item"},
			r.Doc.El("div", dom.Attrs{"class": "timeline__top"},
				r.Doc.El("div", nil,
					r.Doc.El("h3", dom.Attrs{"class": "timeline__title", "text": e.Title}),
					r.Doc.El("div", dom.Attrs{"class": "timeline__org", "text": e.Org}),
				),
				r.Doc.El("div", dom.Attrs{"class": "timeline__period", "text": e.Period}),
			),
			r.list("timeline__details", e.Details),
		))
	}
}

// Projects renders one card per project.
func (r *Renderer) Projects(target *html.Node, projects []portfolio.Project) {
	if target == nil {
		return
	}
	dom.Clear(target)
	for _, p := range projects {
		target.AppendChild(r.project(p))
	}
}

func (r *Renderer) project(p portfolio.Project) *html.Node {
	impact := r.list("project__list", p.Impact)
	if impact == nil {
		impact = r.Doc.El("p", dom.Attrs{"text": r.Text.EmptyValue})
	}

	var features *html.Node
	if list := r.list("project__list", p.Features); list != nil {
		features = r.Doc.El("div", dom.Attrs{"class": "project__block"},
			r.Doc.El("h4", dom.Attrs{"text": r.Text.KeyFeatures}),
			list,
		)
	}

	return r.Doc.El("article", dom.Attrs{"class": "project"},
		r.Doc.El("div", dom.Attrs{"class": "project__head"},
			r.Doc.El("h3", dom.Attrs{"class": "project__name", "text": p.Name}),
			r.Doc.El("div", dom.Attrs{"class": "project__meta", "text": r.projectMeta(p)}),
		),
		r.Doc.El("p", dom.Attrs{"class": "project__one", "text": p.OneLiner}),
		r.Doc.El("div", dom.Attrs{"class": "project__body"},
			r.Doc.El("div", dom.Attrs{"class": "project__cols"},
				r.block(r.Text.Problem, r.Doc.El("p", dom.Attrs{"text": p.Problem})),
				r.block(r.Text.Solution, r.Doc.El("p", dom.Attrs{"text": p.Solution})),
				r.block(r.Text.Impact, impact),
			),
			features,
		),
		r.Doc.El("div", dom.Attrs{"class": "project__foot"},
			r.stack(p.Stack),
			r.projectLinks(p.Links),
		),
	)
}

func (r *Renderer) projectMeta(p portfolio.Project) string {
	var parts []string
	for _, s := range []string{p.Type, p.Year, p.Status} {
		if portfolio.IsNonEmptyString(s) {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, r.Text.MetaSeparator)
}

func (r *Renderer) block(title string, body *html.Node) *html.Node {
	return r.Doc.El("div", dom.Attrs{"class": "project__block"},
		r.Doc.El("h4", dom.Attrs{"text": title}),
		body,
	)
}

func (r *Renderer) stack(stack []string) *html.Node {
	row := r.Doc.El("div", dom.Attrs{"class": "pill-row"})
	for _, s := range stack {
		if portfolio.IsNonEmptyString(s) {
			row.AppendChild(r.Doc.El("span", dom.Attrs{"class": "pill", "text": s}))
		}
	}
	return row
}

// projectLinks renders repo, demo and store in that order, or a single
// accent placeholder when none is set.
func (r *Renderer) projectLinks(l portfolio.ProjectLinks) *html.Node {
	row := r.Doc.El("div", dom.Attrs{"class": "pill-row"})
	items := []portfolio.Link{
		{Label: "Repo", URL: l.Repo},
		{Label: "Demo", URL: l.Demo},
		{Label: "Store", URL: l.Store},
	}
	for _, item := range validLinks(items) {
		row.AppendChild(r.Doc.El("a", dom.Attrs{
			"class":  "btn",
			"href":   item.URL,
			"target": "_blank",
			"rel":    "noreferrer",
		}, item.Label, r.Doc.El("span", dom.Attrs{"class": "btn__hint", "text": r.Text.LinkHint})))
	}
	if row.FirstChild == nil {
		row.AppendChild(r.Doc.El("span", dom.Attrs{"class": "pill pill--accent", "text": r.Text.LinksPending}))
	}
	return row
}

// Contact renders role and location tags next to the email action and the
// profile links.
func (r *Renderer) Contact(target *html.Node, p portfolio.Profile) {
	if target == nil {
		return
	}
	dom.Clear(target)

	tags := r.Doc.El("div", dom.Attrs{"class": "pill-row"})
	if portfolio.IsNonEmptyString(p.Role) {
		tags.AppendChild(r.Doc.El("span", dom.Attrs{"class": "pill pill--accent", "text": p.Role}))
	}
	if portfolio.IsNonEmptyString(p.Location) {
		tags.AppendChild(r.Doc.El("span", dom.Attrs{"class": "pill", "text": p.Location}))
	}

	actions := r.Doc.El("div", dom.Attrs{"class": "pill-row"})
	if r.ShowEmail(p.Email) {
		actions.AppendChild(r.Doc.El("a", dom.Attrs{
			"class": "btn btn--primary",
			"href":  "mailto:" + p.Email,
			"text":  p.Email,
		}))
	}
	for _, l := range validLinks(p.Links) {
		actions.AppendChild(r.external("btn", l))
	}

	target.AppendChild(r.Doc.El("div", nil, tags))
	target.AppendChild(actions)
}

// Meta renders the location and email line of the profile header.
func (r *Renderer) Meta(target *html.Node, p portfolio.Profile) {
	if target == nil {
		return
	}
	dom.Clear(target)
	if portfolio.IsNonEmptyString(p.Location) {
		target.AppendChild(r.Doc.El("span", dom.Attrs{"text": r.Text.LocationMark + p.Location}))
	}
	if r.ShowEmail(p.Email) {
		target.AppendChild(r.Doc.El("span", dom.Attrs{"text": r.Text.EmailMark + p.Email}))
	}
}

func (r *Renderer) external(class string, l portfolio.Link) *html.Node {
	label := l.Label
	if !portfolio.IsNonEmptyString(label) {
		label = l.URL
	}
	return r.Doc.El("a", dom.Attrs{
		"class":  class,
		"href":   l.URL,
		"target": "_blank",
		"rel":    "noreferrer",
		"text":   label,
	})
}

// list returns a <ul> of the present items, or nil when there are none.
func (r *Renderer) list(class string, items []string) *html.Node {
	var lis []*html.Node
	for _, item := range items {
		if portfolio.IsNonEmptyString(item) {
			lis = append(lis, r.Doc.El("li", nil, item))
		}
	}
	if len(lis) == 0 {
		return nil
	}
	return r.Doc.El("ul", dom.Attrs{"class": class}, lis)
}

func validLinks(links []portfolio.Link) []portfolio.Link {
	var out []portfolio.Link
	for _, l := range links {
		if portfolio.IsNonEmptyString(l.URL) {
			out = append(out, l)
		}
	}
	return out
}
