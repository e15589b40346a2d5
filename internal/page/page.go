// Package page runs one page load: restore the theme, load the profile
// document, render every section into the host page, then switch on the
// scroll reveal. It is the only place errors are turned into UI.
package page

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Zachkp/folio/internal/dom"
	"github.com/Zachkp/folio/internal/loader"
	"github.com/Zachkp/folio/internal/portfolio"
	"github.com/Zachkp/folio/internal/render"
	"github.com/Zachkp/folio/internal/reveal"
	"github.com/Zachkp/folio/internal/theme"
)

// Mount ids the host page may expose. Each one is optional.
const (
	IDName       = "profileName"
	IDRole       = "profileRole"
	IDTagline    = "profileTagline"
	IDAvatar     = "profileAvatar"
	IDMeta       = "profileMeta"
	IDLinks      = "profileLinks"
	IDHighlights = "profileHighlights"
	IDSkills     = "skillsPrimary"
	IDTools      = "skillsTools"
	IDProjects   = "projectGrid"
	IDExperience = "experienceTimeline"
	IDContact    = "contactRow"
	IDFooter     = "footerText"
	IDMain       = "main"
)

// DefaultRevealDelay lets the rendered page settle before sections are
// watched.
const DefaultRevealDelay = 100 * time.Millisecond

// Env carries the visitor's media preferences.
type Env struct {
	PrefersDark          bool
	PrefersReducedMotion bool
}

// Session is one page load against one host document.
type Session struct {
	Doc         *dom.Document
	Loader      loader.Loader
	Storage     theme.Storage
	Watcher     reveal.Watcher
	Env         Env
	RevealDelay time.Duration
	Renderer    *render.Renderer

	Theme *theme.Toggle
}

// NewSession wires a session with the default copy.
func NewSession(doc *dom.Document, l loader.Loader, store theme.Storage, w reveal.Watcher, env Env, placeholderEmail string) *Session {
	return &Session{
		Doc:         doc,
		Loader:      l,
		Storage:     store,
		Watcher:     w,
		Env:         env,
		RevealDelay: DefaultRevealDelay,
		Renderer:    render.New(doc, placeholderEmail),
	}
}

// Run performs the page load. A failure to load or apply the document is
// shown in the page and also returned; content already rendered stays.
func (s *Session) Run(ctx context.Context) error {
	if s.Storage != nil {
		t, err := theme.Init(ctx, s.Doc, s.Storage, s.Env.PrefersDark)
		if err != nil {
			log.Printf("Theme unavailable: %v", err)
		}
		s.Theme = t
	}

	p, err := s.Loader.Load(ctx)
	if err == nil {
		err = s.Apply(p)
	}
	if err != nil {
		s.ShowFatal(err.Error())
		return err
	}

	if s.RevealDelay > 0 {
		timer := time.NewTimer(s.RevealDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil
		}
	}
	reveal.Activate(s.Doc, s.Env.PrefersReducedMotion, s.Watcher)
	return nil
}

// Apply renders p into the host page.
func (s *Session) Apply(p *portfolio.Portfolio) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("applying profile document: %v", r)
		}
	}()

	doc, r := s.Doc, s.Renderer
	profile := p.Profile

	if p.Site.Title != "" {
		doc.SetTitle(p.Site.Title)
	}

	if n := doc.ByID(IDName); n != nil {
		dom.SetText(n, first(profile.Name, p.Site.Title, r.Text.DefaultName))
	}
	if n := doc.ByID(IDRole); n != nil {
		dom.SetText(n, first(profile.Role, r.Text.DefaultRole))
	}
	if n := doc.ByID(IDTagline); n != nil {
		dom.SetText(n, first(profile.Summary, p.Site.Tagline))
	}
	if n := doc.ByID(IDAvatar); n != nil {
		if profile.Avatar != "" {
			dom.SetAttr(n, "src", profile.Avatar)
		}
		if profile.Name != "" {
			dom.SetAttr(n, "alt", fmt.Sprintf(r.Text.AvatarAlt, profile.Name))
		}
	}
	r.Meta(doc.ByID(IDMeta), profile)

	r.Links(doc.ByID(IDLinks), profile.Links)
	r.Highlights(doc.ByID(IDHighlights), profile.Highlights)

	r.Pills(doc.ByID(IDSkills), p.Skills.Primary, true)
	r.Pills(doc.ByID(IDTools), p.Skills.Tools, false)

	r.Projects(doc.ByID(IDProjects), p.Projects)
	r.Experience(doc.ByID(IDExperience), p.Experience)
	r.Contact(doc.ByID(IDContact), profile)

	if n := doc.ByID(IDFooter); n != nil && p.Footer.Text != "" {
		dom.SetText(n, p.Footer.Text)
	}
	return nil
}

// ShowFatal logs message and prepends an error panel to the main area.
func (s *Session) ShowFatal(message string) {
	log.Printf("Page load failed: %s", message)

	main := s.Doc.ByID(IDMain)
	if main == nil {
		return
	}
	text := render.Default
	if s.Renderer != nil {
		text = s.Renderer.Text
	}
	panel := s.Doc.El("div", dom.Attrs{"class": "section section--fatal", "role": "alert"},
		s.Doc.El("div", dom.Attrs{"class": "section__head"},
			s.Doc.El("h2", dom.Attrs{"text": text.FatalTitle}),
			s.Doc.El("p", dom.Attrs{"class": "section__sub", "text": text.FatalSubtitle}),
		),
		s.Doc.El("pre", dom.Attrs{"class": "fatal__message"}, message),
	)
	dom.Prepend(main, panel)
}

func first(values ...string) string {
	for _, v := range values {
		if portfolio.IsNonEmptyString(v) {
			return v
		}
	}
	return ""
}
