// Package server hosts the portfolio page with Gin. Each GET / is one page
// load: the host template is parsed, the profile document is fetched and
// rendered into it, and the result is written back.
package server

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/dom"
	"github.com/Zachkp/folio/internal/loader"
	"github.com/Zachkp/folio/internal/page"
	"github.com/Zachkp/folio/internal/reveal"
	"github.com/Zachkp/folio/internal/theme"
)

const visitorCookie = "folio_visitor"

// Server is the portfolio host.
type Server struct {
	cfg        *config.Config
	backend    theme.Backend
	template   []byte
	client     *http.Client
	sessions   *sessionRegistry
	engine     *gin.Engine
	httpServer *http.Server
}

// New reads the host template and builds the router.
func New(cfg *config.Config, backend theme.Backend) (*Server, error) {
	tmpl, err := os.ReadFile(cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("reading host template %s: %w", cfg.Template, err)
	}
	if _, err := dom.Parse(bytes.NewReader(tmpl)); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		backend:  backend,
		template: tmpl,
		client:   &http.Client{},
		sessions: newSessionRegistry(cfg.SessionTTL),
	}
	s.engine = s.buildRouter()
	return s, nil
}

// Handler returns the Gin engine.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) buildRouter() *gin.Engine {
	r := gin.Default()

	r.Static("/images", s.cfg.ImagesDir)
	r.Static("/static", s.cfg.StaticDir)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The data file itself, never cached.
	r.GET("/"+strings.TrimPrefix(s.cfg.ProfilePath, "/"), func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.File(s.cfg.ProfilePath)
	})

	site := r.Group("/")
	site.Use(visitorMiddleware())

	site.GET("/", s.handlePage)
	site.POST("/theme/toggle", s.handleThemeToggle)
	site.POST("/reveal/:session/:section", s.handleReveal)

	return r
}

// visitorMiddleware gives every browser a stable random id so its theme
// choice can be found again.
func visitorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(visitorCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetCookie(visitorCookie, id, 3600*24*365, "/", "", false, true)
		}
		c.Set(visitorCookie, id)
		c.Next()
	}
}

// clientEnv reads the media preferences from client hints.
func clientEnv(c *gin.Context) page.Env {
	hint := func(name string) string {
		return strings.Trim(c.GetHeader(name), `" `)
	}
	return page.Env{
		PrefersDark:          hint("Sec-CH-Prefers-Color-Scheme") == "dark",
		PrefersReducedMotion: hint("Sec-CH-Prefers-Reduced-Motion") == "reduce",
	}
}

func (s *Server) storage(c *gin.Context) theme.Storage {
	return s.backend.For(c.GetString(visitorCookie))
}

func (s *Server) newDocument() (*dom.Document, error) {
	return dom.Parse(bytes.NewReader(s.template))
}

// profileLoader reads the document from the configured source, or from the
// data file this server publishes at profile_path.
func (s *Server) profileLoader() loader.Loader {
	if s.cfg.ProfileSource != "" {
		return loader.New(s.cfg.ProfileSource, s.client)
	}
	return &loader.File{Path: s.cfg.ProfilePath}
}

func (s *Server) handlePage(c *gin.Context) {
	c.Header("Accept-CH", "Sec-CH-Prefers-Color-Scheme, Sec-CH-Prefers-Reduced-Motion")
	c.Header("Vary", "Sec-CH-Prefers-Color-Scheme, Sec-CH-Prefers-Reduced-Motion")

	doc, err := s.newDocument()
	if err != nil {
		log.Printf("Error parsing host template: %v", err)
		c.String(http.StatusInternalServerError, "template error")
		return
	}

	sessionID := uuid.NewString()
	observer := reveal.NewObserver()
	sess := page.NewSession(doc, s.profileLoader(), s.storage(c),
		&htmxWatcher{sessionID: sessionID, observer: observer, delay: s.cfg.RevealDelay},
		clientEnv(c), s.cfg.PlaceholderEmail)
	// The browser waits out the reveal delay itself, see htmxWatcher.
	sess.RevealDelay = 0

	// Failures are already rendered into the page.
	_ = sess.Run(c.Request.Context())

	if observer.Pending() > 0 {
		s.sessions.add(sessionID, &liveSession{doc: doc, observer: observer})
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		log.Printf("Error rendering page: %v", err)
		c.String(http.StatusInternalServerError, "render error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleThemeToggle(c *gin.Context) {
	ctx := c.Request.Context()

	doc, err := s.newDocument()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "template error"})
		return
	}
	t, err := theme.Init(ctx, doc, s.storage(c), clientEnv(c).PrefersDark)
	if err != nil {
		log.Printf("Error restoring theme: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "theme storage unavailable"})
		return
	}

	if btn := doc.ByID(theme.ToggleID); btn != nil {
		err = doc.Dispatch(ctx, btn, "click")
	} else {
		err = t.Click(ctx)
	}
	if err != nil {
		log.Printf("Error toggling theme: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save theme"})
		return
	}

	// The reload re-applies the stored choice before any content renders.
	c.Header("HX-Refresh", "true")
	c.JSON(http.StatusOK, gin.H{"theme": string(t.Mode())})
}

func (s *Server) handleReveal(c *gin.Context) {
	sessionID := c.Param("session")
	live := s.sessions.get(sessionID)
	if live == nil {
		c.Status(http.StatusNoContent)
		return
	}

	ratio := 1.0
	if v := c.PostForm("ratio"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ratio"})
			return
		}
		ratio = parsed
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	section := live.doc.ByID(c.Param("section"))
	if section == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "section not found"})
		return
	}
	live.observer.Deliver(reveal.Entry{Target: section, Intersecting: true, Ratio: ratio})
	if live.observer.Pending() == 0 {
		s.sessions.drop(sessionID)
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dom.OuterHTML(section)))
}

// Start serves on the configured port and expires page sessions in the
// background until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	go s.sessions.sweepLoop(ctx, time.Minute)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Printf("Portfolio available at http://localhost%s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
