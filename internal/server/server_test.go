package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/reveal"
	"github.com/Zachkp/folio/internal/theme"
)

const hostTemplate = `<!DOCTYPE html><html><head><title>Loading</title></head><body>
<button id="themeToggle" hx-post="/theme/toggle">Theme</button>
<main id="main">
<section class="section" id="about"><h1 id="profileName"></h1><p id="profileRole"></p><div id="contactRow"></div></section>
<section class="section" id="projects"><div id="projectGrid"></div></section>
</main>
<footer><p id="footerText"></p></footer>
</body></html>`

const profile = `{"site":{"title":"Grace · Portfolio"},"profile":{"name":"Grace","role":"Compiler Engineer","email":"grace@navy.mil"},"projects":[{"name":"COBOL"}],"footer":{"text":"© Grace"}}`

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*config.Config, *Server) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if err := os.MkdirAll(filepath.Join(dir, "templates"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "app"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("templates/index.html", []byte(hostTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("app/profile.json", []byte(profile), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Store = config.StoreMemory
	cfg.RevealDelay = 0
	cfg.ProfileSource = "app/profile.json"

	s, err := New(cfg, theme.NewMemoryBackend())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cfg, s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func visitorFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == visitorCookie {
			return c
		}
	}
	t.Fatal("no visitor cookie set")
	return nil
}

func TestHealthz(t *testing.T) {
	_, s := setup(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestPageRendersProfile(t *testing.T) {
	_, s := setup(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<title>Grace · Portfolio</title>",
		">Grace</h1>",
		">Compiler Engineer</p>",
		"mailto:grace@navy.mil",
		"COBOL",
		"© Grace",
		`hx-trigger="intersect once threshold:0.1"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if !strings.Contains(rec.Header().Get("Accept-CH"), "Sec-CH-Prefers-Color-Scheme") {
		t.Error("page should ask for media preference hints")
	}
	visitorFrom(t, rec)
	if s.sessions.count() != 1 {
		t.Errorf("sessions = %d, want 1", s.sessions.count())
	}
}

func TestPageIgnoresRequestHost(t *testing.T) {
	cfg, s := setup(t)
	cfg.ProfileSource = ""

	var hits atomic.Int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"profile":{"name":"Mallory"}}`))
	}))
	defer other.Close()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	for _, host := range []string{strings.TrimPrefix(other.URL, "http://"), "127.0.0.1:1"} {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
		if err != nil {
			t.Fatal(err)
		}
		req.Host = host
		req.Header.Set("X-Forwarded-Proto", "https")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatal(err)
		}

		page := string(body)
		if !strings.Contains(page, ">Grace</h1>") {
			t.Errorf("Host %s: configured profile should be rendered", host)
		}
		if strings.Contains(page, "Mallory") || strings.Contains(page, "section--fatal") {
			t.Errorf("Host %s: page was built from another source", host)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("server fetched from a client-chosen host %d times", n)
	}
}

func TestProfileNotCached(t *testing.T) {
	_, s := setup(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/app/profile.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}

func TestMissingProfileShowsFatalPanel(t *testing.T) {
	cfg, s := setup(t)
	cfg.ProfileSource = "app/missing.json"

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	body := rec.Body.String()
	if strings.Count(body, "section--fatal") != 1 {
		t.Errorf("expected exactly one fatal panel, got body %s", body)
	}
	if !strings.Contains(body, "404") {
		t.Error("fatal panel should carry the status")
	}
	if s.sessions.count() != 0 {
		t.Error("a failed load should not keep a reveal session")
	}
}

func TestThemeToggleRoundTrip(t *testing.T) {
	_, s := setup(t)
	first := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := visitorFrom(t, first)
	if strings.Contains(first.Body.String(), "data-theme") {
		t.Fatal("no theme should be applied before a choice is made")
	}

	toggle := func(want theme.Mode) {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
		req.AddCookie(cookie)
		rec := do(s, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle status = %d", rec.Code)
		}
		if rec.Header().Get("HX-Refresh") != "true" {
			t.Error("toggle should ask the page to reload")
		}
		var got struct {
			Theme string `json:"theme"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.Theme != string(want) {
			t.Errorf("theme = %q, want %q", got.Theme, want)
		}

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		page := do(s, req).Body.String()
		if !strings.Contains(page, `data-theme="`+string(want)+`"`) {
			t.Errorf("reloaded page should carry data-theme=%q", want)
		}
	}

	toggle(theme.Dark)
	toggle(theme.Light)
	toggle(theme.Dark)

	// A fresh visitor is unaffected.
	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Contains(rec.Body.String(), "data-theme") {
		t.Error("theme leaked to another visitor")
	}
}

func TestThemeToggleFollowsSystemPreference(t *testing.T) {
	_, s := setup(t)
	req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", `"dark"`)
	rec := do(s, req)
	if !strings.Contains(rec.Body.String(), `"light"`) {
		t.Errorf("first toggle on a dark system should pick light, got %s", rec.Body.String())
	}
}

var revealPath = regexp.MustCompile(`hx-post="(/reveal/[^"]+)"`)

func TestRevealOnce(t *testing.T) {
	_, s := setup(t)
	page := do(s, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()

	paths := revealPath.FindAllStringSubmatch(page, -1)
	if len(paths) != 2 {
		t.Fatalf("reveal callbacks = %d, want 2", len(paths))
	}

	post := func(path string, ratio string) *httptest.ResponseRecorder {
		form := url.Values{"ratio": {ratio}}
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return do(s, req)
	}

	// Below the threshold nothing is revealed yet.
	rec := post(paths[0][1], "0.05")
	if strings.Contains(rec.Body.String(), "animate-in") {
		t.Error("section revealed below the visibility threshold")
	}

	rec = post(paths[0][1], "0.5")
	if rec.Code != http.StatusOK {
		t.Fatalf("reveal status = %d", rec.Code)
	}
	fragment := rec.Body.String()
	if !strings.Contains(fragment, "animate-in") || strings.Contains(fragment, "hx-post") {
		t.Errorf("revealed fragment = %s", fragment)
	}
	if s.sessions.count() != 1 {
		t.Error("session should stay while a section is still watched")
	}

	post(paths[1][1], "1")
	if s.sessions.count() != 0 {
		t.Error("session should be dropped once every section is revealed")
	}
	if rec := post(paths[1][1], "1"); rec.Code != http.StatusNoContent {
		t.Errorf("finished session status = %d, want 204", rec.Code)
	}
}

func TestRevealBadRequests(t *testing.T) {
	_, s := setup(t)
	page := do(s, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	path := revealPath.FindStringSubmatch(page)[1]
	sessionPath := path[:strings.LastIndex(path, "/")]

	if rec := do(s, httptest.NewRequest(http.MethodPost, sessionPath+"/nowhere", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("unknown section status = %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("ratio=lots"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("bad ratio status = %d", rec.Code)
	}
	if rec := do(s, httptest.NewRequest(http.MethodPost, "/reveal/unknown/about", nil)); rec.Code != http.StatusNoContent {
		t.Errorf("unknown session status = %d", rec.Code)
	}
}

func TestReducedMotionSkipsReveal(t *testing.T) {
	_, s := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Sec-CH-Prefers-Reduced-Motion", "reduce")
	body := do(s, req).Body.String()

	if strings.Contains(body, "hx-trigger") || strings.Contains(body, "animate-in") {
		t.Error("reduced motion should leave sections alone")
	}
	if s.sessions.count() != 0 {
		t.Error("nothing to watch, so no session")
	}
}

func TestSessionExpiry(t *testing.T) {
	r := newSessionRegistry(time.Millisecond)
	r.add("a", &liveSession{})
	time.Sleep(5 * time.Millisecond)
	if r.get("a") != nil {
		t.Error("expired session returned")
	}
	if n := r.sweep(); n != 1 || r.count() != 0 {
		t.Errorf("sweep removed %d, left %d", n, r.count())
	}
}

func TestVisitorCookieReused(t *testing.T) {
	_, s := setup(t)
	cookie := visitorFrom(t, do(s, httptest.NewRequest(http.MethodGet, "/", nil)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := do(s, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == visitorCookie {
			t.Error("a valid visitor cookie should not be replaced")
		}
	}
}

func TestRevealDelayLeftToBrowser(t *testing.T) {
	cfg, s := setup(t)
	cfg.RevealDelay = 2 * time.Second

	start := time.Now()
	body := do(s, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("page took %s, the reveal delay should not hold the response", elapsed)
	}
	if !strings.Contains(body, `hx-trigger="intersect once threshold:0.1 delay:2000ms"`) {
		t.Errorf("trigger should carry the delay, got %s", body)
	}
}

func TestSectionsWithoutIDAreNotWatched(t *testing.T) {
	cfg, _ := setup(t)
	tmpl := strings.Replace(hostTemplate, `<section class="section" id="projects">`, `<section class="section">`, 1)
	if err := os.WriteFile(cfg.Template, []byte(tmpl), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := New(cfg, theme.NewMemoryBackend())
	if err != nil {
		t.Fatal(err)
	}

	page := do(s, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	paths := revealPath.FindAllStringSubmatch(page, -1)
	if len(paths) != 1 {
		t.Fatalf("reveal callbacks = %d, want 1", len(paths))
	}

	req := httptest.NewRequest(http.MethodPost, paths[0][1], nil)
	if rec := do(s, req); rec.Code != http.StatusOK {
		t.Fatalf("reveal status = %d", rec.Code)
	}
	if s.sessions.count() != 0 {
		t.Error("session should be dropped once every reportable section is revealed")
	}
}

func TestTriggerUsesThreshold(t *testing.T) {
	w := &htmxWatcher{observer: reveal.NewObserver()}
	opts := reveal.Options{Threshold: 0.25, RootMargin: reveal.Margin{Bottom: -50}}
	if got := w.trigger(opts); got != "intersect once threshold:0.25" {
		t.Errorf("trigger = %q", got)
	}
	w.delay = 150 * time.Millisecond
	if got := w.trigger(opts); got != "intersect once threshold:0.25 delay:150ms" {
		t.Errorf("trigger = %q", got)
	}
}
