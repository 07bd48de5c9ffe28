// Package handlers contains the HTTP handlers of the citizen portal.
// Page handlers render HTML; the /api/v1 handlers return JSON.
package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/SUSHANT-M-GIT/SIH/internal/attachment"
	"github.com/SUSHANT-M-GIT/SIH/internal/middleware"
	"github.com/SUSHANT-M-GIT/SIH/internal/models"
	"github.com/SUSHANT-M-GIT/SIH/internal/repository"
	"github.com/SUSHANT-M-GIT/SIH/internal/services"
	"github.com/SUSHANT-M-GIT/SIH/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{"login.html", "register.html", "dashboard.html", "composer.html", "detail.html"}

// RepositoryFunc hands out the repository for the host a page was requested on.
type RepositoryFunc func(pageHost string) repository.ComplaintRepository

// workspace is the per-session state behind the protected pages.
type workspace struct {
	composer *services.Composer
	list     *services.ListView
	detail   *services.DetailView

	mu    sync.Mutex
	flash string
}

func (ws *workspace) setFlash(msg string) {
	ws.mu.Lock()
	ws.flash = msg
	ws.mu.Unlock()
}

func (ws *workspace) takeFlash() string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	msg := ws.flash
	ws.flash = ""
	return msg
}

// Portal serves the citizen-facing pages.
type Portal struct {
	repos     RepositoryFunc
	geocoder  services.Geocoder
	validate  *validator.Validate
	pages     map[string]*template.Template
	maxUpload int64
	logger    *zap.SugaredLogger

	mu         sync.Mutex
	workspaces map[string]*workspace
}

// NewPortal parses the page templates and returns the portal handlers.
func NewPortal(repos RepositoryFunc, geocoder services.Geocoder, maxUpload int64, logger *zap.SugaredLogger) (*Portal, error) {
	funcs := template.FuncMap{
		"locator": locatorURL,
		"isImage": func(k attachment.Kind) bool { return k == attachment.KindImage },
		"isVideo": func(k attachment.Kind) bool { return k == attachment.KindVideo },
		"isDoc":   func(k attachment.Kind) bool { return k == attachment.KindDocument },
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return &Portal{
		repos:      repos,
		geocoder:   geocoder,
		validate:   validator.New(),
		pages:      pages,
		maxUpload:  maxUpload,
		logger:     logger,
		workspaces: make(map[string]*workspace),
	}, nil
}

// Mount registers the page routes. r must already carry the session middleware.
func (p *Portal) Mount(r chi.Router) {
	r.Get("/", p.Root)
	r.Handle("/static/*", p.Static())

	r.Get("/login", p.LoginPage)
	r.Post("/login", p.Login)
	r.Get("/createuser", p.RegisterPage)
	r.Post("/createuser", p.Register)
	r.Post("/logout", p.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession("/login"))
		r.Get("/dashboard", p.Dashboard)
		r.Post("/dashboard/retry", p.RetryDashboard)
		r.Get("/complaint/{complaintId}", p.Detail)
		r.Route("/create-complaint", func(r chi.Router) {
			r.Get("/", p.ComposerPage)
			r.Post("/files", p.SaveDraft())
			r.Post("/files/remove", p.RemoveFile())
			r.Post("/location", p.AddLocation())
			r.Post("/location/remove", p.RemoveLocation())
			r.Post("/submit", p.Submit())
		})
	})

	r.NotFound(p.NotFound)
}

// MountAPI registers the JSON routes under an /api/v1 router.
func (p *Portal) MountAPI(r chi.Router) {
	r.Route("/complaints", func(r chi.Router) {
		r.Use(middleware.RequireSessionJSON())
		r.Get("/", p.ListJSON)
		r.Get("/{complaintId}", p.DetailJSON)
	})
}

// Static serves the embedded stylesheet and script.
func (p *Portal) Static() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Forget drops the workspace of an expired or logged out session.
func (p *Portal) Forget(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.workspaces, sessionID)
}

// Root handles GET / by sending the browser to the dashboard or to login.
func (p *Portal) Root(w http.ResponseWriter, r *http.Request) {
	_, store, ok := middleware.SessionFrom(r.Context())
	if ok && session.Allow(store.Current()) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// NotFound sends unmatched paths back to the root.
func (p *Portal) NotFound(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// current returns the session and workspace of the request. The session
// middleware always runs first, so a missing session is a wiring bug.
func (p *Portal) current(r *http.Request) (*session.MemoryStore, *workspace, bool) {
	id, store, ok := middleware.SessionFrom(r.Context())
	if !ok {
		p.logger.Errorw("Request reached a page handler without a session", "path", r.URL.Path)
		return nil, nil, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ws, ok := p.workspaces[id]
	if !ok {
		repo := p.repos(r.Host)
		ws = &workspace{
			composer: services.NewComposer(store, repo, p.geocoder, p.logger),
			list:     services.NewListView(store, repo, p.logger),
			detail:   services.NewDetailView(store, repo, p.logger),
		}
		p.workspaces[id] = ws
	}
	return store, ws, true
}

// pageData is passed to every page template.
type pageData struct {
	Title   string
	Session models.Session
	Flash   string
	Error   string
	Data    interface{}
}

func (p *Portal) render(w http.ResponseWriter, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := p.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.Errorw("Failed to render page", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *Portal) noSession(w http.ResponseWriter) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// locatorURL lets codec-built data URIs through html/template's URL filter.
func locatorURL(s string) template.URL {
	if !strings.HasPrefix(s, "data:") {
		return template.URL("#")
	}
	return template.URL(s)
}
