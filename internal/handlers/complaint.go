package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
	"github.com/SUSHANT-M-GIT/SIH/internal/services"
)

const (
	composerPath = "/create-complaint"

	msgUploadTooLarge = "The selected files are too large to upload."
	msgBadUpload      = "The selected files could not be read."
)

// Dashboard handles GET /dashboard. Every visit reloads the list.
func (p *Portal) Dashboard(w http.ResponseWriter, r *http.Request) {
	store, ws, ok := p.current(r)
	if !ok {
		p.noSession(w)
		return
	}

	state, err := ws.list.Load(r.Context())
	if errors.Is(err, services.ErrRedirectLogin) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	p.render(w, http.StatusOK, "dashboard.html", pageData{
		Title:   "My Complaints",
		Session: store.Current(),
		Flash:   ws.takeFlash(),
		Data:    state,
	})
}

// RetryDashboard handles POST /dashboard/retry
func (p *Portal) RetryDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Detail handles GET /complaint/{complaintId}
func (p *Portal) Detail(w http.ResponseWriter, r *http.Request) {
	store, ws, ok := p.current(r)
	if !ok {
		p.noSession(w)
		return
	}

	state, err := ws.detail.Load(r.Context(), chi.URLParam(r, "complaintId"))
	if errors.Is(err, services.ErrRedirectList) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	p.render(w, http.StatusOK, "detail.html", pageData{
		Title:   "Complaint Details",
		Session: store.Current(),
		Data:    state,
	})
}

// ComposerPage handles GET /create-complaint
func (p *Portal) ComposerPage(w http.ResponseWriter, r *http.Request) {
	store, ws, ok := p.current(r)
	if !ok {
		p.noSession(w)
		return
	}
	p.renderComposer(w, http.StatusOK, store.Current(), ws, "")
}

func (p *Portal) renderComposer(w http.ResponseWriter, status int, s models.Session, ws *workspace, errMsg string) {
	p.render(w, status, "composer.html", pageData{
		Title:   "New Complaint",
		Session: s,
		Error:   errMsg,
		Data:    ws.composer.View(),
	})
}

// composerAction wraps every POST under /create-complaint. All composer
// buttons live in one multipart form, so each action first saves the
// description and stages any newly chosen files, then runs act.
func (p *Portal) composerAction(act func(ctx context.Context, r *http.Request, c *services.Composer) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ws, ok := p.current(r)
		if !ok {
			p.noSession(w)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, p.maxUpload)
		if err := r.ParseMultipartForm(p.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				p.renderComposer(w, http.StatusRequestEntityTooLarge, store.Current(), ws, msgUploadTooLarge)
				return
			}
			p.logger.Warnw("Failed to parse composer form", "error", err)
			p.renderComposer(w, http.StatusBadRequest, store.Current(), ws, msgBadUpload)
			return
		}
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}

		if _, present := r.Form["complaints"]; present {
			ws.composer.SetDescription(r.FormValue("complaints"))
		}
		files, err := stagedFiles(r)
		if err != nil {
			p.logger.Warnw("Failed to read uploaded file", "error", err)
			p.renderComposer(w, http.StatusBadRequest, store.Current(), ws, msgBadUpload)
			return
		}
		ws.composer.AddFiles(files...)

		next, err := act(r.Context(), r, ws.composer)
		if err != nil {
			p.renderComposer(w, http.StatusOK, store.Current(), ws, services.SubmitMessage(err))
			return
		}
		if next == "" {
			next = composerPath
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

func stagedFiles(r *http.Request) ([]models.StagedFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var out []models.StagedFile
	for _, fh := range r.MultipartForm.File["files"] {
		// An empty file input still posts one nameless part
		if fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", fh.Filename, err)
		}
		out = append(out, models.StagedFile{Name: fh.Filename, Data: data})
	}
	return out, nil
}

// SaveDraft handles POST /create-complaint/files. Staging already happened
// in composerAction.
func (p *Portal) SaveDraft() http.HandlerFunc {
	return p.composerAction(func(ctx context.Context, r *http.Request, c *services.Composer) (string, error) {
		return "", nil
	})
}

// RemoveFile handles POST /create-complaint/files/remove
func (p *Portal) RemoveFile() http.HandlerFunc {
	return p.composerAction(func(ctx context.Context, r *http.Request, c *services.Composer) (string, error) {
		index, err := strconv.Atoi(r.FormValue("index"))
		if err != nil {
			return "", nil
		}
		if err := c.RemoveAt(index); err != nil {
			p.logger.Debugw("Ignoring stale file removal", "index", index, "error", err)
		}
		return "", nil
	})
}

// AddLocation handles POST /create-complaint/location. The browser posts
// either a fix or the reason it could not get one.
func (p *Portal) AddLocation() http.HandlerFunc {
	return p.composerAction(func(ctx context.Context, r *http.Request, c *services.Composer) (string, error) {
		fix := browserFix{
			latitude:  r.FormValue("latitude"),
			longitude: r.FormValue("longitude"),
			failure:   r.FormValue("geo_error"),
		}
		if err := c.RequestLocation(ctx, fix); err != nil {
			p.logger.Debugw("Location request ignored", "error", err)
		}
		return "", nil
	})
}

// RemoveLocation handles POST /create-complaint/location/remove
func (p *Portal) RemoveLocation() http.HandlerFunc {
	return p.composerAction(func(ctx context.Context, r *http.Request, c *services.Composer) (string, error) {
		c.RemoveLocation()
		return "", nil
	})
}

// Submit handles POST /create-complaint/submit
func (p *Portal) Submit() http.HandlerFunc {
	return p.composerAction(func(ctx context.Context, r *http.Request, c *services.Composer) (string, error) {
		err := c.Submit(ctx)
		switch {
		case errors.Is(err, services.ErrNotAuthenticated):
			return "/login", nil
		case err != nil:
			return "", err
		}
		if _, ws, ok := p.current(r); ok {
			ws.setFlash(services.SubmittedFlash)
		}
		return "/dashboard", nil
	})
}

// browserFix is the outcome of the browser's geolocation call, relayed
// through the composer form.
type browserFix struct {
	latitude  string
	longitude string
	failure   string
}

func (b browserFix) Locate(ctx context.Context) (models.Coordinates, error) {
	switch b.failure {
	case "":
	case "denied":
		return models.Coordinates{}, services.ErrGeolocationDenied
	case "unsupported":
		return models.Coordinates{}, services.ErrGeolocationUnsupported
	default:
		return models.Coordinates{}, fmt.Errorf("browser geolocation failed: %s", b.failure)
	}

	// No script ran, so there is no location capability
	if strings.TrimSpace(b.latitude) == "" && strings.TrimSpace(b.longitude) == "" {
		return models.Coordinates{}, services.ErrGeolocationUnsupported
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(b.latitude), 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(b.longitude), 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse longitude: %w", err)
	}
	// ParseFloat accepts "NaN", which passes every range comparison
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return models.Coordinates{}, fmt.Errorf("coordinates out of range: %f, %f", lat, lon)
	}
	return models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
