// Package services contains the portal's business logic: complaint
// composition and the list/detail views. Handlers only translate HTTP.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SUSHANT-M-GIT/SIH/internal/attachment"
	"github.com/SUSHANT-M-GIT/SIH/internal/models"
	"github.com/SUSHANT-M-GIT/SIH/internal/repository"
	"github.com/SUSHANT-M-GIT/SIH/internal/session"
)

var (
	// ErrNotAuthenticated means there is no identity to submit as.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSubmissionInFlight rejects a submit while the previous one is pending.
	ErrSubmissionInFlight = errors.New("submission already in progress")
)

const (
	msgEmptyDescription = "Please enter your complaint description."
	msgSubmitFallback   = "An unexpected error occurred."
	// SubmittedFlash is shown on the dashboard after a successful submission.
	SubmittedFlash = "Complaint created successfully!"
)

// ValidationError blocks a submission locally; the repository is never called.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Composer drives one in-progress complaint: the description, the location
// track and the staged files all converge at Submit.
type Composer struct {
	store    session.Store
	repo     repository.ComplaintRepository
	geocoder Geocoder
	logger   *zap.SugaredLogger

	mu          sync.Mutex
	description string
	files       []models.StagedFile
	inFlight    string
	geo         *GeoTrack
}

// NewComposer creates an empty composition bound to the citizen's session.
func NewComposer(store session.Store, repo repository.ComplaintRepository, geocoder Geocoder, logger *zap.SugaredLogger) *Composer {
	return &Composer{
		store:    store,
		repo:     repo,
		geocoder: geocoder,
		logger:   logger,
		geo:      NewGeoTrack(),
	}
}

func (c *Composer) SetDescription(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.description = text
}

func (c *Composer) Description() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.description
}

// AddFiles appends to the staged list. Size and type are not checked.
func (c *Composer) AddFiles(files ...models.StagedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, files...)
}

// RemoveAt drops the staged file at index.
func (c *Composer) RemoveAt(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.files) {
		return fmt.Errorf("no staged file at index %d", index)
	}
	c.files = append(c.files[:index:index], c.files[index+1:]...)
	return nil
}

// Staged returns a copy of the staged files in order.
func (c *Composer) Staged() []models.StagedFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.StagedFile(nil), c.files...)
}

// RequestLocation runs the location track once. Locator failures are
// reported through the track's message, not as composer errors.
func (c *Composer) RequestLocation(ctx context.Context, locator Locator) error {
	err := c.geo.Request(ctx, locator, c.geocoder)
	if errors.Is(err, ErrLocationPending) || errors.Is(err, ErrLocationAlreadySet) {
		return err
	}
	if err != nil {
		c.logger.Infow("Location unavailable", "error", err)
	}
	return nil
}

// RemoveLocation resets the location track to idle.
func (c *Composer) RemoveLocation() {
	c.geo.Remove()
}

func (c *Composer) Location() GeoSnapshot {
	return c.geo.Snapshot()
}

// CanSubmit mirrors the state of the submit button.
func (c *Composer) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight == "" && strings.TrimSpace(c.description) != ""
}

// Submit sends the composition. On success the draft is reset; on failure
// everything stays staged for a retry.
func (c *Composer) Submit(ctx context.Context) error {
	current := c.store.Current()
	if !session.Allow(current) {
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.inFlight != "" {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if strings.TrimSpace(c.description) == "" {
		c.mu.Unlock()
		return &ValidationError{Field: "complaints", Message: msgEmptyDescription}
	}
	token := uuid.NewString()
	c.inFlight = token
	description := c.description
	files := append([]models.StagedFile(nil), c.files...)
	c.mu.Unlock()

	if loc, ok := c.geo.Resolved(); ok {
		description = WithLocation(description, loc)
	}

	_, err := c.repo.CreateComplaint(ctx, current.Identity, description, files)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight == token {
		c.inFlight = ""
	}
	if err != nil {
		c.logger.Errorw("Failed to submit complaint", "error", err, "attachments", len(files))
		return err
	}

	c.description = ""
	c.files = nil
	c.geo.Remove()
	c.logger.Infow("Complaint composed and submitted", "attachments", len(files))
	return nil
}

// WithLocation appends the location block to a description.
func WithLocation(description string, loc models.Location) string {
	return description +
		"\n\n--- Location Information ---\nAddress: " + loc.Address +
		"\nCoordinates: (" + formatCoord(loc.Latitude) + ", " + formatCoord(loc.Longitude) + ")"
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SubmitMessage converts a Submit error to the text shown in the composer.
func SubmitMessage(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, ErrSubmissionInFlight):
		return "Your complaint is already being submitted."
	default:
		return repository.MessageOr(err, msgSubmitFallback)
	}
}

// StagedView is a staged file as listed in the composer.
type StagedView struct {
	Index int
	Name  string
	Size  string
	Kind  attachment.Kind
}

// ComposerView is everything the composer page renders.
type ComposerView struct {
	Description        string
	Files              []StagedView
	Location           GeoSnapshot
	Submitting         bool
	CanSubmit          bool
	CanRequestLocation bool
}

func (c *Composer) View() ComposerView {
	c.mu.Lock()
	v := ComposerView{
		Description: c.description,
		Submitting:  c.inFlight != "",
		CanSubmit:   c.inFlight == "" && strings.TrimSpace(c.description) != "",
	}
	for i, f := range c.files {
		v.Files = append(v.Files, StagedView{
			Index: i,
			Name:  f.Name,
			Size:  humanize.IBytes(uint64(f.Size())),
			Kind:  attachment.KindOf(f.Name),
		})
	}
	c.mu.Unlock()

	v.Location = c.geo.Snapshot()
	v.CanRequestLocation = c.geo.CanRequest()
	return v
}
