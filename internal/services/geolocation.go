package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
)

// GeoState is a state of the composer's location track.
type GeoState string

const (
	GeoIdle        GeoState = "idle"
	GeoRequesting  GeoState = "requesting"
	GeoResolved    GeoState = "resolved"
	GeoUnavailable GeoState = "unavailable"
)

var (
	// ErrGeolocationUnsupported means the browser has no location capability.
	ErrGeolocationUnsupported = errors.New("geolocation unsupported")
	// ErrGeolocationDenied means the citizen refused location access.
	ErrGeolocationDenied = errors.New("geolocation denied")

	ErrLocationPending    = errors.New("location request already in progress")
	ErrLocationAlreadySet = errors.New("location already added")
)

const (
	msgGeoUnsupported = "Geolocation is not supported by your browser."
	msgGeoDenied      = "Could not get location. Please allow location access."
	msgGeoUnknown     = "Could not get location. An unknown error occurred."

	addressUndetermined = "Address could not be determined."
)

// Locator is the platform location service. It is queried once per request.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

// Geocoder resolves coordinates to a human readable address.
type Geocoder interface {
	Reverse(ctx context.Context, c models.Coordinates) (string, error)
}

// CoordinateAddress is the address used when reverse geocoding fails.
func CoordinateAddress(c models.Coordinates) string {
	return fmt.Sprintf("Coordinates: %.5f, %.5f", c.Latitude, c.Longitude)
}

// GeoTrack is the location track of a composition:
// idle -> requesting -> resolved | unavailable, and back to idle on Remove.
type GeoTrack struct {
	mu       sync.Mutex
	state    GeoState
	location *models.Location
	message  string
}

// NewGeoTrack returns an idle track.
func NewGeoTrack() *GeoTrack {
	return &GeoTrack{state: GeoIdle}
}

// GeoSnapshot is a consistent view of the track for rendering.
type GeoSnapshot struct {
	State    GeoState
	Location *models.Location
	Message  string
}

func (g *GeoTrack) Snapshot() GeoSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := GeoSnapshot{State: g.state, Message: g.message}
	if g.location != nil {
		loc := *g.location
		snap.Location = &loc
	}
	return snap
}

// CanRequest reports whether the "add location" action is armed.
func (g *GeoTrack) CanRequest() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == GeoIdle || g.state == GeoUnavailable
}

// Request asks the locator for a fix and then reverse geocodes it. The
// geocoding step starts only after the fix arrives. A geocoding failure still
// resolves the track, with a coordinate-only address.
func (g *GeoTrack) Request(ctx context.Context, locator Locator, geocoder Geocoder) error {
	g.mu.Lock()
	switch g.state {
	case GeoRequesting:
		g.mu.Unlock()
		return ErrLocationPending
	case GeoResolved:
		g.mu.Unlock()
		return ErrLocationAlreadySet
	}
	g.state = GeoRequesting
	g.message = ""
	g.mu.Unlock()

	coords, err := locator.Locate(ctx)
	if err != nil {
		g.fail(err)
		return err
	}

	address, gerr := geocoder.Reverse(ctx, coords)
	switch {
	case gerr != nil:
		address = CoordinateAddress(coords)
	case address == "":
		address = addressUndetermined
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	// Remove may have run while we were waiting
	if g.state != GeoRequesting {
		return nil
	}
	g.state = GeoResolved
	g.location = &models.Location{Coordinates: coords, Address: address}
	return nil
}

func (g *GeoTrack) fail(err error) {
	msg := msgGeoUnknown
	switch {
	case errors.Is(err, ErrGeolocationUnsupported):
		msg = msgGeoUnsupported
	case errors.Is(err, ErrGeolocationDenied):
		msg = msgGeoDenied
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GeoRequesting {
		return
	}
	g.state = GeoUnavailable
	g.location = nil
	g.message = msg
}

// Remove discards any location and re-arms the track.
func (g *GeoTrack) Remove() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = GeoIdle
	g.location = nil
	g.message = ""
}

// Resolved returns the location when the track is resolved.
func (g *GeoTrack) Resolved() (models.Location, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GeoResolved || g.location == nil {
		return models.Location{}, false
	}
	return *g.location, true
}
