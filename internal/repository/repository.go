// Package repository is the only boundary between the portal and the remote
// complaint service. Every call maps to one HTTP request; nothing is retried.
package repository

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
)

// ComplaintRepository is the remote complaint service as seen by the portal.
type ComplaintRepository interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	CreateUser(ctx context.Context, user models.User) (*models.CreateUserResponse, error)
	CreateComplaint(ctx context.Context, email, description string, files []models.StagedFile) (string, error)
	ListComplaints(ctx context.Context, email string) ([]models.Complaint, error)
	FetchComplaint(ctx context.Context, email, complaintID string) (*models.ComplaintDetail, error)
}

// Factory hands out repositories addressed relative to the host the browser
// used to reach the portal.
type Factory struct {
	fixedURL   string
	remotePort int
	client     *http.Client
	logger     *zap.SugaredLogger
}

// NewFactory creates a factory. A non-empty fixedURL disables host-relative addressing.
func NewFactory(fixedURL string, remotePort int, client *http.Client, logger *zap.SugaredLogger) *Factory {
	return &Factory{
		fixedURL:   strings.TrimRight(fixedURL, "/"),
		remotePort: remotePort,
		client:     client,
		logger:     logger,
	}
}

// BaseURL picks the remote service address for a page served at pageHost:
// the same hostname on the remote port.
func (f *Factory) BaseURL(pageHost string) string {
	if f.fixedURL != "" {
		return f.fixedURL
	}
	hostname := pageHost
	if h, _, err := net.SplitHostPort(pageHost); err == nil {
		hostname = h
	}
	hostname = strings.Trim(hostname, "[]")
	if hostname == "" {
		hostname = "localhost"
	}
	return "http://" + net.JoinHostPort(hostname, strconv.Itoa(f.remotePort))
}

// For returns the repository serving a page requested at pageHost. The
// Host header is client controlled, so nothing is kept per host; every
// repository shares the factory's client.
func (f *Factory) For(pageHost string) *HTTPRepository {
	return NewHTTPRepository(f.BaseURL(pageHost), f.client, f.logger)
}
