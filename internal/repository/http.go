package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
)

const maxResponseBytes = 256 << 20

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// HTTPRepository talks to the complaint service over HTTP.
type HTTPRepository struct {
	baseURL string
	client  *http.Client
	logger  *zap.SugaredLogger
}

// NewHTTPRepository creates a repository for the service at baseURL.
func NewHTTPRepository(baseURL string, client *http.Client, logger *zap.SugaredLogger) *HTTPRepository {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRepository{baseURL: strings.TrimRight(baseURL, "/"), client: client, logger: logger}
}

// BaseURL returns the service address this repository calls.
func (r *HTTPRepository) BaseURL() string { return r.baseURL }

// Login handles GET /login
func (r *HTTPRepository) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	q := url.Values{"email": {email}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/login?"+q.Encode(), nil)
	if err != nil {
		return nil, &RemoteError{Op: "login", Err: err}
	}

	status, body, err := r.do(req)
	if err != nil {
		return nil, &RemoteError{Op: "login", Err: err}
	}
	switch {
	case status == http.StatusNotFound:
		return nil, &AuthError{Status: status, Message: serverMessage(body), Reason: ErrUnknownIdentity}
	case status == http.StatusBadRequest:
		return nil, &AuthError{Status: status, Message: serverMessage(body), Reason: ErrInvalidCredential}
	case status < 200 || status > 299:
		return nil, &RemoteError{Op: "login", Status: status, Message: serverMessage(body)}
	}

	result := &models.LoginResult{}
	if err := json.Unmarshal(body, result); err != nil {
		// the body is informational only; a successful status is what counts
		r.logger.Debugw("Login body was not a user object", "error", err)
	}
	if result.Email == "" {
		result.Email = email
	}
	return result, nil
}

// CreateUser handles POST /createuser
func (r *HTTPRepository) CreateUser(ctx context.Context, user models.User) (*models.CreateUserResponse, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/createuser", bytes.NewReader(payload))
	if err != nil {
		return nil, &RemoteError{Op: "create user", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var resp models.CreateUserResponse
	if err := r.doJSON(req, "create user", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateComplaint handles POST /createCompalaint. The files key is left out
// entirely when nothing is staged; the service distinguishes absent from empty.
func (r *HTTPRepository) CreateComplaint(ctx context.Context, email, description string, files []models.StagedFile) (string, error) {
	body, contentType, err := encodeComplaint(email, description, files)
	if err != nil {
		return "", fmt.Errorf("encode complaint: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/createCompalaint", body)
	if err != nil {
		return "", &RemoteError{Op: "create complaint", Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	status, respBody, err := r.do(req)
	if err != nil {
		return "", &RemoteError{Op: "create complaint", Err: err}
	}
	if status < 200 || status > 299 {
		return "", &RemoteError{Op: "create complaint", Status: status, Message: serverMessage(respBody)}
	}

	r.logger.Infow("Complaint submitted",
		"attachments", len(files),
		"remote", r.baseURL,
	)
	return string(respBody), nil
}

// ListComplaints handles GET /getallcomplaintforuser
func (r *HTTPRepository) ListComplaints(ctx context.Context, email string) ([]models.Complaint, error) {
	q := url.Values{"email": {email}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/getallcomplaintforuser?"+q.Encode(), nil)
	if err != nil {
		return nil, &RemoteError{Op: "list complaints", Err: err}
	}

	var resp models.ComplaintList
	if err := r.doJSON(req, "list complaints", &resp); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(resp.Complaint)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []models.Complaint{}, nil
	}
	complaints := []models.Complaint{}
	if err := json.Unmarshal(trimmed, &complaints); err != nil {
		return nil, &RemoteError{Op: "list complaints", Status: http.StatusOK, Err: fmt.Errorf("decode complaints: %w", err)}
	}
	return complaints, nil
}

// FetchComplaint handles GET /getcomplaintforuser
func (r *HTTPRepository) FetchComplaint(ctx context.Context, email, complaintID string) (*models.ComplaintDetail, error) {
	q := url.Values{"email": {email}, "complaintId": {complaintID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/getcomplaintforuser?"+q.Encode(), nil)
	if err != nil {
		return nil, &RemoteError{Op: "fetch complaint", Err: err}
	}

	var resp models.ComplaintDetail
	if err := r.doJSON(req, "fetch complaint", &resp); err != nil {
		return nil, err
	}
	if resp.Files == nil {
		resp.Files = []models.Attachment{}
	}
	return &resp, nil
}

// Ping checks that the service answers HTTP at all; any status counts.
func (r *HTTPRepository) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", r.baseURL, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	return nil
}

func (r *HTTPRepository) do(req *http.Request) (int, []byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (r *HTTPRepository) doJSON(req *http.Request, op string, out interface{}) error {
	status, body, err := r.do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	if status < 200 || status > 299 {
		return &RemoteError{Op: op, Status: status, Message: serverMessage(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RemoteError{Op: op, Status: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func encodeComplaint(email, description string, files []models.StagedFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("email", email); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("complaints", description); err != nil {
		return nil, "", err
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
		h.Set("Content-Type", mimetype.Detect(f.Data).String())
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// serverMessage pulls the "message" field out of an error body, if any.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}
