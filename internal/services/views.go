package services

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/SUSHANT-M-GIT/SIH/internal/attachment"
	"github.com/SUSHANT-M-GIT/SIH/internal/models"
	"github.com/SUSHANT-M-GIT/SIH/internal/repository"
	"github.com/SUSHANT-M-GIT/SIH/internal/session"
)

var (
	// ErrRedirectLogin means the view needs a session; go to /login.
	ErrRedirectLogin = errors.New("redirect to login")
	// ErrRedirectList means the detail view cannot load; go to /dashboard.
	ErrRedirectList = errors.New("redirect to complaint list")
)

const (
	msgListFailed   = "Failed to fetch complaints"
	msgDetailFailed = "Failed to fetch complaint details."

	previewRunes     = 180
	listDateLayout   = "2/1/2006"
	detailDateLayout = "January 2, 2006 at 03:04 PM"
)

// ListStatus is the outcome of a list load.
type ListStatus string

const (
	ListLoading ListStatus = "loading"
	ListReady   ListStatus = "ready"
	ListEmpty   ListStatus = "empty"
	ListFailed  ListStatus = "failed"
)

// ComplaintSummary is one card on the dashboard.
type ComplaintSummary struct {
	ID      string `json:"complaintId"`
	ShortID string `json:"shortId"`
	Preview string `json:"preview"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Date    string `json:"date"`
}

// ListState is what the dashboard renders.
type ListState struct {
	Status ListStatus         `json:"status"`
	Items  []ComplaintSummary `json:"complaints"`
	Error  string             `json:"error,omitempty"`
}

func (s ListState) Count() int { return len(s.Items) }

// ListView loads the citizen's complaints. Each load takes a generation
// number; only the newest load is committed to the view.
type ListView struct {
	store  session.Store
	repo   repository.ComplaintRepository
	logger *zap.SugaredLogger
	now    func() time.Time

	mu      sync.Mutex
	gen     uint64
	current ListState
}

// NewListView creates a list view bound to the citizen's session.
func NewListView(store session.Store, repo repository.ComplaintRepository, logger *zap.SugaredLogger) *ListView {
	return &ListView{
		store:   store,
		repo:    repo,
		logger:  logger,
		now:     time.Now,
		current: ListState{Status: ListLoading},
	}
}

// Current returns the last committed state.
func (v *ListView) Current() ListState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Load fetches the list. Without an identity nothing is fetched and
// ErrRedirectLogin is returned. Retrying is simply calling Load again.
func (v *ListView) Load(ctx context.Context) (ListState, error) {
	identity := v.store.Current().Identity
	if identity == "" {
		return ListState{}, ErrRedirectLogin
	}

	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	complaints, err := v.repo.ListComplaints(ctx, identity)

	var state ListState
	switch {
	case err != nil:
		v.logger.Errorw("Failed to fetch complaints", "error", err)
		state = ListState{Status: ListFailed, Error: msgListFailed}
	case len(complaints) == 0:
		state = ListState{Status: ListEmpty, Items: []ComplaintSummary{}}
	default:
		state = ListState{Status: ListReady, Items: make([]ComplaintSummary, 0, len(complaints))}
		for _, c := range complaints {
			state.Items = append(state.Items, v.summarize(c))
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen == v.gen {
		v.current = state
	} else {
		v.logger.Debugw("Discarded stale complaint list", "generation", gen, "latest", v.gen)
	}
	return state, nil
}

func (v *ListView) summarize(c models.Complaint) ComplaintSummary {
	date := v.now()
	if c.ComplaintDate != nil && !c.ComplaintDate.IsZero() {
		date = c.ComplaintDate.Time
	}
	return ComplaintSummary{
		ID:      c.ComplaintID,
		ShortID: ShortID(c.ComplaintID),
		Preview: preview(c.Complaints),
		Name:    c.Name,
		Phone:   c.Phone,
		Date:    date.Format(listDateLayout),
	}
}

// ShortID is the display form of a complaint id: its first 8 characters.
func ShortID(id string) string {
	if utf8.RuneCountInString(id) > 8 {
		id = string([]rune(id)[:8])
	}
	return id + "..."
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "…"
}

// RenderedAttachment is a stored attachment after going through the codec.
type RenderedAttachment struct {
	Name      string               `json:"fileName"`
	Kind      attachment.Kind      `json:"kind"`
	MediaType attachment.MediaType `json:"mediaType"`
	Extension string               `json:"extension"`
	Locator   string               `json:"locator"`
	Pages     int                  `json:"pages,omitempty"`
	Preview   string               `json:"preview,omitempty"`
}

// DetailState is what the detail page renders.
type DetailState struct {
	Complaint   *models.Complaint    `json:"complaint,omitempty"`
	Date        string               `json:"date,omitempty"`
	Attachments []RenderedAttachment `json:"files"`
	Error       string               `json:"error,omitempty"`
}

// DetailView loads a single complaint with its attachments.
type DetailView struct {
	store  session.Store
	repo   repository.ComplaintRepository
	logger *zap.SugaredLogger

	mu      sync.Mutex
	gen     uint64
	current DetailState
}

// NewDetailView creates a detail view bound to the citizen's session.
func NewDetailView(store session.Store, repo repository.ComplaintRepository, logger *zap.SugaredLogger) *DetailView {
	return &DetailView{store: store, repo: repo, logger: logger}
}

func (v *DetailView) Current() DetailState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Load fetches complaintID. A missing identity or id returns ErrRedirectList.
func (v *DetailView) Load(ctx context.Context, complaintID string) (DetailState, error) {
	identity := v.store.Current().Identity
	if identity == "" || complaintID == "" {
		return DetailState{}, ErrRedirectList
	}

	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	var state DetailState
	detail, err := v.repo.FetchComplaint(ctx, identity, complaintID)
	if err != nil {
		v.logger.Errorw("Failed to fetch complaint", "complaint_id", complaintID, "error", err)
		state.Error = repository.MessageOr(err, msgDetailFailed)
	} else {
		complaint := detail.Complaint
		state.Complaint = &complaint
		state.Date = "N/A"
		if complaint.ComplaintDate != nil && !complaint.ComplaintDate.IsZero() {
			state.Date = complaint.ComplaintDate.Format(detailDateLayout)
		}
		state.Attachments = make([]RenderedAttachment, 0, len(detail.Files))
		for _, f := range detail.Files {
			state.Attachments = append(state.Attachments, v.render(f))
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen == v.gen {
		v.current = state
	}
	return state, nil
}

func (v *DetailView) render(f models.Attachment) RenderedAttachment {
	ra := RenderedAttachment{
		Name:      f.FileName,
		Kind:      attachment.KindOf(f.FileName),
		MediaType: attachment.MediaTypeOf(f.FileName),
		Extension: attachment.Extension(f.FileName),
		Locator:   attachment.Locator(f),
	}
	if ra.Kind == attachment.KindDocument {
		details, err := attachment.Inspect(f)
		if err != nil {
			v.logger.Debugw("Attachment inspection failed", "file", f.FileName, "error", err)
		}
		ra.Pages = details.Pages
		ra.Preview = details.Preview
	}
	return ra
}
