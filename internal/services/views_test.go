package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SUSHANT-M-GIT/SIH/internal/attachment"
	"github.com/SUSHANT-M-GIT/SIH/internal/models"
	"github.com/SUSHANT-M-GIT/SIH/internal/session"
)

func TestListViewWithoutSessionDoesNotFetch(t *testing.T) {
	repo := new(MockRepository)
	v := NewListView(session.NewMemoryStore(), repo, zap.NewNop().Sugar())

	_, err := v.Load(context.Background())
	assert.ErrorIs(t, err, ErrRedirectLogin)
	repo.AssertNotCalled(t, "ListComplaints", mock.Anything, mock.Anything)
}

func TestListViewEmpty(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListComplaints", mock.Anything, "a@b.com").Return([]models.Complaint{}, nil)
	v := NewListView(signedIn(), repo, zap.NewNop().Sugar())

	state, err := v.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ListEmpty, state.Status)
	assert.Equal(t, 0, state.Count())
	assert.Empty(t, state.Error)
}

func TestListViewItems(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	date := &models.Timestamp{Time: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	repo := new(MockRepository)
	repo.On("ListComplaints", mock.Anything, "a@b.com").Return([]models.Complaint{
		{ComplaintID: "c0ffee00-1111-2222", Name: "Asha", Phone: "98450", Complaints: strings.Repeat("a", 300), ComplaintDate: date},
		{ComplaintID: "abc", Name: "Asha", Complaints: "Garbage"},
	}, nil)
	v := NewListView(signedIn(), repo, zap.NewNop().Sugar())
	v.now = func() time.Time { return fixed }

	state, err := v.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, ListReady, state.Status)
	require.Equal(t, 2, state.Count())

	first := state.Items[0]
	assert.Equal(t, "c0ffee00...", first.ShortID)
	assert.Equal(t, "c0ffee00-1111-2222", first.ID)
	assert.Equal(t, "1/3/2025", first.Date)
	assert.Equal(t, "98450", first.Phone)
	assert.True(t, strings.HasSuffix(first.Preview, "…"))

	second := state.Items[1]
	assert.Equal(t, "abc...", second.ShortID)
	assert.Equal(t, "16/10/2026", second.Date)
	assert.Empty(t, second.Phone)
	assert.Equal(t, state, v.Current())
}

func TestListViewFailureThenRetry(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListComplaints", mock.Anything, "a@b.com").Return(nil, errors.New("boom")).Once()
	repo.On("ListComplaints", mock.Anything, "a@b.com").Return([]models.Complaint{{ComplaintID: "x"}}, nil).Once()
	v := NewListView(signedIn(), repo, zap.NewNop().Sugar())

	state, err := v.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ListFailed, state.Status)
	assert.Equal(t, "Failed to fetch complaints", state.Error)

	state, err = v.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ListReady, state.Status)
	repo.AssertNumberOfCalls(t, "ListComplaints", 2)
}

func TestListViewDiscardsStaleLoad(t *testing.T) {
	repo := new(MockRepository)
	started := make(chan struct{})
	release := make(chan struct{})
	repo.On("ListComplaints", mock.Anything, "a@b.com").Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return([]models.Complaint{{ComplaintID: "old"}}, nil).Once()
	repo.On("ListComplaints", mock.Anything, "a@b.com").Return([]models.Complaint{}, nil).Once()
	v := NewListView(signedIn(), repo, zap.NewNop().Sugar())

	slow := make(chan ListState, 1)
	go func() {
		s, _ := v.Load(context.Background())
		slow <- s
	}()
	<-started

	fresh, err := v.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ListEmpty, fresh.Status)

	close(release)
	stale := <-slow
	assert.Equal(t, ListReady, stale.Status)
	assert.Equal(t, ListEmpty, v.Current().Status)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "12345678...", ShortID("1234567890"))
	assert.Equal(t, "12345678...", ShortID("12345678"))
	assert.Equal(t, "...", ShortID(""))
}

func TestDetailViewRedirects(t *testing.T) {
	repo := new(MockRepository)
	v := NewDetailView(session.NewMemoryStore(), repo, zap.NewNop().Sugar())
	_, err := v.Load(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrRedirectList)

	v = NewDetailView(signedIn(), repo, zap.NewNop().Sugar())
	_, err = v.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrRedirectList)
	repo.AssertNotCalled(t, "FetchComplaint", mock.Anything, mock.Anything, mock.Anything)
}

func TestDetailViewRendersAttachments(t *testing.T) {
	pdf := base64.StdEncoding.EncodeToString([]byte("not really a pdf"))
	img := base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})
	repo := new(MockRepository)
	repo.On("FetchComplaint", mock.Anything, "a@b.com", "abc").Return(&models.ComplaintDetail{
		Complaint: models.Complaint{ComplaintID: "abc", Complaints: "Pothole"},
		Files: []models.Attachment{
			{FileName: "scan.pdf", FileContent: pdf},
			{FileName: "photo.png", FileContent: img},
			{FileName: "clip.mov", FileContent: "AAAA"},
			{FileName: "data.bin", FileContent: "AAAA"},
		},
	}, nil)
	v := NewDetailView(signedIn(), repo, zap.NewNop().Sugar())

	state, err := v.Load(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, state.Complaint)
	assert.Equal(t, "N/A", state.Date)
	require.Len(t, state.Attachments, 4)

	scan := state.Attachments[0]
	assert.Equal(t, attachment.KindDocument, scan.Kind)
	assert.Equal(t, "scan.pdf", scan.Name)
	assert.Equal(t, "PDF", scan.Extension)
	assert.Equal(t, "data:application/pdf;base64,"+pdf, scan.Locator)
	assert.Zero(t, scan.Pages)

	assert.Equal(t, attachment.KindImage, state.Attachments[1].Kind)
	assert.Equal(t, attachment.KindVideo, state.Attachments[2].Kind)
	assert.Equal(t, attachment.KindGeneric, state.Attachments[3].Kind)
}

func TestDetailViewFailureMessage(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FetchComplaint", mock.Anything, "a@b.com", "abc").Return(nil, errors.New("boom"))
	v := NewDetailView(signedIn(), repo, zap.NewNop().Sugar())

	state, err := v.Load(context.Background(), "abc")
	require.NoError(t, err)
	assert.Nil(t, state.Complaint)
	assert.Equal(t, "Failed to fetch complaint details.", state.Error)
}

func TestDetailDateFormat(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FetchComplaint", mock.Anything, "a@b.com", "abc").Return(&models.ComplaintDetail{
		Complaint: models.Complaint{
			ComplaintID:   "abc",
			ComplaintDate: &models.Timestamp{Time: time.Date(2025, 3, 1, 14, 5, 0, 0, time.UTC)},
		},
	}, nil)
	v := NewDetailView(signedIn(), repo, zap.NewNop().Sugar())

	state, err := v.Load(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "March 1, 2025 at 02:05 PM", state.Date)
	assert.Empty(t, state.Attachments)
}
