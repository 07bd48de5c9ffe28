package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
	"github.com/SUSHANT-M-GIT/SIH/internal/repository"
	"github.com/SUSHANT-M-GIT/SIH/internal/session"
)

func signedIn() *session.MemoryStore {
	s := session.NewMemoryStore()
	s.SetIdentity("asha", "a@b.com")
	return s
}

func newComposer(store session.Store, repo *MockRepository, geo Geocoder) *Composer {
	return NewComposer(store, repo, geo, zap.NewNop().Sugar())
}

func TestSubmitTwoFilesWithoutLocation(t *testing.T) {
	repo := new(MockRepository)
	c := newComposer(signedIn(), repo, &stubGeocoder{})

	description := "Streetlight broken near Park Road"
	c.SetDescription(description)
	c.AddFiles(
		models.StagedFile{Name: "photo.jpg", Data: []byte{1, 2, 3}},
		models.StagedFile{Name: "note.txt", Data: []byte("hi")},
	)

	repo.On("CreateComplaint", mock.Anything, "a@b.com", description,
		mock.MatchedBy(func(files []models.StagedFile) bool {
			return len(files) == 2 && files[0].Name == "photo.jpg" && files[1].Name == "note.txt"
		})).Return("ok", nil).Once()

	require.NoError(t, c.Submit(context.Background()))
	repo.AssertExpectations(t)

	assert.Empty(t, c.Staged())
	assert.Empty(t, c.Description())
}

func TestSubmitWithoutFilesPassesNil(t *testing.T) {
	repo := new(MockRepository)
	c := newComposer(signedIn(), repo, &stubGeocoder{})
	c.SetDescription("Garbage not collected")

	repo.On("CreateComplaint", mock.Anything, "a@b.com", "Garbage not collected",
		mock.MatchedBy(func(files []models.StagedFile) bool { return len(files) == 0 })).Return("ok", nil).Once()

	require.NoError(t, c.Submit(context.Background()))
	repo.AssertExpectations(t)
}

func TestSubmitBlankDescriptionNeverReachesRepository(t *testing.T) {
	repo := new(MockRepository)
	c := newComposer(signedIn(), repo, &stubGeocoder{})
	c.SetDescription("   \n\t")

	err := c.Submit(context.Background())
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Please enter your complaint description.", SubmitMessage(err))
	assert.False(t, c.CanSubmit())
	repo.AssertNotCalled(t, "CreateComplaint", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitWithoutSessionRedirects(t *testing.T) {
	repo := new(MockRepository)
	c := newComposer(session.NewMemoryStore(), repo, &stubGeocoder{})
	c.SetDescription("x")

	assert.ErrorIs(t, c.Submit(context.Background()), ErrNotAuthenticated)
	repo.AssertNotCalled(t, "CreateComplaint", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	repo := new(MockRepository)
	c := newComposer(signedIn(), repo, &stubGeocoder{})
	c.SetDescription("Water leak")
	c.AddFiles(models.StagedFile{Name: "a.png", Data: []byte{1}})

	repo.On("CreateComplaint", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", &repository.RemoteError{Op: "create complaint", Status: 500, Message: "Storage full"}).Once()

	err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Storage full", SubmitMessage(err))
	assert.Equal(t, "Water leak", c.Description())
	assert.Len(t, c.Staged(), 1)
	assert.True(t, c.CanSubmit())

	repo.On("CreateComplaint", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", &repository.RemoteError{Op: "create complaint", Err: errors.New("dial tcp: refused")}).Once()
	assert.Equal(t, "An unexpected error occurred.", SubmitMessage(c.Submit(context.Background())))
}

func TestSubmitAppendsResolvedLocation(t *testing.T) {
	repo := new(MockRepository)
	geo := &stubGeocoder{address: "MG Road, Bengaluru"}
	c := newComposer(signedIn(), repo, geo)
	c.SetDescription("Pothole")

	loc := fixedLocator{coords: models.Coordinates{Latitude: 12.9716, Longitude: 77.5946}}
	require.NoError(t, c.RequestLocation(context.Background(), loc))
	assert.Equal(t, GeoResolved, c.Location().State)

	want := "Pothole\n\n--- Location Information ---\nAddress: MG Road, Bengaluru\nCoordinates: (12.9716, 77.5946)"
	repo.On("CreateComplaint", mock.Anything, "a@b.com", want, mock.Anything).Return("ok", nil).Once()

	require.NoError(t, c.Submit(context.Background()))
	repo.AssertExpectations(t)
	assert.Equal(t, GeoIdle, c.Location().State)
}

func TestSubmitInFlightGuard(t *testing.T) {
	repo := new(MockRepository)
	c := newComposer(signedIn(), repo, &stubGeocoder{})
	c.SetDescription("Noise at night")

	started := make(chan struct{})
	release := make(chan struct{})
	repo.On("CreateComplaint", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).Return("ok", nil).Once()

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-started

	assert.False(t, c.CanSubmit())
	assert.True(t, c.View().Submitting)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrSubmissionInFlight)

	close(release)
	require.NoError(t, <-done)
	repo.AssertNumberOfCalls(t, "CreateComplaint", 1)
}

func TestAddAndRemoveStagedFiles(t *testing.T) {
	c := newComposer(signedIn(), new(MockRepository), &stubGeocoder{})
	c.AddFiles(models.StagedFile{Name: "a.jpg"}, models.StagedFile{Name: "b.pdf"})
	c.AddFiles(models.StagedFile{Name: "c.mp4", Data: make([]byte, 2048)})

	require.NoError(t, c.RemoveAt(1))
	names := []string{}
	for _, f := range c.Staged() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a.jpg", "c.mp4"}, names)
	assert.Error(t, c.RemoveAt(5))
	assert.Error(t, c.RemoveAt(-1))
	assert.Len(t, c.Staged(), 2)

	view := c.View()
	require.Len(t, view.Files, 2)
	assert.Equal(t, "2.0 KiB", view.Files[1].Size)
	assert.Equal(t, 1, view.Files[1].Index)
}
