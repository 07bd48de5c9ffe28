package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*models.LoginResult)
	return res, args.Error(1)
}

func (m *MockRepository) CreateUser(ctx context.Context, user models.User) (*models.CreateUserResponse, error) {
	args := m.Called(ctx, user)
	res, _ := args.Get(0).(*models.CreateUserResponse)
	return res, args.Error(1)
}

func (m *MockRepository) CreateComplaint(ctx context.Context, email, description string, files []models.StagedFile) (string, error) {
	args := m.Called(ctx, email, description, files)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) ListComplaints(ctx context.Context, email string) ([]models.Complaint, error) {
	args := m.Called(ctx, email)
	res, _ := args.Get(0).([]models.Complaint)
	return res, args.Error(1)
}

func (m *MockRepository) FetchComplaint(ctx context.Context, email, complaintID string) (*models.ComplaintDetail, error) {
	args := m.Called(ctx, email, complaintID)
	res, _ := args.Get(0).(*models.ComplaintDetail)
	return res, args.Error(1)
}

type fixedLocator struct {
	coords models.Coordinates
	err    error
}

func (l fixedLocator) Locate(ctx context.Context) (models.Coordinates, error) {
	return l.coords, l.err
}

type stubGeocoder struct {
	address string
	err     error
	calls   int
}

func (g *stubGeocoder) Reverse(ctx context.Context, c models.Coordinates) (string, error) {
	g.calls++
	return g.address, g.err
}
