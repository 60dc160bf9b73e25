package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
	"github.com/JoseAlvarezDev/BusCar/internal/platform/metrics"
	"github.com/JoseAlvarezDev/BusCar/internal/port/repository"
)

type MockAlertRepository struct{ mock.Mock }

func (m *MockAlertRepository) Create(ctx context.Context, alert *entity.Alert) (string, error) {
	args := m.Called(ctx, alert)
	return args.String(0), args.Error(1)
}
func (m *MockAlertRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockAlertRepository) SetActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}
func (m *MockAlertRepository) FindByUser(ctx context.Context, userID string) ([]*entity.Alert, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Alert), args.Error(1)
}
func (m *MockAlertRepository) FindDue(ctx context.Context, cutoff time.Time) ([]*entity.Alert, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Alert), args.Error(1)
}
func (m *MockAlertRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyMatches(ctx context.Context, alert *entity.Alert, matches []*entity.Listing) error {
	args := m.Called(ctx, alert, matches)
	return args.Error(0)
}

func newTestAlerts(alerts *MockAlertRepository, listings *MockListingRepository, notifier *MockNotifier) *AlertUsecase {
	return NewAlertUsecase(alerts, listings, notifier, metrics.NewManager("test"), zap.NewNop(), AlertConfig{
		Cooldown:   24 * time.Hour,
		Freshness:  24 * time.Hour,
		MaxMatches: 20,
	})
}

func TestCreateAlert_Valid(t *testing.T) {
	alerts := new(MockAlertRepository)
	alerts.On("Create", mock.Anything, mock.Anything).Return("alert-1", nil)

	uc := newTestAlerts(alerts, new(MockListingRepository), new(MockNotifier))
	created, err := uc.CreateAlert(context.Background(), &entity.Alert{
		UserID:   "u1",
		Email:    "user@example.com",
		Brand:    "Toyota",
		MaxPrice: 15000,
	})

	assert.NoError(t, err)
	assert.Equal(t, "alert-1", created.ID)
	assert.True(t, created.IsActive)
	assert.Nil(t, created.LastNotifiedAt)
}

func TestCreateAlert_Invalid(t *testing.T) {
	uc := newTestAlerts(new(MockAlertRepository), new(MockListingRepository), new(MockNotifier))

	_, err := uc.CreateAlert(context.Background(), &entity.Alert{MaxPrice: 15000})
	assert.ErrorIs(t, err, entity.ErrAlertEmailRequired)

	_, err = uc.CreateAlert(context.Background(), &entity.Alert{Email: "user@example.com"})
	assert.ErrorIs(t, err, entity.ErrAlertMaxPriceInvalid)

	_, err = uc.CreateAlert(context.Background(), &entity.Alert{Email: "user@example.com", MaxPrice: 15000, MinYear: 1900})
	assert.ErrorIs(t, err, entity.ErrAlertMinYearInvalid)
}

func TestEvaluateAlerts_NotifiesAndMarks(t *testing.T) {
	alert := &entity.Alert{ID: "alert-1", Email: "user@example.com", Brand: "Toyota", MaxPrice: 15000, IsActive: true}
	matches := []*entity.Listing{
		{ID: "id-1", Brand: "Toyota", Price: 12000, IsActive: true},
	}

	alerts := new(MockAlertRepository)
	listings := new(MockListingRepository)
	notifier := new(MockNotifier)

	alerts.On("FindDue", mock.Anything, mock.Anything).Return([]*entity.Alert{alert}, nil)
	listings.On("FindActive", mock.Anything, mock.MatchedBy(func(f repository.ListingFilter) bool {
		return f.Brand == "Toyota" && f.MaxPrice == 15000 &&
			f.SortBy == "price" && f.SortOrder == "asc" &&
			f.Limit == 20 && !f.ScrapedAfter.IsZero()
	})).Return(matches, nil)
	notifier.On("NotifyMatches", mock.Anything, alert, matches).Return(nil)
	alerts.On("MarkNotified", mock.Anything, "alert-1", mock.Anything).Return(nil)

	uc := newTestAlerts(alerts, listings, notifier)
	assert.NoError(t, uc.EvaluateAlerts(context.Background()))

	alerts.AssertExpectations(t)
	listings.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestEvaluateAlerts_NoMatchesNoNotification(t *testing.T) {
	alert := &entity.Alert{ID: "alert-1", Email: "user@example.com", MaxPrice: 15000, IsActive: true}

	alerts := new(MockAlertRepository)
	listings := new(MockListingRepository)
	notifier := new(MockNotifier)

	alerts.On("FindDue", mock.Anything, mock.Anything).Return([]*entity.Alert{alert}, nil)
	listings.On("FindActive", mock.Anything, mock.Anything).Return([]*entity.Listing{}, nil)

	uc := newTestAlerts(alerts, listings, notifier)
	assert.NoError(t, uc.EvaluateAlerts(context.Background()))

	notifier.AssertNotCalled(t, "NotifyMatches", mock.Anything, mock.Anything, mock.Anything)
	alerts.AssertNotCalled(t, "MarkNotified", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateAlerts_NotifyFailureLeavesCooldownUntouched(t *testing.T) {
	alert := &entity.Alert{ID: "alert-1", Email: "user@example.com", MaxPrice: 15000, IsActive: true}
	matches := []*entity.Listing{{ID: "id-1", Price: 12000, IsActive: true}}

	alerts := new(MockAlertRepository)
	listings := new(MockListingRepository)
	notifier := new(MockNotifier)

	alerts.On("FindDue", mock.Anything, mock.Anything).Return([]*entity.Alert{alert}, nil)
	listings.On("FindActive", mock.Anything, mock.Anything).Return(matches, nil)
	notifier.On("NotifyMatches", mock.Anything, alert, matches).Return(errors.New("smtp unavailable"))

	uc := newTestAlerts(alerts, listings, notifier)
	assert.NoError(t, uc.EvaluateAlerts(context.Background()))

	alerts.AssertNotCalled(t, "MarkNotified", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateAlerts_CooldownCutoff(t *testing.T) {
	alerts := new(MockAlertRepository)
	start := time.Now().UTC()
	alerts.On("FindDue", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		offset := cutoff.Sub(start.Add(-24 * time.Hour))
		return offset >= 0 && offset < time.Minute
	})).Return([]*entity.Alert{}, nil)

	uc := newTestAlerts(alerts, new(MockListingRepository), new(MockNotifier))
	assert.NoError(t, uc.EvaluateAlerts(context.Background()))

	alerts.AssertExpectations(t)
}

func TestEvaluateAlerts_OneFailureDoesNotStopOthers(t *testing.T) {
	failing := &entity.Alert{ID: "alert-1", Email: "a@example.com", MaxPrice: 10000, IsActive: true}
	healthy := &entity.Alert{ID: "alert-2", Email: "b@example.com", MaxPrice: 20000, IsActive: true}
	matches := []*entity.Listing{{ID: "id-1", Price: 9000, IsActive: true}}

	alerts := new(MockAlertRepository)
	listings := new(MockListingRepository)
	notifier := new(MockNotifier)

	alerts.On("FindDue", mock.Anything, mock.Anything).Return([]*entity.Alert{failing, healthy}, nil)
	listings.On("FindActive", mock.Anything, mock.Anything).Return(matches, nil)
	notifier.On("NotifyMatches", mock.Anything, failing, matches).Return(errors.New("bounced"))
	notifier.On("NotifyMatches", mock.Anything, healthy, matches).Return(nil)
	alerts.On("MarkNotified", mock.Anything, "alert-2", mock.Anything).Return(nil)

	uc := newTestAlerts(alerts, listings, notifier)
	assert.NoError(t, uc.EvaluateAlerts(context.Background()))

	alerts.AssertExpectations(t)
	notifier.AssertExpectations(t)
}
