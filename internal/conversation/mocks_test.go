package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/models"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

type MockUserRepo struct{ mock.Mock }

var _ store.UserRepo = (*MockUserRepo)(nil)

func (m *MockUserRepo) Create(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	args := m.Called(ctx, params)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepo) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	args := m.Called(ctx, chatID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepo) ListAll(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, userID uuid.UUID, params store.UpdateUserParams) error {
	return m.Called(ctx, userID, params).Error(0)
}

type MockJourneyRepo struct{ mock.Mock }

var _ store.JourneyRepo = (*MockJourneyRepo)(nil)

func (m *MockJourneyRepo) Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*models.Journey, error) {
	args := m.Called(ctx, ownerID, title, description)
	journey, _ := args.Get(0).(*models.Journey)
	return journey, args.Error(1)
}

func (m *MockJourneyRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Journey, error) {
	args := m.Called(ctx, ownerID)
	journeys, _ := args.Get(0).([]models.Journey)
	return journeys, args.Error(1)
}

func (m *MockJourneyRepo) ListAll(ctx context.Context) ([]models.Journey, error) {
	args := m.Called(ctx)
	journeys, _ := args.Get(0).([]models.Journey)
	return journeys, args.Error(1)
}

func (m *MockJourneyRepo) GetByID(ctx context.Context, journeyID uuid.UUID) (*models.Journey, error) {
	args := m.Called(ctx, journeyID)
	journey, _ := args.Get(0).(*models.Journey)
	return journey, args.Error(1)
}

func (m *MockJourneyRepo) GetByTitle(ctx context.Context, ownerID uuid.UUID, title string) (*models.Journey, error) {
	args := m.Called(ctx, ownerID, title)
	journey, _ := args.Get(0).(*models.Journey)
	return journey, args.Error(1)
}

func (m *MockJourneyRepo) TitleTaken(ctx context.Context, ownerID uuid.UUID, title string, excluding uuid.UUID) (bool, error) {
	args := m.Called(ctx, ownerID, title, excluding)
	return args.Bool(0), args.Error(1)
}

func (m *MockJourneyRepo) Update(ctx context.Context, journeyID uuid.UUID, params store.UpdateJourneyParams) error {
	return m.Called(ctx, journeyID, params).Error(0)
}

func (m *MockJourneyRepo) Delete(ctx context.Context, journeyID uuid.UUID) error {
	return m.Called(ctx, journeyID).Error(0)
}

type MockLocationRepo struct{ mock.Mock }

var _ store.LocationRepo = (*MockLocationRepo)(nil)

func (m *MockLocationRepo) Create(ctx context.Context, journeyID uuid.UUID, params store.CreateLocationParams) (*models.Location, error) {
	args := m.Called(ctx, journeyID, params)
	location, _ := args.Get(0).(*models.Location)
	return location, args.Error(1)
}

func (m *MockLocationRepo) ListByJourney(ctx context.Context, journeyID uuid.UUID) ([]models.Location, error) {
	args := m.Called(ctx, journeyID)
	locations, _ := args.Get(0).([]models.Location)
	return locations, args.Error(1)
}

func (m *MockLocationRepo) GetByKey(ctx context.Context, journeyID uuid.UUID, place string, dateStart, dateEnd time.Time) (*models.Location, error) {
	args := m.Called(ctx, journeyID, place, dateStart, dateEnd)
	location, _ := args.Get(0).(*models.Location)
	return location, args.Error(1)
}

func (m *MockLocationRepo) Update(ctx context.Context, locationID uuid.UUID, params store.UpdateLocationParams) error {
	return m.Called(ctx, locationID, params).Error(0)
}

func (m *MockLocationRepo) Delete(ctx context.Context, locationID uuid.UUID) error {
	return m.Called(ctx, locationID).Error(0)
}

type MockNoteRepo struct{ mock.Mock }

var _ store.NoteRepo = (*MockNoteRepo)(nil)

func (m *MockNoteRepo) Create(ctx context.Context, journeyID uuid.UUID, title, content string) (*models.Note, error) {
	args := m.Called(ctx, journeyID, title, content)
	note, _ := args.Get(0).(*models.Note)
	return note, args.Error(1)
}

func (m *MockNoteRepo) ListByJourney(ctx context.Context, journeyID uuid.UUID) ([]models.Note, error) {
	args := m.Called(ctx, journeyID)
	notes, _ := args.Get(0).([]models.Note)
	return notes, args.Error(1)
}

func (m *MockNoteRepo) GetByTitle(ctx context.Context, journeyID uuid.UUID, title string) (*models.Note, error) {
	args := m.Called(ctx, journeyID, title)
	note, _ := args.Get(0).(*models.Note)
	return note, args.Error(1)
}

func (m *MockNoteRepo) TitleTaken(ctx context.Context, journeyID uuid.UUID, title string, excluding uuid.UUID) (bool, error) {
	args := m.Called(ctx, journeyID, title, excluding)
	return args.Bool(0), args.Error(1)
}

func (m *MockNoteRepo) Update(ctx context.Context, noteID uuid.UUID, params store.UpdateNoteParams) error {
	return m.Called(ctx, noteID, params).Error(0)
}

func (m *MockNoteRepo) Delete(ctx context.Context, noteID uuid.UUID) error {
	return m.Called(ctx, noteID).Error(0)
}

type MockGeocoder struct{ mock.Mock }

var _ geo.Geocoder = (*MockGeocoder)(nil)

func (m *MockGeocoder) Resolve(ctx context.Context, query string) geo.Resolution {
	args := m.Called(ctx, query)
	return args.Get(0).(geo.Resolution)
}

type MockEnricher struct{ mock.Mock }

var _ Enricher = (*MockEnricher)(nil)

func (m *MockEnricher) Restaurants(ctx context.Context, loc models.Location) ([]string, error) {
	args := m.Called(ctx, loc)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockEnricher) Sights(ctx context.Context, loc models.Location) ([]string, error) {
	args := m.Called(ctx, loc)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockEnricher) Hotels(ctx context.Context, loc models.Location) ([]string, error) {
	args := m.Called(ctx, loc)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockEnricher) DailyWeather(ctx context.Context, loc models.Location) ([]geo.DailyTemperature, error) {
	args := m.Called(ctx, loc)
	temps, _ := args.Get(0).([]geo.DailyTemperature)
	return temps, args.Error(1)
}

func (m *MockEnricher) RouteMap(ctx context.Context, home geo.Coordinates, locations []models.Location) ([]byte, error) {
	args := m.Called(ctx, home, locations)
	png, _ := args.Get(0).([]byte)
	return png, args.Error(1)
}
