package conversation

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/models"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

const testChatID int64 = 42

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	engine    *Engine
	users     *MockUserRepo
	journeys  *MockJourneyRepo
	locations *MockLocationRepo
	notes     *MockNoteRepo
	geocoder  *MockGeocoder
	enricher  *MockEnricher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:     new(MockUserRepo),
		journeys:  new(MockJourneyRepo),
		locations: new(MockLocationRepo),
		notes:     new(MockNoteRepo),
		geocoder:  new(MockGeocoder),
		enricher:  new(MockEnricher),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.engine = NewEngine(
		NewStateStore(time.Minute),
		env.users, env.journeys, env.locations, env.notes,
		env.geocoder, env.enricher,
		logger,
	)
	env.engine.now = func() time.Time { return testNow }
	return env
}

func (env *testEnv) send(text string) Reply {
	return env.engine.HandleMessage(context.Background(), Inbound{
		ChatID:   testChatID,
		Username: "maria",
		Text:     text,
	})
}

func (env *testEnv) knownUser() *models.User {
	user := &models.User{
		ID:             uuid.New(),
		ChatID:         testChatID,
		Username:       "maria",
		Age:            30,
		LivingLocation: "Lisbon, Portugal",
		Lat:            38.72,
		Lon:            -9.14,
		Bio:            "always packing",
	}
	env.users.On("GetByChatID", mock.Anything, testChatID).Return(user, nil)
	return user
}

func firstText(t *testing.T, reply Reply) string {
	t.Helper()
	require.NotEmpty(t, reply.Messages)
	return reply.Messages[0].Text
}

func resolved(name string, lat, lon float64) geo.Resolution {
	return geo.Resolution{Status: geo.PlaceResolved, DisplayName: name, Lat: lat, Lon: lon}
}

func TestSignupFlow(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("GetByChatID", mock.Anything, testChatID).Return(nil, store.ErrNotFound)
	env.geocoder.On("Resolve", mock.Anything, "lisbon").Return(resolved("Lisbon, Portugal", 38.72, -9.14))
	env.users.On("Create", mock.Anything, store.CreateUserParams{
		ChatID:         testChatID,
		Username:       "maria",
		Age:            30,
		LivingLocation: "Lisbon, Portugal",
		Lat:            38.72,
		Lon:            -9.14,
		Bio:            "always packing",
	}).Return(&models.User{ID: uuid.New()}, nil)

	reply := env.send("/start")
	assert.Contains(t, firstText(t, reply), "Hello, maria")

	reply = env.send("30")
	assert.Contains(t, firstText(t, reply), "Where do you live?")

	reply = env.send("lisbon")
	assert.Equal(t, msgAskBio, firstText(t, reply))

	reply = env.send("always packing")
	assert.Equal(t, msgSignupDone, firstText(t, reply))
	env.users.AssertExpectations(t)

	// The form is gone; plain text gets the fallback hint.
	reply = env.send("hello again")
	assert.Equal(t, msgUnknownInput, firstText(t, reply))
}

func TestSignupRejectsKeepProgress(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("GetByChatID", mock.Anything, testChatID).Return(nil, store.ErrNotFound)
	env.geocoder.On("Resolve", mock.Anything, "atlantis").Return(geo.Resolution{Status: geo.PlaceNotFound})
	env.geocoder.On("Resolve", mock.Anything, "porto").Return(resolved("Porto, Portugal", 41.15, -8.61))

	env.send("/start")

	for _, bad := range []string{"not a number", "-3", "123"} {
		reply := env.send(bad)
		assert.Equal(t, msgInvalidAge, firstText(t, reply))
	}

	reply := env.send("27")
	assert.Contains(t, firstText(t, reply), "27 y.o.")

	reply = env.send("atlantis")
	assert.Equal(t, msgInvalidLocation, firstText(t, reply))

	// Still on the location step after the reject.
	reply = env.send("porto")
	assert.Equal(t, msgAskBio, firstText(t, reply))

	reply = env.send(strings.Repeat("x", maxBioLen+1))
	assert.Equal(t, msgBioTooLong, firstText(t, reply))
}

func TestStartForKnownUserGreets(t *testing.T) {
	env := newTestEnv(t)
	env.knownUser()

	reply := env.send("/start")
	assert.Contains(t, firstText(t, reply), "Long time no see")
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	env.knownUser()

	t.Run("cancels an open form", func(t *testing.T) {
		env.send("/create_journey")
		reply := env.send("/cancel")
		assert.Equal(t, msgActionCanceled, firstText(t, reply))

		reply = env.send("Summer in Italy")
		assert.Equal(t, msgUnknownInput, firstText(t, reply))
	})

	t.Run("is idempotent without a form", func(t *testing.T) {
		reply := env.send("/cancel")
		assert.Equal(t, msgActionCanceled, firstText(t, reply))
	})
}

func TestJourneyCreate(t *testing.T) {
	env := newTestEnv(t)
	user := env.knownUser()

	env.journeys.On("TitleTaken", mock.Anything, user.ID, "Summer", uuid.Nil).Return(true, nil)
	env.journeys.On("TitleTaken", mock.Anything, user.ID, "Summer 2026", uuid.Nil).Return(false, nil)
	env.journeys.On("Create", mock.Anything, user.ID, "Summer 2026", "Beaches and food").
		Return(&models.Journey{ID: uuid.New(), OwnerID: user.ID, Title: "Summer 2026"}, nil)

	reply := env.send("/create_journey")
	assert.Equal(t, msgAskJourneyTitle, firstText(t, reply))

	reply = env.send(strings.Repeat("t", maxJourneyTitleLen+1))
	assert.Equal(t, msgJourneyTitleTooLong, firstText(t, reply))

	reply = env.send("Summer")
	assert.Equal(t, msgJourneyTitleTaken, firstText(t, reply))

	reply = env.send("Summer 2026")
	assert.Equal(t, msgAskJourneyDescription, firstText(t, reply))

	reply = env.send(strings.Repeat("d", maxJourneyDescLen+1))
	assert.Equal(t, msgJourneyDescTooLong, firstText(t, reply))

	reply = env.send("Beaches and food")
	assert.Equal(t, msgJourneyCreated, firstText(t, reply))
	env.journeys.AssertExpectations(t)
}

func TestCommandsRequireSignup(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("GetByChatID", mock.Anything, testChatID).Return(nil, store.ErrNotFound)

	for _, command := range []string{"/create_journey", "/journey_list", "/profile", "/add_note"} {
		reply := env.send(command)
		assert.Equal(t, msgNotSignedUp, firstText(t, reply), command)
	}
}

func TestLocationCreate(t *testing.T) {
	env := newTestEnv(t)
	user := env.knownUser()
	journey := models.Journey{ID: uuid.New(), OwnerID: user.ID, Title: "Italy"}

	env.journeys.On("ListByOwner", mock.Anything, user.ID).Return([]models.Journey{journey}, nil)
	env.journeys.On("GetByTitle", mock.Anything, user.ID, "Italy").Return(&journey, nil)
	env.geocoder.On("Resolve", mock.Anything, "rome").Return(resolved("Rome", 41.9, 12.5))

	dateStart := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	dateEnd := time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC)
	env.locations.On("GetByKey", mock.Anything, journey.ID, "Rome", dateStart, dateEnd).
		Return(nil, store.ErrNotFound)
	env.locations.On("Create", mock.Anything, journey.ID, store.CreateLocationParams{
		Place:     "Rome",
		Lat:       41.9,
		Lon:       12.5,
		DateStart: dateStart,
		DateEnd:   dateEnd,
	}).Return(&models.Location{ID: uuid.New()}, nil)

	reply := env.send("/add_location")
	assert.Equal(t, []string{"Italy"}, reply.SuggestedReplies)

	reply = env.send("Italy")
	assert.Equal(t, msgAskNewLocationPlace, firstText(t, reply))

	reply = env.send("rome")
	assert.Equal(t, msgAskDateStart, firstText(t, reply))

	t.Run("rejects malformed and past dates", func(t *testing.T) {
		for _, bad := range []string{"2026-03-20", "31-02-2026", "01-01-2020", "garbage"} {
			reply := env.send(bad)
			assert.Equal(t, msgInvalidDate, firstText(t, reply), bad)
		}
	})

	reply = env.send("20-03-2026")
	assert.Equal(t, msgAskDateEnd, firstText(t, reply))

	t.Run("rejects end before start as a conflict", func(t *testing.T) {
		reply := env.send("10-03-2026")
		assert.Equal(t, msgDateConflict, firstText(t, reply))
	})

	reply = env.send("25-03-2026")
	assert.Equal(t, msgLocationAdded, firstText(t, reply))
	env.locations.AssertExpectations(t)
}

func TestLocationCreateDuplicateTriple(t *testing.T) {
	env := newTestEnv(t)
	user := env.knownUser()
	journey := models.Journey{ID: uuid.New(), OwnerID: user.ID, Title: "Italy"}

	env.journeys.On("ListByOwner", mock.Anything, user.ID).Return([]models.Journey{journey}, nil)
	env.journeys.On("GetByTitle", mock.Anything, user.ID, "Italy").Return(&journey, nil)
	env.geocoder.On("Resolve", mock.Anything, "rome").Return(resolved("Rome", 41.9, 12.5))

	dateStart := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	dateEnd := time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC)
	env.locations.On("GetByKey", mock.Anything, journey.ID, "Rome", dateStart, dateEnd).
		Return(&models.Location{ID: uuid.New()}, nil)

	env.send("/add_location")
	env.send("Italy")
	env.send("rome")
	env.send("20-03-2026")

	reply := env.send("25-03-2026")
	assert.Equal(t, msgLocationExists, firstText(t, reply))
	env.locations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestJourneyRemoveNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	user := env.knownUser()
	journey := models.Journey{ID: uuid.New(), OwnerID: user.ID, Title: "Old Trip"}

	env.journeys.On("ListByOwner", mock.Anything, user.ID).Return([]models.Journey{journey}, nil)
	env.journeys.On("GetByTitle", mock.Anything, user.ID, "Old Trip").Return(&journey, nil)
	env.journeys.On("Delete", mock.Anything, journey.ID).Return(nil)

	env.send("/remove_journey")
	reply := env.send("Old Trip")
	assert.Equal(t, msgConfirmJourneyDelete, firstText(t, reply))

	reply = env.send("old trip")
	assert.Equal(t, msgConfirmTitleMismatch, firstText(t, reply))
	env.journeys.AssertNotCalled(t, "Delete", mock.Anything, journey.ID)

	reply = env.send("Old Trip")
	assert.Equal(t, msgJourneyDeleted, firstText(t, reply))
	env.journeys.AssertCalled(t, "Delete", mock.Anything, journey.ID)
}

func TestJourneyEditDateConflict(t *testing.T) {
	env := newTestEnv(t)
	user := env.knownUser()
	journey := models.Journey{ID: uuid.New(), OwnerID: user.ID, Title: "Italy"}
	location := models.Location{
		ID:        uuid.New(),
		JourneyID: journey.ID,
		Place:     "Rome",
		DateStart: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		DateEnd:   time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC),
	}

	env.journeys.On("ListByOwner", mock.Anything, user.ID).Return([]models.Journey{journey}, nil)
	env.journeys.On("GetByTitle", mock.Anything, user.ID, "Italy").Return(&journey, nil)
	env.locations.On("ListByJourney", mock.Anything, journey.ID).Return([]models.Location{location}, nil)
	env.locations.On("GetByKey", mock.Anything, journey.ID, "Rome", location.DateStart, location.DateEnd).
		Return(&location, nil)

	newStart := time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)
	env.locations.On("GetByKey", mock.Anything, journey.ID, "Rome", newStart, location.DateEnd).
		Return(nil, store.ErrNotFound)
	env.locations.On("Update", mock.Anything, location.ID, mock.MatchedBy(func(p store.UpdateLocationParams) bool {
		return p.DateStart != nil && p.DateStart.Equal(newStart) && p.Place == nil
	})).Return(nil)

	env.send("/edit_journey")
	env.send("Italy")
	reply := env.send("Locations")
	assert.Equal(t, []string{"Rome: 2026-03-20 - 2026-03-25"}, reply.SuggestedReplies)

	env.send("Rome: 2026-03-20 - 2026-03-25")
	env.send("Date start")

	// Moving the start past the stored end is a conflict, not a format error.
	reply = env.send("28-03-2026")
	assert.Equal(t, msgDateConflict, firstText(t, reply))

	reply = env.send("22-03-2026")
	assert.Equal(t, msgJourneyEdited, firstText(t, reply))
	env.locations.AssertExpectations(t)
}

func TestJourneyInfoWeather(t *testing.T) {
	env := newTestEnv(t)
	user := env.knownUser()
	journey := models.Journey{ID: uuid.New(), OwnerID: user.ID, Title: "Italy", Description: "south"}
	location := models.Location{
		ID:        uuid.New(),
		JourneyID: journey.ID,
		Place:     "Rome",
		DateStart: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		DateEnd:   time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC),
	}

	env.journeys.On("ListByOwner", mock.Anything, user.ID).Return([]models.Journey{journey}, nil)
	env.journeys.On("GetByTitle", mock.Anything, user.ID, "Italy").Return(&journey, nil)
	env.journeys.On("GetByID", mock.Anything, journey.ID).Return(&journey, nil)
	env.locations.On("ListByJourney", mock.Anything, journey.ID).Return([]models.Location{location}, nil)
	env.enricher.On("DailyWeather", mock.Anything, location).Return([]geo.DailyTemperature{
		{Day: "2026-03-20", AvgCelsius: 14.5},
		{Day: "2026-03-21", AvgCelsius: 15.1},
	}, nil)

	env.send("/journey_info")
	reply := env.send("Italy")
	assert.Equal(t, journeyInfoKeyboard, reply.SuggestedReplies)

	reply = env.send("Weather")
	require.Len(t, reply.Messages, 2)
	assert.Contains(t, reply.Messages[1].Text, "Rome")
	assert.Contains(t, reply.Messages[1].Text, "2026-03-20 : 14.5 ºC")

	// The topic answer closes the form.
	reply = env.send("Weather")
	assert.Equal(t, msgUnknownInput, firstText(t, reply))
}

func TestJourneyInfoDegradesPerLocation(t *testing.T) {
	env := newTestEnv(t)
	user := env.knownUser()
	journey := models.Journey{ID: uuid.New(), OwnerID: user.ID, Title: "Italy"}
	rome := models.Location{ID: uuid.New(), JourneyID: journey.ID, Place: "Rome"}
	milan := models.Location{ID: uuid.New(), JourneyID: journey.ID, Place: "Milan"}

	env.journeys.On("ListByOwner", mock.Anything, user.ID).Return([]models.Journey{journey}, nil)
	env.journeys.On("GetByTitle", mock.Anything, user.ID, "Italy").Return(&journey, nil)
	env.journeys.On("GetByID", mock.Anything, journey.ID).Return(&journey, nil)
	env.locations.On("ListByJourney", mock.Anything, journey.ID).Return([]models.Location{rome, milan}, nil)
	env.enricher.On("Restaurants", mock.Anything, rome).Return(nil, assert.AnError)
	env.enricher.On("Restaurants", mock.Anything, milan).Return([]string{"Trattoria Bella"}, nil)

	env.send("/journey_info")
	env.send("Italy")
	reply := env.send("Restaurants")

	require.Len(t, reply.Messages, 3)
	assert.Contains(t, reply.Messages[1].Text, msgNoRestaurantsFound)
	assert.Contains(t, reply.Messages[2].Text, "Trattoria Bella")
}

func TestJourneyInfoMapRoute(t *testing.T) {
	env := newTestEnv(t)
	user := env.knownUser()
	journey := models.Journey{ID: uuid.New(), OwnerID: user.ID, Title: "Italy"}
	location := models.Location{ID: uuid.New(), JourneyID: journey.ID, Place: "Rome"}

	env.journeys.On("ListByOwner", mock.Anything, user.ID).Return([]models.Journey{journey}, nil)
	env.journeys.On("GetByTitle", mock.Anything, user.ID, "Italy").Return(&journey, nil)
	env.journeys.On("GetByID", mock.Anything, journey.ID).Return(&journey, nil)
	env.locations.On("ListByJourney", mock.Anything, journey.ID).Return([]models.Location{location}, nil)
	env.enricher.On("RouteMap", mock.Anything, geo.Coordinates{Lat: user.Lat, Lon: user.Lon}, []models.Location{location}).
		Return([]byte{0x89, 'P', 'N', 'G'}, nil)

	env.send("/journey_info")
	env.send("Italy")
	reply := env.send("Map Route")

	require.Len(t, reply.Messages, 2)
	assert.NotEmpty(t, reply.Messages[1].PhotoPNG)
}

func TestNoteCreate(t *testing.T) {
	env := newTestEnv(t)
	user := env.knownUser()
	journey := models.Journey{ID: uuid.New(), OwnerID: user.ID, Title: "Italy"}

	env.journeys.On("ListByOwner", mock.Anything, user.ID).Return([]models.Journey{journey}, nil)
	env.journeys.On("GetByTitle", mock.Anything, user.ID, "Italy").Return(&journey, nil)
	env.notes.On("TitleTaken", mock.Anything, journey.ID, "Packing", uuid.Nil).Return(true, nil)
	env.notes.On("TitleTaken", mock.Anything, journey.ID, "Packing v2", uuid.Nil).Return(false, nil)
	env.notes.On("Create", mock.Anything, journey.ID, "Packing v2", "bring the good camera").
		Return(&models.Note{ID: uuid.New()}, nil)

	env.send("/add_note")
	env.send("Italy")

	reply := env.send("Packing")
	assert.Equal(t, msgNoteTitleTaken, firstText(t, reply))

	reply = env.send("Packing v2")
	assert.Equal(t, msgAskNoteContent, firstText(t, reply))

	reply = env.send(strings.Repeat("n", maxNoteContentLen+1))
	assert.Equal(t, msgNoteTooLong, firstText(t, reply))

	reply = env.send("bring the good camera")
	assert.Equal(t, msgNoteCreated, firstText(t, reply))
	env.notes.AssertExpectations(t)
}

func TestProfileEditBio(t *testing.T) {
	env := newTestEnv(t)
	user := env.knownUser()
	env.users.On("Update", mock.Anything, user.ID, mock.MatchedBy(func(p store.UpdateUserParams) bool {
		return p.Bio != nil && *p.Bio == "new bio" && p.Age == nil
	})).Return(nil)

	reply := env.send("/edit_profile")
	assert.Equal(t, editProfileKeyboard, reply.SuggestedReplies)

	reply = env.send("shoe size")
	assert.Equal(t, msgProfileChoices, firstText(t, reply))

	reply = env.send("bio")
	assert.Equal(t, msgAskNewBio, firstText(t, reply))

	reply = env.send("new bio")
	assert.Equal(t, msgBioChanged, firstText(t, reply))
	env.users.AssertExpectations(t)
}

func TestProfileShow(t *testing.T) {
	env := newTestEnv(t)
	env.knownUser()

	reply := env.send("/profile")
	text := firstText(t, reply)
	assert.Contains(t, text, "maria's profile")
	assert.Contains(t, text, "30 y.o.")
	assert.Contains(t, text, "Lisbon, Portugal")
}

func TestJourneyListEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.knownUser()
	env.journeys.On("ListByOwner", mock.Anything, mock.Anything).Return(nil, nil)

	reply := env.send("/journey_list")
	assert.Equal(t, msgNoJourneysYet, firstText(t, reply))
}

func TestUnknownCommand(t *testing.T) {
	env := newTestEnv(t)

	reply := env.send("/fly_me_to_the_moon")
	assert.Equal(t, msgUnknownInput, firstText(t, reply))
}
