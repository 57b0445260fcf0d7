// Package conversation implements the chat-facing trip planner: a set of
// multi-step forms (signup, journeys, locations, notes) driven one text
// message at a time. Each chat holds at most one active form; invalid input
// re-prompts without losing progress and /cancel abandons whatever is open.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wayfarer-bot/wayfarer/app/observability/metrics"
	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/models"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

// Enricher provides the journey-info extras. Implemented by enrich.Service.
type Enricher interface {
	Restaurants(ctx context.Context, loc models.Location) ([]string, error)
	Sights(ctx context.Context, loc models.Location) ([]string, error)
	Hotels(ctx context.Context, loc models.Location) ([]string, error)
	DailyWeather(ctx context.Context, loc models.Location) ([]geo.DailyTemperature, error)
	RouteMap(ctx context.Context, home geo.Coordinates, locations []models.Location) ([]byte, error)
}

// Inbound is one user message as the transport hands it over.
type Inbound struct {
	ChatID   int64
	Username string
	Text     string
}

// Engine routes inbound messages to commands and in-flight forms.
type Engine struct {
	logger *slog.Logger
	states *StateStore

	users     store.UserRepo
	journeys  store.JourneyRepo
	locations store.LocationRepo
	notes     store.NoteRepo

	geocoder geo.Geocoder
	enricher Enricher

	// Messages from the same chat are serialized; different chats proceed
	// in parallel.
	locks sync.Map

	now func() time.Time
}

func NewEngine(
	states *StateStore,
	users store.UserRepo,
	journeys store.JourneyRepo,
	locations store.LocationRepo,
	notes store.NoteRepo,
	geocoder geo.Geocoder,
	enricher Enricher,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		logger:    logger,
		states:    states,
		users:     users,
		journeys:  journeys,
		locations: locations,
		notes:     notes,
		geocoder:  geocoder,
		enricher:  enricher,
		now:       time.Now,
	}
}

// HandleMessage processes one inbound message and returns everything to send
// back. It never returns an error; failures become apologetic chat messages.
func (e *Engine) HandleMessage(ctx context.Context, m Inbound) Reply {
	started := time.Now()
	mtr := metrics.Get()
	mtr.MessagesTotal.Add(ctx, 1)
	defer func() {
		mtr.MessageDurationSeconds.Record(ctx, time.Since(started).Seconds())
	}()

	mu := e.lockFor(m.ChatID)
	mu.Lock()
	defer mu.Unlock()

	text := strings.TrimSpace(m.Text)
	if strings.HasPrefix(text, "/") {
		return e.handleCommand(ctx, m, text)
	}

	if state, ok := e.states.Get(m.ChatID); ok {
		return e.dispatchForm(ctx, m, state, text)
	}
	return textReply(msgUnknownInput)
}

func (e *Engine) lockFor(chatID int64) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(chatID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// handleCommand starts a form or answers immediately. Any command, known or
// not, replaces whatever form was active; only /cancel makes that explicit.
func (e *Engine) handleCommand(ctx context.Context, m Inbound, text string) Reply {
	command := text
	if i := strings.IndexByte(command, ' '); i >= 0 {
		command = command[:i]
	}

	switch command {
	case "/cancel":
		e.states.Clear(m.ChatID)
		return textReply(msgActionCanceled)
	case "/start":
		return e.startSignup(ctx, m)
	case "/profile":
		return e.showProfile(ctx, m)
	case "/edit_profile":
		return e.startProfileEdit(ctx, m)
	case "/create_journey":
		return e.startJourneyCreate(ctx, m)
	case "/journey_list":
		return e.showJourneyList(ctx, m)
	case "/journey_info":
		return e.startJourneyInfo(ctx, m)
	case "/edit_journey":
		return e.startJourneyEdit(ctx, m)
	case "/remove_journey":
		return e.startJourneyRemove(ctx, m)
	case "/add_location":
		return e.startLocationCreate(ctx, m)
	case "/remove_location":
		return e.startLocationRemove(ctx, m)
	case "/add_note":
		return e.startNoteCreate(ctx, m)
	case "/see_notes":
		return e.startNoteView(ctx, m)
	case "/edit_note":
		return e.startNoteEdit(ctx, m)
	case "/remove_note":
		return e.startNoteRemove(ctx, m)
	default:
		return textReply(msgUnknownInput)
	}
}

func (e *Engine) dispatchForm(ctx context.Context, m Inbound, state FormState, text string) Reply {
	switch st := state.(type) {
	case signupState:
		return e.continueSignup(ctx, m, st, text)
	case profileEditState:
		return e.continueProfileEdit(ctx, m, st, text)
	case journeyCreateState:
		return e.continueJourneyCreate(ctx, m, st, text)
	case journeyEditState:
		return e.continueJourneyEdit(ctx, m, st, text)
	case journeyRemoveState:
		return e.continueJourneyRemove(ctx, m, st, text)
	case journeyInfoState:
		return e.continueJourneyInfo(ctx, m, st, text)
	case locationCreateState:
		return e.continueLocationCreate(ctx, m, st, text)
	case locationRemoveState:
		return e.continueLocationRemove(ctx, m, st, text)
	case noteCreateState:
		return e.continueNoteCreate(ctx, m, st, text)
	case noteEditState:
		return e.continueNoteEdit(ctx, m, st, text)
	case noteRemoveState:
		return e.continueNoteRemove(ctx, m, st, text)
	case noteViewState:
		return e.continueNoteView(ctx, m, text)
	default:
		e.logger.WarnContext(ctx, "Dropping unknown form state",
			slog.Int64("chat_id", m.ChatID), slog.String("form", state.formName()))
		e.states.Clear(m.ChatID)
		return textReply(msgUnknownInput)
	}
}

// requireUser loads the signed-up user behind the chat. The bool reports
// whether the caller may proceed; when false the Reply is already final.
func (e *Engine) requireUser(ctx context.Context, m Inbound) (*models.User, Reply, bool) {
	user, err := e.users.GetByChatID(ctx, m.ChatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, textReply(msgNotSignedUp), false
		}
		e.logger.ErrorContext(ctx, "Loading user failed",
			slog.Int64("chat_id", m.ChatID), slog.Any("error", err))
		return nil, textReply(msgInternalError), false
	}
	return user, Reply{}, true
}

// abort reports a persistence failure mid-form: the form is dropped so the
// user is not stuck retrying a step that cannot succeed.
func (e *Engine) abort(ctx context.Context, m Inbound, form string, err error) Reply {
	e.logger.ErrorContext(ctx, "Form aborted",
		slog.Int64("chat_id", m.ChatID),
		slog.String("form", form),
		slog.Any("error", err))
	e.states.Clear(m.ChatID)
	return textReply(msgInternalError)
}

func (e *Engine) commit(ctx context.Context, form string) {
	metrics.Get().FormCommitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("form", form)))
}

func (e *Engine) reject(ctx context.Context, form string) {
	metrics.Get().FormRejectsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("form", form)))
}
