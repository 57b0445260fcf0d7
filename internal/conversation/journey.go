package conversation

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/models"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

const (
	maxJourneyTitleLen = 50
	maxJourneyDescLen  = 100
)

func (e *Engine) startJourneyCreate(ctx context.Context, m Inbound) Reply {
	if _, reply, ok := e.requireUser(ctx, m); !ok {
		return reply
	}
	e.states.Put(m.ChatID, journeyCreateState{step: journeyCreateStepTitle})
	return textReply(msgAskJourneyTitle)
}

func (e *Engine) continueJourneyCreate(ctx context.Context, m Inbound, st journeyCreateState, text string) Reply {
	user, reply, ok := e.requireUser(ctx, m)
	if !ok {
		return reply
	}

	switch st.step {
	case journeyCreateStepTitle:
		if utf8.RuneCountInString(text) > maxJourneyTitleLen {
			e.reject(ctx, st.formName())
			return textReply(msgJourneyTitleTooLong)
		}
		taken, err := e.journeys.TitleTaken(ctx, user.ID, text, uuid.Nil)
		if err != nil {
			return e.abort(ctx, m, st.formName(), err)
		}
		if taken {
			e.reject(ctx, st.formName())
			return textReply(msgJourneyTitleTaken)
		}
		st.title = text
		st.step = journeyCreateStepDescription
		e.states.Put(m.ChatID, st)
		return textReply(msgAskJourneyDescription)

	case journeyCreateStepDescription:
		if utf8.RuneCountInString(text) > maxJourneyDescLen {
			e.reject(ctx, st.formName())
			return textReply(msgJourneyDescTooLong)
		}
		if _, err := e.journeys.Create(ctx, user.ID, st.title, text); err != nil {
			if errors.Is(err, store.ErrConflict) {
				e.reject(ctx, st.formName())
				e.states.Clear(m.ChatID)
				return textReply(msgJourneyTitleTaken)
			}
			return e.abort(ctx, m, st.formName(), err)
		}
		e.commit(ctx, st.formName())
		e.states.Clear(m.ChatID)
		return textReply(msgJourneyCreated)
	}
	return textReply(msgUnknownInput)
}

// showJourneyList prints every journey the user owns with its locations.
func (e *Engine) showJourneyList(ctx context.Context, m Inbound) Reply {
	user, reply, ok := e.requireUser(ctx, m)
	if !ok {
		return reply
	}
	journeys, err := e.journeys.ListByOwner(ctx, user.ID)
	if err != nil {
		return e.abort(ctx, m, "journey_list", err)
	}
	if len(journeys) == 0 {
		return textReply(msgNoJourneysYet)
	}
	locationsByJourney := make(map[string][]models.Location, len(journeys))
	for _, j := range journeys {
		locs, err := e.locations.ListByJourney(ctx, j.ID)
		if err != nil {
			return e.abort(ctx, m, "journey_list", err)
		}
		locationsByJourney[j.ID.String()] = locs
	}
	return textReply(journeyListText(journeys, locationsByJourney))
}

// startJourneyForm is the shared opener for every form that begins with
// picking one of the user's journeys.
func (e *Engine) startJourneyForm(ctx context.Context, m Inbound, state FormState, prompt string) Reply {
	user, reply, ok := e.requireUser(ctx, m)
	if !ok {
		return reply
	}
	journeys, err := e.journeys.ListByOwner(ctx, user.ID)
	if err != nil {
		return e.abort(ctx, m, state.formName(), err)
	}
	if len(journeys) == 0 {
		return textReply(msgNoJourneysYet)
	}
	e.states.Put(m.ChatID, state)
	return keyboardReply(journeyListKeyboard(journeys), prompt)
}

// pickJourney resolves a typed journey title for the user, or returns a
// re-prompt with the journey keyboard.
func (e *Engine) pickJourney(ctx context.Context, m Inbound, form, title string) (*models.Journey, Reply, bool) {
	user, reply, ok := e.requireUser(ctx, m)
	if !ok {
		return nil, reply, false
	}
	journey, err := e.journeys.GetByTitle(ctx, user.ID, title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.reject(ctx, form)
			journeys, lerr := e.journeys.ListByOwner(ctx, user.ID)
			if lerr != nil {
				return nil, e.abort(ctx, m, form, lerr), false
			}
			return nil, keyboardReply(journeyListKeyboard(journeys), msgNoSuchJourney), false
		}
		return nil, e.abort(ctx, m, form, err), false
	}
	return journey, Reply{}, true
}

func (e *Engine) startJourneyEdit(ctx context.Context, m Inbound) Reply {
	return e.startJourneyForm(ctx, m, journeyEditState{step: journeyEditStepJourney}, msgWhatToChange)
}

func (e *Engine) continueJourneyEdit(ctx context.Context, m Inbound, st journeyEditState, text string) Reply {
	switch st.step {
	case journeyEditStepJourney:
		journey, reply, ok := e.pickJourney(ctx, m, st.formName(), text)
		if !ok {
			return reply
		}
		st.journeyID = journey.ID
		st.step = journeyEditStepField
		e.states.Put(m.ChatID, st)
		return keyboardReply(editJourneyKeyboard, msgWhatToChange)

	case journeyEditStepField:
		switch text {
		case "Title":
			st.step = journeyEditStepTitle
			e.states.Put(m.ChatID, st)
			return textReply(msgAskNewJourneyTitle)
		case "Description":
			st.step = journeyEditStepDescription
			e.states.Put(m.ChatID, st)
			return textReply(msgAskNewJourneyDesc)
		case "Locations":
			locations, err := e.locations.ListByJourney(ctx, st.journeyID)
			if err != nil {
				return e.abort(ctx, m, st.formName(), err)
			}
			if len(locations) == 0 {
				e.states.Clear(m.ChatID)
				return textReply(msgNoLocationsYet)
			}
			st.step = journeyEditStepLocation
			e.states.Put(m.ChatID, st)
			return keyboardReply(locationListKeyboard(locations), msgWhichLocationEdit)
		default:
			e.reject(ctx, st.formName())
			return keyboardReply(editJourneyKeyboard, msgInvalidChoice)
		}

	case journeyEditStepTitle:
		return e.commitJourneyTitle(ctx, m, st, text)

	case journeyEditStepDescription:
		if utf8.RuneCountInString(text) > maxJourneyDescLen {
			e.reject(ctx, st.formName())
			return textReply(msgNewJourneyDescLong)
		}
		desc := text
		if err := e.journeys.Update(ctx, st.journeyID, store.UpdateJourneyParams{Description: &desc}); err != nil {
			return e.abort(ctx, m, st.formName(), err)
		}
		e.commit(ctx, st.formName())
		e.states.Clear(m.ChatID)
		return textReply(msgJourneyEdited)

	case journeyEditStepLocation:
		return e.pickLocationForEdit(ctx, m, st, text)

	case journeyEditStepLocationField:
		switch text {
		case "Place":
			st.locField = locationFieldPlace
			st.step = journeyEditStepLocationValue
			e.states.Put(m.ChatID, st)
			return textReply(msgAskNewPlace)
		case "Date start":
			st.locField = locationFieldDateStart
			st.step = journeyEditStepLocationValue
			e.states.Put(m.ChatID, st)
			return textReply(msgAskDateStart)
		case "Date end":
			st.locField = locationFieldDateEnd
			st.step = journeyEditStepLocationValue
			e.states.Put(m.ChatID, st)
			return textReply(msgAskDateEnd)
		default:
			e.reject(ctx, st.formName())
			return keyboardReply(editLocationKeyboard, msgInvalidChoice)
		}

	case journeyEditStepLocationValue:
		return e.commitLocationEdit(ctx, m, st, text)
	}
	return textReply(msgUnknownInput)
}

func (e *Engine) commitJourneyTitle(ctx context.Context, m Inbound, st journeyEditState, text string) Reply {
	user, reply, ok := e.requireUser(ctx, m)
	if !ok {
		return reply
	}
	if utf8.RuneCountInString(text) > maxJourneyTitleLen {
		e.reject(ctx, st.formName())
		return textReply(msgNewJourneyTitleLong)
	}
	taken, err := e.journeys.TitleTaken(ctx, user.ID, text, st.journeyID)
	if err != nil {
		return e.abort(ctx, m, st.formName(), err)
	}
	if taken {
		e.reject(ctx, st.formName())
		return textReply(msgJourneyTitleTaken)
	}
	title := text
	if err := e.journeys.Update(ctx, st.journeyID, store.UpdateJourneyParams{Title: &title}); err != nil {
		if errors.Is(err, store.ErrConflict) {
			e.reject(ctx, st.formName())
			return textReply(msgJourneyTitleTaken)
		}
		return e.abort(ctx, m, st.formName(), err)
	}
	e.commit(ctx, st.formName())
	e.states.Clear(m.ChatID)
	return textReply(msgJourneyEdited)
}

func (e *Engine) pickLocationForEdit(ctx context.Context, m Inbound, st journeyEditState, text string) Reply {
	location, reply, ok := e.pickLocation(ctx, m, st.formName(), st.journeyID, text, msgWhichLocationEdit)
	if !ok {
		return reply
	}
	st.locationID = location.ID
	st.locPlace = location.Place
	st.locStart = location.DateStart
	st.locEnd = location.DateEnd
	st.step = journeyEditStepLocationField
	e.states.Put(m.ChatID, st)
	return keyboardReply(editLocationKeyboard, msgWhatToChange)
}

func (e *Engine) commitLocationEdit(ctx context.Context, m Inbound, st journeyEditState, text string) Reply {
	var params store.UpdateLocationParams

	switch st.locField {
	case locationFieldPlace:
		res := e.geocoder.Resolve(ctx, text)
		if res.Status != geo.PlaceResolved {
			e.reject(ctx, st.formName())
			return textReply(msgInvalidPlace)
		}
		if taken, reply, failed := e.locationTaken(ctx, m, st, res.DisplayName, st.locStart, st.locEnd); failed || taken {
			return reply
		}
		params.Place = &res.DisplayName
		params.Lat = &res.Lat
		params.Lon = &res.Lon

	case locationFieldDateStart:
		d, err := parseTripDate(text, e.now())
		if err != nil {
			e.reject(ctx, st.formName())
			return textReply(msgInvalidDate)
		}
		if st.locEnd.Before(d) {
			e.reject(ctx, st.formName())
			return textReply(msgDateConflict)
		}
		if taken, reply, failed := e.locationTaken(ctx, m, st, st.locPlace, d, st.locEnd); failed || taken {
			return reply
		}
		params.DateStart = &d

	case locationFieldDateEnd:
		d, err := parseTripDate(text, e.now())
		if err != nil {
			e.reject(ctx, st.formName())
			return textReply(msgInvalidDate)
		}
		if d.Before(st.locStart) {
			e.reject(ctx, st.formName())
			return textReply(msgDateConflict)
		}
		if taken, reply, failed := e.locationTaken(ctx, m, st, st.locPlace, st.locStart, d); failed || taken {
			return reply
		}
		params.DateEnd = &d
	}

	if err := e.locations.Update(ctx, st.locationID, params); err != nil {
		if errors.Is(err, store.ErrConflict) {
			e.reject(ctx, st.formName())
			return textReply(msgLocationExists)
		}
		return e.abort(ctx, m, st.formName(), err)
	}
	e.commit(ctx, st.formName())
	e.states.Clear(m.ChatID)
	return textReply(msgJourneyEdited)
}

// locationTaken checks whether the edited triple would collide with another
// location of the same journey.
func (e *Engine) locationTaken(ctx context.Context, m Inbound, st journeyEditState, place string, start, end time.Time) (bool, Reply, bool) {
	existing, err := e.locations.GetByKey(ctx, st.journeyID, place, start, end)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, Reply{}, false
		}
		return false, e.abort(ctx, m, st.formName(), err), true
	}
	if existing.ID == st.locationID {
		return false, Reply{}, false
	}
	e.reject(ctx, st.formName())
	return true, textReply(msgLocationExists), false
}

func (e *Engine) startJourneyRemove(ctx context.Context, m Inbound) Reply {
	return e.startJourneyForm(ctx, m, journeyRemoveState{step: journeyRemoveStepJourney}, "🧐 What is your journey called?")
}

func (e *Engine) continueJourneyRemove(ctx context.Context, m Inbound, st journeyRemoveState, text string) Reply {
	switch st.step {
	case journeyRemoveStepJourney:
		journey, reply, ok := e.pickJourney(ctx, m, st.formName(), text)
		if !ok {
			return reply
		}
		st.journeyID = journey.ID
		st.title = journey.Title
		st.step = journeyRemoveStepConfirm
		e.states.Put(m.ChatID, st)
		return textReply(msgConfirmJourneyDelete)

	case journeyRemoveStepConfirm:
		// Deleting a journey cascades to its locations and notes, so the
		// exact title has to be retyped before anything is dropped.
		if text != st.title {
			e.reject(ctx, st.formName())
			return textReply(msgConfirmTitleMismatch)
		}
		if err := e.journeys.Delete(ctx, st.journeyID); err != nil {
			return e.abort(ctx, m, st.formName(), err)
		}
		e.commit(ctx, st.formName())
		e.states.Clear(m.ChatID)
		return textReply(msgJourneyDeleted)
	}
	return textReply(msgUnknownInput)
}
