package conversation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/models"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

func (e *Engine) startLocationCreate(ctx context.Context, m Inbound) Reply {
	return e.startJourneyForm(ctx, m,
		locationCreateState{step: locationCreateStepJourney},
		"🧐 To which journey do you want to add a new location?")
}

func (e *Engine) continueLocationCreate(ctx context.Context, m Inbound, st locationCreateState, text string) Reply {
	switch st.step {
	case locationCreateStepJourney:
		journey, reply, ok := e.pickJourney(ctx, m, st.formName(), text)
		if !ok {
			return reply
		}
		st.journeyID = journey.ID
		st.step = locationCreateStepPlace
		e.states.Put(m.ChatID, st)
		return textReply(msgAskNewLocationPlace)

	case locationCreateStepPlace:
		res := e.geocoder.Resolve(ctx, text)
		if res.Status != geo.PlaceResolved {
			e.reject(ctx, st.formName())
			return textReply(msgInvalidPlace)
		}
		st.place = res.DisplayName
		st.lat = res.Lat
		st.lon = res.Lon
		st.step = locationCreateStepDateStart
		e.states.Put(m.ChatID, st)
		return textReply(msgAskDateStart)

	case locationCreateStepDateStart:
		d, err := parseTripDate(text, e.now())
		if err != nil {
			e.reject(ctx, st.formName())
			return textReply(msgInvalidDate)
		}
		st.dateStart = d
		st.step = locationCreateStepDateEnd
		e.states.Put(m.ChatID, st)
		return textReply(msgAskDateEnd)

	case locationCreateStepDateEnd:
		d, err := parseTripDate(text, e.now())
		if err != nil {
			e.reject(ctx, st.formName())
			return textReply(msgInvalidDate)
		}
		if d.Before(st.dateStart) {
			e.reject(ctx, st.formName())
			return textReply(msgDateConflict)
		}
		if _, err := e.locations.GetByKey(ctx, st.journeyID, st.place, st.dateStart, d); err == nil {
			e.reject(ctx, st.formName())
			return textReply(msgLocationExists)
		} else if !errors.Is(err, store.ErrNotFound) {
			return e.abort(ctx, m, st.formName(), err)
		}
		_, err = e.locations.Create(ctx, st.journeyID, store.CreateLocationParams{
			Place:     st.place,
			Lat:       st.lat,
			Lon:       st.lon,
			DateStart: st.dateStart,
			DateEnd:   d,
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				e.reject(ctx, st.formName())
				return textReply(msgLocationExists)
			}
			return e.abort(ctx, m, st.formName(), err)
		}
		e.commit(ctx, st.formName())
		e.states.Clear(m.ChatID)
		return textReply(msgLocationAdded)
	}
	return textReply(msgUnknownInput)
}

// pickLocation resolves a typed "place: start - end" label inside a journey,
// or returns a re-prompt with the location keyboard.
func (e *Engine) pickLocation(ctx context.Context, m Inbound, form string, journeyID uuid.UUID, text, prompt string) (*models.Location, Reply, bool) {
	rePrompt := func() Reply {
		e.reject(ctx, form)
		locations, err := e.locations.ListByJourney(ctx, journeyID)
		if err != nil {
			return e.abort(ctx, m, form, err)
		}
		return keyboardReply(locationListKeyboard(locations), msgNoSuchLocation+"\n"+prompt)
	}

	place, dateStart, dateEnd, err := parseLocationKey(text)
	if err != nil {
		return nil, rePrompt(), false
	}
	location, err := e.locations.GetByKey(ctx, journeyID, place, dateStart, dateEnd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, rePrompt(), false
		}
		return nil, e.abort(ctx, m, form, err), false
	}
	return location, Reply{}, true
}

func (e *Engine) startLocationRemove(ctx context.Context, m Inbound) Reply {
	return e.startJourneyForm(ctx, m,
		locationRemoveState{step: locationRemoveStepJourney},
		"🧐 From which journey do you want to remove a location?")
}

func (e *Engine) continueLocationRemove(ctx context.Context, m Inbound, st locationRemoveState, text string) Reply {
	switch st.step {
	case locationRemoveStepJourney:
		journey, reply, ok := e.pickJourney(ctx, m, st.formName(), text)
		if !ok {
			return reply
		}
		locations, err := e.locations.ListByJourney(ctx, journey.ID)
		if err != nil {
			return e.abort(ctx, m, st.formName(), err)
		}
		if len(locations) == 0 {
			e.states.Clear(m.ChatID)
			return textReply(msgNoLocationsYet)
		}
		st.journeyID = journey.ID
		st.step = locationRemoveStepLocation
		e.states.Put(m.ChatID, st)
		return keyboardReply(locationListKeyboard(locations), msgWhichLocationRemove)

	case locationRemoveStepLocation:
		location, reply, ok := e.pickLocation(ctx, m, st.formName(), st.journeyID, text, msgWhichLocationRemove)
		if !ok {
			return reply
		}
		if err := e.locations.Delete(ctx, location.ID); err != nil {
			return e.abort(ctx, m, st.formName(), err)
		}
		e.commit(ctx, st.formName())
		e.states.Clear(m.ChatID)
		return textReply(msgLocationRemoved)
	}
	return textReply(msgUnknownInput)
}
