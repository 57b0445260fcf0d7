package conversation

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/models"
)

// infoFanOutLimit bounds concurrent provider calls when a topic is computed
// for every location of a journey.
const infoFanOutLimit = 4

func (e *Engine) startJourneyInfo(ctx context.Context, m Inbound) Reply {
	return e.startJourneyForm(ctx, m, journeyInfoState{step: journeyInfoStepJourney}, msgWhichJourneyInfo)
}

func (e *Engine) continueJourneyInfo(ctx context.Context, m Inbound, st journeyInfoState, text string) Reply {
	switch st.step {
	case journeyInfoStepJourney:
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
		st.step = journeyInfoStepTopic
		e.states.Put(m.ChatID, st)
		return keyboardReply(journeyInfoKeyboard, msgWhatInfo)

	case journeyInfoStepTopic:
		return e.answerJourneyInfo(ctx, m, st, text)
	}
	return textReply(msgUnknownInput)
}

func (e *Engine) answerJourneyInfo(ctx context.Context, m Inbound, st journeyInfoState, topic string) Reply {
	journey, err := e.journeys.GetByID(ctx, st.journeyID)
	if err != nil {
		return e.abort(ctx, m, st.formName(), err)
	}
	locations, err := e.locations.ListByJourney(ctx, st.journeyID)
	if err != nil {
		return e.abort(ctx, m, st.formName(), err)
	}

	var reply Reply
	switch topic {
	case "Location List":
		texts := []string{journeyHeader(journey)}
		for _, loc := range locations {
			texts = append(texts, locationLabel(loc))
		}
		reply = textReply(texts...)
	case "Weather":
		reply = e.perLocationInfo(ctx, journey, locations, e.weatherSection)
	case "Sightseeing":
		reply = e.perLocationInfo(ctx, journey, locations, e.poiSection(e.enricher.Sights, msgNoSightsFound))
	case "Hotels":
		reply = e.perLocationInfo(ctx, journey, locations, e.poiSection(e.enricher.Hotels, msgNoHotelsFound))
	case "Restaurants":
		reply = e.perLocationInfo(ctx, journey, locations, e.poiSection(e.enricher.Restaurants, msgNoRestaurantsFound))
	case "Map Route":
		reply = e.routeMapInfo(ctx, m, journey, locations)
	default:
		e.reject(ctx, st.formName())
		return keyboardReply(journeyInfoKeyboard, msgUseButtons)
	}

	e.commit(ctx, st.formName())
	e.states.Clear(m.ChatID)
	return reply
}

// perLocationInfo computes one text section per location concurrently while
// preserving the journey's date order in the output.
func (e *Engine) perLocationInfo(ctx context.Context, journey *models.Journey, locations []models.Location, section func(context.Context, models.Location) string) Reply {
	sections := make([]string, len(locations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(infoFanOutLimit)
	for i, loc := range locations {
		g.Go(func() error {
			sections[i] = section(gctx, loc)
			return nil
		})
	}
	// Sections handle their own failures; Wait only joins the goroutines.
	_ = g.Wait()

	texts := append([]string{journeyHeader(journey)}, sections...)
	return textReply(texts...)
}

func (e *Engine) weatherSection(ctx context.Context, loc models.Location) string {
	temps, err := e.enricher.DailyWeather(ctx, loc)
	if err != nil || len(temps) == 0 {
		e.logger.WarnContext(ctx, "Weather lookup failed",
			slog.String("place", loc.Place), slog.Any("error", err))
		return loc.Place + "\n" + msgWeatherUnavailable
	}
	return loc.Place + "\n" + strings.Join(weatherLines(temps), "\n")
}

// poiSection adapts one point-of-interest lookup into a per-location section.
func (e *Engine) poiSection(lookup func(context.Context, models.Location) ([]string, error), empty string) func(context.Context, models.Location) string {
	return func(ctx context.Context, loc models.Location) string {
		names, err := lookup(ctx, loc)
		if err != nil || len(names) == 0 {
			if err != nil {
				e.logger.WarnContext(ctx, "POI lookup failed",
					slog.String("place", loc.Place), slog.Any("error", err))
			}
			return loc.Place + "\n" + empty
		}
		return loc.Place + "\n" + strings.Join(names, "\n")
	}
}

func (e *Engine) routeMapInfo(ctx context.Context, m Inbound, journey *models.Journey, locations []models.Location) Reply {
	user, reply, ok := e.requireUser(ctx, m)
	if !ok {
		return reply
	}
	png, err := e.enricher.RouteMap(ctx, geo.Coordinates{Lat: user.Lat, Lon: user.Lon}, locations)
	if err != nil {
		e.logger.ErrorContext(ctx, "Route map rendering failed",
			slog.String("journey", journey.Title), slog.Any("error", err))
		return textReply(msgMapFailed)
	}
	return Reply{
		Messages: []Message{
			{Text: msgMapLoading},
			{Text: journeyHeader(journey), PhotoPNG: png},
		},
		SuggestedReplies: defaultKeyboard,
	}
}
