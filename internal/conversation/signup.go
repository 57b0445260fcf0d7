package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

const (
	maxAge    = 122
	maxBioLen = 200
)

// startSignup greets a known user or opens the signup form for a new one.
func (e *Engine) startSignup(ctx context.Context, m Inbound) Reply {
	user, err := e.users.GetByChatID(ctx, m.ChatID)
	switch {
	case err == nil:
		return textReply(fmt.Sprintf(msgAlreadyKnown, user.Username))
	case errors.Is(err, store.ErrNotFound):
		e.states.Put(m.ChatID, signupState{step: signupStepAge})
		return textReply(welcomeText(m.Username))
	default:
		return e.abort(ctx, m, "signup", err)
	}
}

func (e *Engine) continueSignup(ctx context.Context, m Inbound, st signupState, text string) Reply {
	switch st.step {
	case signupStepAge:
		age, err := strconv.Atoi(text)
		if err != nil || age < 0 || age > maxAge {
			e.reject(ctx, st.formName())
			return textReply(msgInvalidAge)
		}
		st.age = age
		st.step = signupStepLocation
		e.states.Put(m.ChatID, st)
		return textReply(fmt.Sprintf("✍️ Ok, so you are %s y.o. Where do you live?", text))

	case signupStepLocation:
		res := e.geocoder.Resolve(ctx, text)
		if res.Status != geo.PlaceResolved {
			e.reject(ctx, st.formName())
			return textReply(msgInvalidLocation)
		}
		st.place = res.DisplayName
		st.lat = res.Lat
		st.lon = res.Lon
		st.step = signupStepBio
		e.states.Put(m.ChatID, st)
		return textReply(msgAskBio)

	case signupStepBio:
		if utf8.RuneCountInString(text) > maxBioLen {
			e.reject(ctx, st.formName())
			return textReply(msgBioTooLong)
		}
		_, err := e.users.Create(ctx, store.CreateUserParams{
			ChatID:         m.ChatID,
			Username:       m.Username,
			Age:            st.age,
			LivingLocation: st.place,
			Lat:            st.lat,
			Lon:            st.lon,
			Bio:            text,
		})
		if err != nil {
			return e.abort(ctx, m, st.formName(), err)
		}
		e.commit(ctx, st.formName())
		e.states.Clear(m.ChatID)
		return textReply(msgSignupDone)
	}
	return textReply(msgUnknownInput)
}

func (e *Engine) showProfile(ctx context.Context, m Inbound) Reply {
	user, reply, ok := e.requireUser(ctx, m)
	if !ok {
		return reply
	}
	return textReply(profileText(user))
}

func (e *Engine) startProfileEdit(ctx context.Context, m Inbound) Reply {
	if _, reply, ok := e.requireUser(ctx, m); !ok {
		return reply
	}
	e.states.Put(m.ChatID, profileEditState{step: profileEditStepField})
	return keyboardReply(editProfileKeyboard, msgProfileWhatToEdit)
}

func (e *Engine) continueProfileEdit(ctx context.Context, m Inbound, st profileEditState, text string) Reply {
	user, reply, ok := e.requireUser(ctx, m)
	if !ok {
		return reply
	}

	switch st.step {
	case profileEditStepField:
		switch text {
		case "age":
			st.field = profileFieldAge
		case "location":
			st.field = profileFieldLocation
		case "bio":
			st.field = profileFieldBio
		default:
			e.reject(ctx, st.formName())
			return keyboardReply(editProfileKeyboard, msgProfileChoices)
		}
		st.step = profileEditStepValue
		e.states.Put(m.ChatID, st)
		switch st.field {
		case profileFieldAge:
			return textReply(msgAskAge)
		case profileFieldLocation:
			return textReply(msgAskWhereLive)
		default:
			return textReply(msgAskNewBio)
		}

	case profileEditStepValue:
		var params store.UpdateUserParams
		var done string
		switch st.field {
		case profileFieldAge:
			age, err := strconv.Atoi(text)
			if err != nil || age < 0 || age > maxAge {
				e.reject(ctx, st.formName())
				return textReply(msgInvalidAge)
			}
			params.Age = &age
			done = msgAgeChanged
		case profileFieldLocation:
			res := e.geocoder.Resolve(ctx, text)
			if res.Status != geo.PlaceResolved {
				e.reject(ctx, st.formName())
				return textReply(msgInvalidLocation)
			}
			params.LivingLocation = &res.DisplayName
			params.Lat = &res.Lat
			params.Lon = &res.Lon
			done = msgLocationChanged
		case profileFieldBio:
			if utf8.RuneCountInString(text) > maxBioLen {
				e.reject(ctx, st.formName())
				return textReply(msgBioTooLong)
			}
			bio := text
			params.Bio = &bio
			done = msgBioChanged
		}
		if err := e.users.Update(ctx, user.ID, params); err != nil {
			return e.abort(ctx, m, st.formName(), err)
		}
		e.commit(ctx, st.formName())
		e.states.Clear(m.ChatID)
		return textReply(done)
	}
	return textReply(msgUnknownInput)
}
