package conversation

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wayfarer-bot/wayfarer/internal/models"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

const (
	maxNoteTitleLen   = 50
	maxNoteContentLen = 500
)

func (e *Engine) startNoteCreate(ctx context.Context, m Inbound) Reply {
	return e.startJourneyForm(ctx, m, noteCreateState{step: noteCreateStepJourney}, msgAskNoteJourney)
}

func (e *Engine) continueNoteCreate(ctx context.Context, m Inbound, st noteCreateState, text string) Reply {
	switch st.step {
	case noteCreateStepJourney:
		journey, reply, ok := e.pickJourney(ctx, m, st.formName(), text)
		if !ok {
			return reply
		}
		st.journeyID = journey.ID
		st.step = noteCreateStepTitle
		e.states.Put(m.ChatID, st)
		return textReply(msgAskNoteTitle)

	case noteCreateStepTitle:
		taken, err := e.notes.TitleTaken(ctx, st.journeyID, text, uuid.Nil)
		if err != nil {
			return e.abort(ctx, m, st.formName(), err)
		}
		if taken {
			e.reject(ctx, st.formName())
			return textReply(msgNoteTitleTaken)
		}
		if utf8.RuneCountInString(text) > maxNoteTitleLen {
			e.reject(ctx, st.formName())
			return textReply(msgNoteTitleTooLong)
		}
		st.title = text
		st.step = noteCreateStepContent
		e.states.Put(m.ChatID, st)
		return textReply(msgAskNoteContent)

	case noteCreateStepContent:
		if utf8.RuneCountInString(text) > maxNoteContentLen {
			e.reject(ctx, st.formName())
			return textReply(msgNoteTooLong)
		}
		if _, err := e.notes.Create(ctx, st.journeyID, st.title, text); err != nil {
			if errors.Is(err, store.ErrConflict) {
				e.reject(ctx, st.formName())
				e.states.Clear(m.ChatID)
				return textReply(msgNoteTitleTaken)
			}
			return e.abort(ctx, m, st.formName(), err)
		}
		e.commit(ctx, st.formName())
		e.states.Clear(m.ChatID)
		return textReply(msgNoteCreated)
	}
	return textReply(msgUnknownInput)
}

func (e *Engine) startNoteView(ctx context.Context, m Inbound) Reply {
	return e.startJourneyForm(ctx, m, noteViewState{}, "🧐 Whose journey notes do you want to see?")
}

func (e *Engine) continueNoteView(ctx context.Context, m Inbound, text string) Reply {
	journey, reply, ok := e.pickJourney(ctx, m, "note_view", text)
	if !ok {
		return reply
	}
	notes, err := e.notes.ListByJourney(ctx, journey.ID)
	if err != nil {
		return e.abort(ctx, m, "note_view", err)
	}
	e.states.Clear(m.ChatID)
	if len(notes) == 0 {
		return textReply(msgNoNotesYet)
	}
	texts := []string{journeyHeader(journey)}
	for _, n := range notes {
		texts = append(texts, noteText(n))
	}
	return textReply(texts...)
}

// pickNote resolves a typed note title inside a journey, or re-prompts with
// the note keyboard.
func (e *Engine) pickNote(ctx context.Context, m Inbound, form string, journeyID uuid.UUID, title, prompt string) (*models.Note, Reply, bool) {
	note, err := e.notes.GetByTitle(ctx, journeyID, title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.reject(ctx, form)
			notes, lerr := e.notes.ListByJourney(ctx, journeyID)
			if lerr != nil {
				return nil, e.abort(ctx, m, form, lerr), false
			}
			return nil, keyboardReply(noteListKeyboard(notes), msgNoSuchNote+"\n"+prompt), false
		}
		return nil, e.abort(ctx, m, form, err), false
	}
	return note, Reply{}, true
}

// pickNoteJourney is the second step shared by note edit and note remove:
// resolve the journey, require it to have notes, then offer them.
func (e *Engine) pickNoteJourney(ctx context.Context, m Inbound, form, text, prompt string) (uuid.UUID, []models.Note, Reply, bool) {
	journey, reply, ok := e.pickJourney(ctx, m, form, text)
	if !ok {
		return uuid.Nil, nil, reply, false
	}
	notes, err := e.notes.ListByJourney(ctx, journey.ID)
	if err != nil {
		return uuid.Nil, nil, e.abort(ctx, m, form, err), false
	}
	if len(notes) == 0 {
		e.states.Clear(m.ChatID)
		return uuid.Nil, nil, textReply(msgNoNotesYet), false
	}
	return journey.ID, notes, Reply{}, true
}

func (e *Engine) startNoteEdit(ctx context.Context, m Inbound) Reply {
	return e.startJourneyForm(ctx, m, noteEditState{step: noteEditStepJourney}, "🧐 In which journey is the note you want to edit?")
}

func (e *Engine) continueNoteEdit(ctx context.Context, m Inbound, st noteEditState, text string) Reply {
	switch st.step {
	case noteEditStepJourney:
		journeyID, notes, reply, ok := e.pickNoteJourney(ctx, m, st.formName(), text, msgWhichNoteEdit)
		if !ok {
			return reply
		}
		st.journeyID = journeyID
		st.step = noteEditStepNote
		e.states.Put(m.ChatID, st)
		return keyboardReply(noteListKeyboard(notes), msgWhichNoteEdit)

	case noteEditStepNote:
		note, reply, ok := e.pickNote(ctx, m, st.formName(), st.journeyID, text, msgWhichNoteEdit)
		if !ok {
			return reply
		}
		st.noteID = note.ID
		st.step = noteEditStepField
		e.states.Put(m.ChatID, st)
		return keyboardReply(editNoteKeyboard, msgWhatToChange)

	case noteEditStepField:
		switch text {
		case "Title":
			st.field = noteFieldTitle
		case "Content":
			st.field = noteFieldContent
		default:
			e.reject(ctx, st.formName())
			return keyboardReply(editNoteKeyboard, msgInvalidChoice)
		}
		st.step = noteEditStepValue
		e.states.Put(m.ChatID, st)
		return textReply(msgAskNoteNewValue)

	case noteEditStepValue:
		var params store.UpdateNoteParams
		switch st.field {
		case noteFieldTitle:
			if utf8.RuneCountInString(text) > maxNoteTitleLen {
				e.reject(ctx, st.formName())
				return textReply(msgNoteTitleTooLong)
			}
			taken, err := e.notes.TitleTaken(ctx, st.journeyID, text, st.noteID)
			if err != nil {
				return e.abort(ctx, m, st.formName(), err)
			}
			if taken {
				e.reject(ctx, st.formName())
				return textReply(msgNoteTitleTaken)
			}
			title := text
			params.Title = &title
		case noteFieldContent:
			if utf8.RuneCountInString(text) > maxNoteContentLen {
				e.reject(ctx, st.formName())
				return textReply(msgNoteTooLong)
			}
			content := text
			params.Content = &content
		}
		if err := e.notes.Update(ctx, st.noteID, params); err != nil {
			if errors.Is(err, store.ErrConflict) {
				e.reject(ctx, st.formName())
				return textReply(msgNoteTitleTaken)
			}
			return e.abort(ctx, m, st.formName(), err)
		}
		e.commit(ctx, st.formName())
		e.states.Clear(m.ChatID)
		return textReply(msgNoteEdited)
	}
	return textReply(msgUnknownInput)
}

func (e *Engine) startNoteRemove(ctx context.Context, m Inbound) Reply {
	return e.startJourneyForm(ctx, m, noteRemoveState{step: noteRemoveStepJourney}, "🧐 In which journey is the note you want to delete?")
}

func (e *Engine) continueNoteRemove(ctx context.Context, m Inbound, st noteRemoveState, text string) Reply {
	switch st.step {
	case noteRemoveStepJourney:
		journeyID, notes, reply, ok := e.pickNoteJourney(ctx, m, st.formName(), text, msgWhichNoteRemove)
		if !ok {
			return reply
		}
		st.journeyID = journeyID
		st.step = noteRemoveStepNote
		e.states.Put(m.ChatID, st)
		return keyboardReply(noteListKeyboard(notes), msgWhichNoteRemove)

	case noteRemoveStepNote:
		note, reply, ok := e.pickNote(ctx, m, st.formName(), st.journeyID, text, msgWhichNoteRemove)
		if !ok {
			return reply
		}
		if err := e.notes.Delete(ctx, note.ID); err != nil {
			return e.abort(ctx, m, st.formName(), err)
		}
		e.commit(ctx, st.formName())
		e.states.Clear(m.ChatID)
		return textReply(msgNoteRemoved)
	}
	return textReply(msgUnknownInput)
}
