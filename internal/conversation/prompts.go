package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/models"
)

// Prompts and diagnostics shown to the traveller. Validation failures always
// name the rule that was broken so the user can fix the input and stay on the
// same step.
const (
	msgActionCanceled = "❌ Action canceled"
	msgUnknownInput   = "🤔 I didn't get that. Pick a command from the menu"
	msgNotSignedUp    = "🤓 You are not signed up! Use /start"
	msgAlreadyKnown   = "👋 Hello, %s! Long time no see"
	msgInternalError  = "⚠️ Something went wrong on our side. Please try again later"

	msgInvalidAge      = "⚠️ Please enter a valid age"
	msgAskBio          = "🧬 Good! One final detail: what do you want other people to know about you?"
	msgBioTooLong      = "⚠️ Your bio is too long. Try to fit it in 200 characters"
	msgInvalidLocation = "⚠️ Something went wrong\nAre you sure you entered an existing location? Try again"
	msgSignupDone      = "✅ You are signed up! Now you can plan your trips!\nTo see all available commands, see \"Menu\""

	msgAskJourneyTitle       = "✍️ Provide some information about your trip. What would you call it?"
	msgJourneyTitleTooLong   = "🫨 That is too long for a title! Maybe we could try something shorter?"
	msgJourneyTitleTaken     = "🫨 You already have such a journey. Please try another title"
	msgAskJourneyDescription = "✍️ Nice title! Now tell me more about it"
	msgJourneyDescTooLong    = "🫨 That is too long for a description! Maybe we could try something shorter?"
	msgJourneyCreated        = "✅ New journey created! If you want to add locations, try /add_location"
	msgNoJourneysYet         = "🤓 First, you should create a journey. Use /create_journey"
	msgNoSuchJourney         = "⚠️ You do not have such journey. Use the buttons"
	msgJourneyEdited         = "✅ Journey successfully edited. Anything else?"
	msgJourneyDeleted        = "✅ The journey has been deleted. Anything else?"
	msgConfirmJourneyDelete  = "❗ To confirm removal, type the journey title again"
	msgConfirmTitleMismatch  = "⚠️ That doesn't match the journey title. Type it exactly to confirm, or /cancel"

	msgAskNewLocationPlace = "🧐 A new location to visit! Where is it?"
	msgInvalidPlace        = "🫨 Invalid location. Are you sure you entered an existing location?"
	msgAskDateStart        = "So, when are you going to go there? DD-MM-YYYY format 😉"
	msgAskDateEnd          = "Good! When do you plan to leave the place? DD-MM-YYYY format 😉"
	msgInvalidDate         = "🫨 Invalid date, try again"
	msgDateConflict        = "This date conflicts with another date, associated with this location. Maybe you made a mistake?"
	msgLocationExists      = "⚠️ You already planned this location with these dates. Maybe you made a mistake?"
	msgLocationAdded       = "✅ New location added. If you want to add another one, call /add_location"
	msgNoLocationsYet      = "⚠️ There are no locations added to this journey. Use /add_location"
	msgNoSuchLocation      = "⚠️ There is no such location associated with this journey. Use the buttons"
	msgLocationRemoved     = "✅ Location removed successfully"
	msgWhichLocationEdit   = "🧐 Which location do you want to change?"
	msgWhichLocationRemove = "🧐 Which location do you want to remove?"
	msgAskNewPlace         = "🧐 To what did you change your destination to?"

	msgWhatToChange        = "🧐 What do you want to change?"
	msgInvalidChoice       = "⚠️ Invalid parameter. Use the buttons"
	msgAskNewJourneyTitle  = "🧐 What do you want to change the title to?"
	msgAskNewJourneyDesc   = "🧐 What do you want to change the description to?"
	msgNewJourneyTitleLong = "⚠️ New title is too long. Think of something shorter"
	msgNewJourneyDescLong  = "⚠️ New description is too long. Think of something shorter"

	msgAskNoteJourney   = "🧐 To which journey do you want a new note?"
	msgAskNoteTitle     = "✍️ A new note! What would you call it?"
	msgNoteTitleTaken   = "⚠️ You already have a note with this title associated with this journey. Please, choose another one"
	msgNoteTitleTooLong = "⚠️ That is too long for a title. Could you try something shorter?"
	msgAskNoteContent   = "✍️ Type in your note itself"
	msgNoteTooLong      = "⚠️ That is too long for a note. Could you try something shorter?"
	msgNoteCreated      = "✅ Successfully created a new note."
	msgNoNotesYet       = "⚠️ You do not have any notes. Use /add_note"
	msgNoSuchNote       = "⚠️ Invalid note. Use the keyboard"
	msgWhichNoteEdit    = "🧐 Which note do you want to edit?"
	msgWhichNoteRemove  = "🧐 Which note do you want to delete?"
	msgAskNoteNewValue  = "✍️ Ok. What do you want to change it to?"
	msgNoteEdited       = "✅ Note successfully edited. Anything else?"
	msgNoteRemoved      = "✅ The note is successfully deleted. Anything else?"

	msgWhichJourneyInfo   = "🧐 Which journey do you want to know about?"
	msgWhatInfo           = "🧐 What exactly do you want to know?"
	msgUseButtons         = "🤓 Use the buttons, please"
	msgMapLoading         = "Loading... Please, wait a second"
	msgMapFailed          = "Something went wrong while drawing the map. Come back later"
	msgWeatherUnavailable = "Something went wrong. Come back later"
	msgNoSightsFound      = "No sightseeing places found nearby"
	msgNoHotelsFound      = "No hotels found nearby"
	msgNoRestaurantsFound = "No restaurants found nearby"

	msgProfileWhatToEdit = "🧐 What exactly do you want to change in your profile?"
	msgProfileChoices    = "⚠️ Please provide one of the 3 options below"
	msgAskAge            = "🧐 How old are you?"
	msgAskWhereLive      = "🧐 Where do you live?"
	msgAskNewBio         = "✍️ Type in your new bio"
	msgAgeChanged        = "✅ Age changed successfully"
	msgLocationChanged   = "✅ Location changed successfully"
	msgBioChanged        = "✅ Bio changed successfully"
)

// Suggested-reply keyboards, mirroring the transport's reply keyboards.
var (
	defaultKeyboard      = []string{"/cancel"}
	editProfileKeyboard  = []string{"age", "location", "bio"}
	editJourneyKeyboard  = []string{"Title", "Description", "Locations"}
	editLocationKeyboard = []string{"Place", "Date start", "Date end"}
	editNoteKeyboard     = []string{"Title", "Content"}
	journeyInfoKeyboard  = []string{"Location List", "Weather", "Sightseeing", "Hotels", "Restaurants", "Map Route"}
)

// Message is one outbound chat message; PhotoPNG is set only for the
// rendered route map.
type Message struct {
	Text     string `json:"text,omitempty"`
	PhotoPNG []byte `json:"photo_png,omitempty"`
}

// Reply is everything the engine sends back for one inbound message.
type Reply struct {
	Messages         []Message `json:"messages"`
	SuggestedReplies []string  `json:"suggested_replies,omitempty"`
}

func textReply(texts ...string) Reply {
	r := Reply{SuggestedReplies: defaultKeyboard}
	for _, t := range texts {
		r.Messages = append(r.Messages, Message{Text: t})
	}
	return r
}

func keyboardReply(keyboard []string, texts ...string) Reply {
	r := textReply(texts...)
	r.SuggestedReplies = keyboard
	return r
}

func journeyListKeyboard(journeys []models.Journey) []string {
	titles := make([]string, 0, len(journeys))
	for _, j := range journeys {
		titles = append(titles, j.Title)
	}
	return titles
}

func locationListKeyboard(locations []models.Location) []string {
	labels := make([]string, 0, len(locations))
	for _, loc := range locations {
		labels = append(labels, locationLabel(loc))
	}
	return labels
}

func noteListKeyboard(notes []models.Note) []string {
	titles := make([]string, 0, len(notes))
	for _, n := range notes {
		titles = append(titles, n.Title)
	}
	return titles
}

// locationLabel is the stable textual key the user types (or taps) to address
// a location: "place: date_start - date_end".
func locationLabel(loc models.Location) string {
	return fmt.Sprintf("%s: %s - %s",
		loc.Place,
		loc.DateStart.Format(time.DateOnly),
		loc.DateEnd.Format(time.DateOnly))
}

func welcomeText(username string) string {
	return strings.Join([]string{
		fmt.Sprintf("👋 Hello, %s", username),
		"This is a travel agent bot! Let's first fill out a form...",
		"We need this data to improve your experience of using our bot :)",
		"How old are you?",
	}, "\n")
}

func profileText(user *models.User) string {
	return strings.Join([]string{
		fmt.Sprintf("ℹ️ %s's profile", user.Username),
		fmt.Sprintf("😎 %d y.o.", user.Age),
		"",
		fmt.Sprintf("✏️ %s", user.Bio),
		"",
		fmt.Sprintf("📍 Lives in: %s", user.LivingLocation),
	}, "\n")
}

func noteText(note models.Note) string {
	return fmt.Sprintf("✏️ %s\n%s", note.Title, note.Content)
}

func journeyHeader(journey *models.Journey) string {
	return fmt.Sprintf("ℹ️ Journey %s\n%s\n---", journey.Title, journey.Description)
}

func journeyListText(journeys []models.Journey, locationsByJourney map[string][]models.Location) string {
	var b strings.Builder
	for _, j := range journeys {
		fmt.Fprintf(&b, "%s\n%s\n\nLocations:\n", j.Title, j.Description)
		locs := locationsByJourney[j.ID.String()]
		if len(locs) == 0 {
			b.WriteString("🫨 No locations added for now\n")
		} else {
			for _, loc := range locs {
				fmt.Fprintf(&b, "%s\n%s - %s\n",
					loc.Place,
					loc.DateStart.Format(time.DateOnly),
					loc.DateEnd.Format(time.DateOnly))
			}
		}
		b.WriteString("-----\n")
	}
	return fmt.Sprintf("🗒️ Your journeys:\n\n%s", b.String())
}

func weatherLines(temps []geo.DailyTemperature) []string {
	lines := []string{"Average daily temperatures:"}
	for _, t := range temps {
		lines = append(lines, fmt.Sprintf("%s : %.1f ºC", t.Day, t.AvgCelsius))
	}
	return lines
}
