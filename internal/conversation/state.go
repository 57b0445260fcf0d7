package conversation

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

// FormState is the scratch record of one in-flight form. Exactly one form can
// be active per chat; states are stored by value so a handler working on a
// copy never leaks a half-validated mutation back into the store.
type FormState interface {
	formName() string
}

// StateStore keeps per-chat form scratch state with a TTL so an abandoned
// form eventually evaporates instead of trapping the chat mid-step.
type StateStore struct {
	c *cache.Cache
}

func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &StateStore{c: cache.New(ttl, ttl/2)}
}

func (s *StateStore) Get(chatID int64) (FormState, bool) {
	v, ok := s.c.Get(stateKey(chatID))
	if !ok {
		return nil, false
	}
	state, ok := v.(FormState)
	return state, ok
}

// Put stores the state and refreshes its TTL; every accepted step counts as
// activity.
func (s *StateStore) Put(chatID int64, state FormState) {
	s.c.SetDefault(stateKey(chatID), state)
}

func (s *StateStore) Clear(chatID int64) {
	s.c.Delete(stateKey(chatID))
}

func stateKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

type signupStep int

const (
	signupStepAge signupStep = iota
	signupStepLocation
	signupStepBio
)

type signupState struct {
	step  signupStep
	age   int
	place string
	lat   float64
	lon   float64
}

func (signupState) formName() string { return "signup" }

type profileField int

const (
	profileFieldAge profileField = iota
	profileFieldLocation
	profileFieldBio
)

type profileEditStep int

const (
	profileEditStepField profileEditStep = iota
	profileEditStepValue
)

type profileEditState struct {
	step  profileEditStep
	field profileField
}

func (profileEditState) formName() string { return "profile_edit" }

type journeyCreateStep int

const (
	journeyCreateStepTitle journeyCreateStep = iota
	journeyCreateStepDescription
)

type journeyCreateState struct {
	step  journeyCreateStep
	title string
}

func (journeyCreateState) formName() string { return "journey_create" }

type journeyEditStep int

const (
	journeyEditStepJourney journeyEditStep = iota
	journeyEditStepField
	journeyEditStepTitle
	journeyEditStepDescription
	journeyEditStepLocation
	journeyEditStepLocationField
	journeyEditStepLocationValue
)

type locationField int

const (
	locationFieldPlace locationField = iota
	locationFieldDateStart
	locationFieldDateEnd
)

type journeyEditState struct {
	step      journeyEditStep
	journeyID uuid.UUID

	// Set once the Locations branch picks a concrete location. The stored
	// bounds are needed to cross-validate an edited date against the other
	// one without a second round trip.
	locationID uuid.UUID
	locField   locationField
	locPlace   string
	locStart   time.Time
	locEnd     time.Time
}

func (journeyEditState) formName() string { return "journey_edit" }

type journeyRemoveStep int

const (
	journeyRemoveStepJourney journeyRemoveStep = iota
	journeyRemoveStepConfirm
)

type journeyRemoveState struct {
	step      journeyRemoveStep
	journeyID uuid.UUID
	title     string
}

func (journeyRemoveState) formName() string { return "journey_remove" }

type journeyInfoStep int

const (
	journeyInfoStepJourney journeyInfoStep = iota
	journeyInfoStepTopic
)

type journeyInfoState struct {
	step      journeyInfoStep
	journeyID uuid.UUID
}

func (journeyInfoState) formName() string { return "journey_info" }

type locationCreateStep int

const (
	locationCreateStepJourney locationCreateStep = iota
	locationCreateStepPlace
	locationCreateStepDateStart
	locationCreateStepDateEnd
)

type locationCreateState struct {
	step      locationCreateStep
	journeyID uuid.UUID
	place     string
	lat       float64
	lon       float64
	dateStart time.Time
}

func (locationCreateState) formName() string { return "location_create" }

type locationRemoveStep int

const (
	locationRemoveStepJourney locationRemoveStep = iota
	locationRemoveStepLocation
)

type locationRemoveState struct {
	step      locationRemoveStep
	journeyID uuid.UUID
}

func (locationRemoveState) formName() string { return "location_remove" }

type noteCreateStep int

const (
	noteCreateStepJourney noteCreateStep = iota
	noteCreateStepTitle
	noteCreateStepContent
)

type noteCreateState struct {
	step      noteCreateStep
	journeyID uuid.UUID
	title     string
}

func (noteCreateState) formName() string { return "note_create" }

type noteField int

const (
	noteFieldTitle noteField = iota
	noteFieldContent
)

type noteEditStep int

const (
	noteEditStepJourney noteEditStep = iota
	noteEditStepNote
	noteEditStepField
	noteEditStepValue
)

type noteEditState struct {
	step      noteEditStep
	journeyID uuid.UUID
	noteID    uuid.UUID
	field     noteField
}

func (noteEditState) formName() string { return "note_edit" }

type noteRemoveStep int

const (
	noteRemoveStepJourney noteRemoveStep = iota
	noteRemoveStepNote
)

type noteRemoveState struct {
	step      noteRemoveStep
	journeyID uuid.UUID
}

func (noteRemoveState) formName() string { return "note_remove" }

type noteViewState struct{}

func (noteViewState) formName() string { return "note_view" }
