package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a signed-up traveller. ChatID is the opaque identity delivered by the
// conversational transport; it never changes once the user is created.
type User struct {
	ID             uuid.UUID `json:"id"`
	ChatID         int64     `json:"chat_id"`
	Username       string    `json:"username"`
	Age            int       `json:"age"`
	LivingLocation string    `json:"living_location"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	Bio            string    `json:"bio"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Journey is a user-owned trip. Title is unique among the owner's journeys;
// the conversation addresses journeys by title, not by ID.
type Journey struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Location is one stop of a journey. Within a journey the
// (place, date_start, date_end) triple is unique and is how the conversation
// looks a location up later.
type Location struct {
	ID        uuid.UUID `json:"id"`
	JourneyID uuid.UUID `json:"journey_id"`
	Place     string    `json:"place"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	DateStart time.Time `json:"date_start"`
	DateEnd   time.Time `json:"date_end"`
}

// Note is a free-text note attached to a journey. Title is unique within the
// journey.
type Note struct {
	ID        uuid.UUID `json:"id"`
	JourneyID uuid.UUID `json:"journey_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
}

// Admin is a panel login identity. Admins are provisioned out of band and
// never created through the conversation.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
}
