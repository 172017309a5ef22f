package models

import "time"

type Note struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Title     string    `bson:"title" json:"title"`
	Body      string    `bson:"body" json:"body"`
	Author    string    `bson:"author" json:"author"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NoteInput is the request payload accepted by create and update.
// Author is deliberately absent so it can never be reassigned.
type NoteInput struct {
	Title string `json:"title" form:"title"`
	Body  string `json:"body" form:"body"`
}

// NoteEvent is published after every successful mutation.
type NoteEvent struct {
	Type   string `json:"type"` // created, updated, deleted
	Author string `json:"author"`
	Note   Note   `json:"note"`
}

const (
	NoteCreated = "created"
	NoteUpdated = "updated"
	NoteDeleted = "deleted"
)
