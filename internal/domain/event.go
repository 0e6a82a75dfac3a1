package domain

import "time"

// Event is a shareable occasion that albums hang off.
type Event struct {
	ID          int64
	Title       string
	Description *string
	EventDate   time.Time
	Location    *string
	OwnerID     int64
	Visibility  Visibility
	ShareToken  *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Ownership implements Owned.
func (e *Event) Ownership() Envelope {
	return Envelope{OwnerID: e.OwnerID, Visibility: e.Visibility, ShareToken: derefString(e.ShareToken)}
}
