package domain

import "time"

// Album groups media uploaded for an event.
type Album struct {
	ID          int64
	EventID     int64
	Name        string
	Description *string
	OwnerID     int64
	Visibility  Visibility
	ShareToken  *string
	CreatedAt   time.Time
}

// Ownership implements Owned.
func (a *Album) Ownership() Envelope {
	return Envelope{OwnerID: a.OwnerID, Visibility: a.Visibility, ShareToken: derefString(a.ShareToken)}
}
