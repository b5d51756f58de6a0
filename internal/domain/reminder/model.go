package reminder

import "time"

// Entry is one scheduled game in the reminder set.
type Entry struct {
	EventID string
	StartAt time.Time
}

// Notification is the private message sent to a subscriber.
type Notification struct {
	Username string
	Subject  string
	Body     string
}
