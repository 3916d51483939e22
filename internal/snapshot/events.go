package snapshot

import "time"

// EventKind labels a lifecycle notification.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
	EventDeleted   EventKind = "deleted"
	EventCancelled EventKind = "cancelled"
)

// Event is a lifecycle notification emitted around backup and restore
// phases. Listeners are advisory: nothing in the engine depends on one
// being attached.
type Event struct {
	Kind     EventKind
	BackupID string
	JobName  string
	Error    string
	Time     time.Time
}

// Notifier receives lifecycle events. A nil Notifier is valid and means
// nobody is listening.
type Notifier func(Event)

// Emit sends the event if a listener is attached.
func (n Notifier) Emit(e Event) {
	if n != nil {
		if e.Time.IsZero() {
			e.Time = time.Now()
		}
		n(e)
	}
}
