// iface.go defines the Interface for dependency injection and testing.
//
// The concrete *Store type satisfies this interface. The engine actor
// accepts Interface rather than *Store so tests can inject an in-memory
// fake without touching SQLite.
package store

import "github.com/elfiee/elfiee/pkg/model"

// Interface defines the full set of event-log operations the engine actor
// needs. The concrete *Store type implements this interface.
type Interface interface {
	// Close closes the underlying connection.
	Close() error

	// AppendEvent inserts a single event row.
	AppendEvent(e model.Event) error

	// AppendEvents inserts a batch of events atomically.
	AppendEvents(events []model.Event) error

	// GetAllEvents returns every event in insertion order.
	GetAllEvents() ([]model.Event, error)

	// GetEventsByEntity returns every event recorded against one entity.
	GetEventsByEntity(entity string) ([]model.Event, error)

	// GetEventsByAttribute returns every event with an exact attribute match.
	GetEventsByAttribute(attribute string) ([]model.Event, error)

	// CountEvents returns the total number of events in the log.
	CountEvents() int64
}

// Compile-time check that *Store implements Interface.
var _ Interface = (*Store)(nil)
