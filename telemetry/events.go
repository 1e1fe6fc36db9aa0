// Package telemetry provides windowed simulation statistics and CSV output.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventHookset EventType = iota
	EventCatch
	EventEscape
	EventConsumption
	EventGraze
	EventMigration
	EventSpawn
	EventDespawn
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventHookset:
		return "hookset"
	case EventCatch:
		return "catch"
	case EventEscape:
		return "escape"
	case EventConsumption:
		return "consumption"
	case EventGraze:
		return "graze"
	case EventMigration:
		return "migration"
	case EventSpawn:
		return "spawn"
	case EventDespawn:
		return "despawn"
	default:
		return "unknown"
	}
}

// Event represents a single simulation event. The sim exposes these to the
// caller through its event queue; the collector aggregates them per window.
type Event struct {
	Type       EventType
	Tick       int32
	OrganismID uint32
	SpeciesID  uint8

	// Optional fields depending on event type
	TargetID uint32  // consumed prey for consumption events
	Amount   float32 // landed weight (catch) or nutrition transferred
	Reason   string  // escape reason
}

// NewHooksetEvent creates a successful hookset event.
func NewHooksetEvent(tick int32, organismID uint32, speciesID uint8) Event {
	return Event{
		Type:       EventHookset,
		Tick:       tick,
		OrganismID: organismID,
		SpeciesID:  speciesID,
	}
}

// NewCatchEvent creates a landed-fish event.
func NewCatchEvent(tick int32, organismID uint32, speciesID uint8, weight float32) Event {
	return Event{
		Type:       EventCatch,
		Tick:       tick,
		OrganismID: organismID,
		SpeciesID:  speciesID,
		Amount:     weight,
	}
}

// NewEscapeEvent creates an escape event with its reason.
func NewEscapeEvent(tick int32, organismID uint32, speciesID uint8, reason string) Event {
	return Event{
		Type:       EventEscape,
		Tick:       tick,
		OrganismID: organismID,
		SpeciesID:  speciesID,
		Reason:     reason,
	}
}

// NewConsumptionEvent creates a predator-ate-prey event.
func NewConsumptionEvent(tick int32, predatorID, preyID uint32, speciesID uint8, nutrition float32) Event {
	return Event{
		Type:       EventConsumption,
		Tick:       tick,
		OrganismID: predatorID,
		SpeciesID:  speciesID,
		TargetID:   preyID,
		Amount:     nutrition,
	}
}

// NewGrazeEvent creates a school-member-ate-food event.
func NewGrazeEvent(tick int32, organismID uint32, speciesID uint8) Event {
	return Event{
		Type:       EventGraze,
		Tick:       tick,
		OrganismID: organismID,
		SpeciesID:  speciesID,
	}
}

// NewMigrationEvent creates a starvation migration event.
func NewMigrationEvent(tick int32, organismID uint32, speciesID uint8) Event {
	return Event{
		Type:       EventMigration,
		Tick:       tick,
		OrganismID: organismID,
		SpeciesID:  speciesID,
	}
}

// NewSpawnEvent creates a spawn event.
func NewSpawnEvent(tick int32, organismID uint32, speciesID uint8) Event {
	return Event{
		Type:       EventSpawn,
		Tick:       tick,
		OrganismID: organismID,
		SpeciesID:  speciesID,
	}
}

// NewDespawnEvent creates a despawn event (migrated out, landed, expired).
func NewDespawnEvent(tick int32, organismID uint32, speciesID uint8, reason string) Event {
	return Event{
		Type:       EventDespawn,
		Tick:       tick,
		OrganismID: organismID,
		SpeciesID:  speciesID,
		Reason:     reason,
	}
}
