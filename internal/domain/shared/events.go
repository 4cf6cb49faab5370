package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each is published after the unit of work that produced it commits.
const (
	// Account events
	EventStudentRegistered EventType = "student.registered"

	// Ledger events
	EventHoursLogged    EventType = "hours.logged"
	EventHoursConfirmed EventType = "hours.confirmed"

	// Accolade events
	EventAccoladeAwarded EventType = "accolade.awarded"

	// Confirmation workflow events
	EventConfirmationRequested EventType = "confirmation.requested"

	// Leaderboard events
	EventLeaderboardUpdated EventType = "leaderboard.updated"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Account Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentRegisteredEvent is emitted when a student account is created.
type StudentRegisteredEvent struct {
	BaseEvent
	Username string `json:"username"`
}

// Payload implements Event interface.
func (e StudentRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"username": e.Username,
	}
}

// NewStudentRegisteredEvent creates a new StudentRegisteredEvent.
func NewStudentRegisteredEvent(studentID, username string) StudentRegisteredEvent {
	return StudentRegisteredEvent{
		BaseEvent: NewBaseEvent(EventStudentRegistered, studentID),
		Username:  username,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Ledger Events
// ═══════════════════════════════════════════════════════════════════════════

// HoursLoggedEvent is emitted when a staff member logs hours for a student.
type HoursLoggedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	StaffID   string `json:"staff_id"`
	Hours     int    `json:"hours"`
}

// Payload implements Event interface.
func (e HoursLoggedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"staff_id":   e.StaffID,
		"hours":      e.Hours,
	}
}

// NewHoursLoggedEvent creates a new HoursLoggedEvent.
func NewHoursLoggedEvent(entryID, studentID, staffID string, hours int) HoursLoggedEvent {
	return HoursLoggedEvent{
		BaseEvent: NewBaseEvent(EventHoursLogged, entryID),
		StudentID: studentID,
		StaffID:   staffID,
		Hours:     hours,
	}
}

// HoursConfirmedEvent is emitted when an entry is confirmed and the student's total recomputed.
type HoursConfirmedEvent struct {
	BaseEvent
	StudentID  string `json:"student_id"`
	StaffID    string `json:"staff_id"`
	Hours      int    `json:"hours"`
	TotalHours int    `json:"total_hours"`
}

// Payload implements Event interface.
func (e HoursConfirmedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":  e.StudentID,
		"staff_id":    e.StaffID,
		"hours":       e.Hours,
		"total_hours": e.TotalHours,
	}
}

// NewHoursConfirmedEvent creates a new HoursConfirmedEvent.
func NewHoursConfirmedEvent(entryID, studentID, staffID string, hours, totalHours int) HoursConfirmedEvent {
	return HoursConfirmedEvent{
		BaseEvent:  NewBaseEvent(EventHoursConfirmed, entryID),
		StudentID:  studentID,
		StaffID:    staffID,
		Hours:      hours,
		TotalHours: totalHours,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Accolade Events
// ═══════════════════════════════════════════════════════════════════════════

// AccoladeAwardedEvent is emitted for every newly created accolade.
type AccoladeAwardedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	Milestone int    `json:"milestone"`
	Name      string `json:"name"`
}

// Payload implements Event interface.
func (e AccoladeAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"milestone":  e.Milestone,
		"name":       e.Name,
	}
}

// NewAccoladeAwardedEvent creates a new AccoladeAwardedEvent.
func NewAccoladeAwardedEvent(accoladeID, studentID string, milestone int, name string) AccoladeAwardedEvent {
	return AccoladeAwardedEvent{
		BaseEvent: NewBaseEvent(EventAccoladeAwarded, accoladeID),
		StudentID: studentID,
		Milestone: milestone,
		Name:      name,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Confirmation Events
// ═══════════════════════════════════════════════════════════════════════════

// ConfirmationRequestedEvent is emitted when a student asks staff to confirm an entry.
type ConfirmationRequestedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	EntryID   string `json:"entry_id"`
}

// Payload implements Event interface.
func (e ConfirmationRequestedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"entry_id":   e.EntryID,
	}
}

// NewConfirmationRequestedEvent creates a new ConfirmationRequestedEvent.
func NewConfirmationRequestedEvent(requestID, studentID, entryID string) ConfirmationRequestedEvent {
	return ConfirmationRequestedEvent{
		BaseEvent: NewBaseEvent(EventConfirmationRequested, requestID),
		StudentID: studentID,
		EntryID:   entryID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// LeaderboardUpdatedEvent is emitted after rankings were regenerated from the ledger.
type LeaderboardUpdatedEvent struct {
	BaseEvent
	TotalStudents int `json:"total_students"`
	TopHours      int `json:"top_hours"`
}

// Payload implements Event interface.
func (e LeaderboardUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"total_students": e.TotalStudents,
		"top_hours":      e.TopHours,
	}
}

// NewLeaderboardUpdatedEvent creates a new LeaderboardUpdatedEvent.
func NewLeaderboardUpdatedEvent(totalStudents, topHours int) LeaderboardUpdatedEvent {
	return LeaderboardUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventLeaderboardUpdated, "leaderboard"),
		TotalStudents: totalStudents,
		TopHours:      topHours,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
