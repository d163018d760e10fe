package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateReservation OutboxAggregateType = "reservation"
	AggregateProperty    OutboxAggregateType = "property"
	AggregateUser        OutboxAggregateType = "user"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateReservation,
	AggregateProperty,
	AggregateUser,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventReservationUnlocked OutboxEventType = "reservation_unlocked"
	EventReservationRefunded OutboxEventType = "reservation_refunded"
	EventReservationOversold OutboxEventType = "reservation_oversold"
	EventPropertyCreated     OutboxEventType = "property_created"
	EventPropertyVerified    OutboxEventType = "property_verified"
)

var validOutboxEventTypes = []OutboxEventType{
	EventReservationUnlocked,
	EventReservationRefunded,
	EventReservationOversold,
	EventPropertyCreated,
	EventPropertyVerified,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason maps to the outbox_dlq_error_reason enum in Postgres.
type OutboxDLQErrorReason string

const (
	DLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	DLQReasonUnroutable   OutboxDLQErrorReason = "unroutable"
	DLQReasonBadPayload   OutboxDLQErrorReason = "bad_payload"
	DLQReasonPublishError OutboxDLQErrorReason = "publish_error"
)

var validDLQErrorReasons = []OutboxDLQErrorReason{
	DLQReasonMaxAttempts,
	DLQReasonUnroutable,
	DLQReasonBadPayload,
	DLQReasonPublishError,
}

// IsValid reports whether the value matches the canonical DLQ error reason enum.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
