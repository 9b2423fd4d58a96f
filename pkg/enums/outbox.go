package enums

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBooking      OutboxAggregateType = "booking"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBooking,
	AggregateNotification,
}

func (a OutboxAggregateType) IsValid() bool {
	return oneOf(a, validAggregateTypes)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBookingLifecycleRecorded OutboxEventType = "booking_lifecycle_recorded"
	EventNotificationRequested    OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBookingLifecycleRecorded,
	EventNotificationRequested,
}

func (e OutboxEventType) IsValid() bool {
	return oneOf(e, validOutboxEventTypes)
}
