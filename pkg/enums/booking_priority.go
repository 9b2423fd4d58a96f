package enums

// BookingPriority orders bookings on the admin board.
type BookingPriority string

const (
	BookingPriorityLow    BookingPriority = "low"
	BookingPriorityNormal BookingPriority = "normal"
	BookingPriorityHigh   BookingPriority = "high"
	BookingPriorityUrgent BookingPriority = "urgent"
)

var validBookingPriorities = []BookingPriority{
	BookingPriorityLow,
	BookingPriorityNormal,
	BookingPriorityHigh,
	BookingPriorityUrgent,
}

func (p BookingPriority) String() string {
	return string(p)
}

func (p BookingPriority) IsValid() bool {
	return oneOf(p, validBookingPriorities)
}

// ParseBookingPriority converts raw input into a BookingPriority.
func ParseBookingPriority(value string) (BookingPriority, error) {
	return parse("booking priority", validBookingPriorities, value)
}
