package enums

// BookingStatus tracks where a reservation sits in its lifecycle.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusOnHold    BookingStatus = "on_hold"
	BookingStatusNoShow    BookingStatus = "no_show"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusOnHold,
	BookingStatusNoShow,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

// bookingTransitions lists the legal edges out of every non-terminal status.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusOnHold},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled, BookingStatusOnHold, BookingStatusNoShow},
	BookingStatusOnHold:    {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusNoShow:    {BookingStatusConfirmed, BookingStatusCancelled},
}

// BookingStatuses returns the canonical status ordering used by summaries.
func BookingStatuses() []BookingStatus {
	out := make([]BookingStatus, len(validBookingStatuses))
	copy(out, validBookingStatuses)
	return out
}

// String implements fmt.Stringer.
func (s BookingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BookingStatus.
func (s BookingStatus) IsValid() bool {
	return oneOf(s, validBookingStatuses)
}

// IsTerminal reports whether no further transitions are allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo reports whether next is a legal edge from s.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return oneOf(next, bookingTransitions[s])
}

// AllowedTransitions returns the statuses reachable from s in one step.
func (s BookingStatus) AllowedTransitions() []BookingStatus {
	edges := bookingTransitions[s]
	out := make([]BookingStatus, len(edges))
	copy(out, edges)
	return out
}

// HistoryAction maps the status to the history action recorded when a booking enters it.
func (s BookingStatus) HistoryAction() HistoryAction {
	switch s {
	case BookingStatusConfirmed:
		return HistoryActionConfirmed
	case BookingStatusCancelled:
		return HistoryActionCancelled
	case BookingStatusCompleted:
		return HistoryActionCompleted
	case BookingStatusOnHold:
		return HistoryActionOnHold
	case BookingStatusNoShow:
		return HistoryActionNoShow
	default:
		return ""
	}
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	return parse("booking status", validBookingStatuses, value)
}
