package enums

// HistoryAction is the closed vocabulary of audit trail entries.
type HistoryAction string

const (
	HistoryActionCreated         HistoryAction = "created"
	HistoryActionConfirmed       HistoryAction = "confirmed"
	HistoryActionCancelled       HistoryAction = "cancelled"
	HistoryActionCompleted       HistoryAction = "completed"
	HistoryActionRescheduled     HistoryAction = "rescheduled"
	HistoryActionReassigned      HistoryAction = "reassigned"
	HistoryActionRefunded        HistoryAction = "refunded"
	HistoryActionOnHold          HistoryAction = "on_hold"
	HistoryActionNoShow          HistoryAction = "no_show"
	HistoryActionPaymentUpdated  HistoryAction = "payment_updated"
	HistoryActionPilotAssigned   HistoryAction = "pilot_assigned"
	HistoryActionCompanyAssigned HistoryAction = "company_assigned"
	HistoryActionDateChanged     HistoryAction = "date_changed"
	HistoryActionPriorityChanged HistoryAction = "priority_changed"
	HistoryActionTagsUpdated     HistoryAction = "tags_updated"
)

var validHistoryActions = []HistoryAction{
	HistoryActionCreated,
	HistoryActionConfirmed,
	HistoryActionCancelled,
	HistoryActionCompleted,
	HistoryActionRescheduled,
	HistoryActionReassigned,
	HistoryActionRefunded,
	HistoryActionOnHold,
	HistoryActionNoShow,
	HistoryActionPaymentUpdated,
	HistoryActionPilotAssigned,
	HistoryActionCompanyAssigned,
	HistoryActionDateChanged,
	HistoryActionPriorityChanged,
	HistoryActionTagsUpdated,
}

// HistoryActions lists every audit action.
func HistoryActions() []HistoryAction {
	return append([]HistoryAction(nil), validHistoryActions...)
}

// String implements fmt.Stringer.
func (a HistoryAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known HistoryAction.
func (a HistoryAction) IsValid() bool {
	return oneOf(a, validHistoryActions)
}
