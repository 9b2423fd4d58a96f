package enums

// NotificationTemplate names the message rendered for a booking recipient.
type NotificationTemplate string

const (
	NotificationTemplateBookingRescheduled NotificationTemplate = "booking_rescheduled"
	NotificationTemplateBookingAssigned    NotificationTemplate = "booking_assigned"
	NotificationTemplateBookingRefunded    NotificationTemplate = "booking_refunded"
	NotificationTemplatePendingNudge       NotificationTemplate = "booking_pending_nudge"
)

var validNotificationTemplates = []NotificationTemplate{
	NotificationTemplateBookingRescheduled,
	NotificationTemplateBookingAssigned,
	NotificationTemplateBookingRefunded,
	NotificationTemplatePendingNudge,
}

// NotificationTemplates lists every renderable template.
func NotificationTemplates() []NotificationTemplate {
	return append([]NotificationTemplate(nil), validNotificationTemplates...)
}

// IsValid checks whether the given template matches the canonical enum.
func (n NotificationTemplate) IsValid() bool {
	return oneOf(n, validNotificationTemplates)
}

// RecipientRole is the party a booking notification is addressed to.
type RecipientRole string

const (
	RecipientCustomer RecipientRole = "customer"
	RecipientPilot    RecipientRole = "pilot"
	RecipientCompany  RecipientRole = "company"
)

// IsValid checks whether the role is a known recipient.
func (r RecipientRole) IsValid() bool {
	return r == RecipientCustomer || r == RecipientPilot || r == RecipientCompany
}
