package enums

// BookingSource records which channel created the booking.
type BookingSource string

const (
	BookingSourcePlatform BookingSource = "platform"
	BookingSourceCompany  BookingSource = "company"
	BookingSourcePilot    BookingSource = "pilot"
)

var validBookingSources = []BookingSource{
	BookingSourcePlatform,
	BookingSourceCompany,
	BookingSourcePilot,
}

// IsValid reports whether the value is a known BookingSource.
func (s BookingSource) IsValid() bool {
	return oneOf(s, validBookingSources)
}

// ContactMethod is the customer's preferred channel.
type ContactMethod string

const (
	ContactMethodPhone    ContactMethod = "phone"
	ContactMethodWhatsApp ContactMethod = "whatsapp"
	ContactMethodEmail    ContactMethod = "email"
	ContactMethodSMS      ContactMethod = "sms"
)

var validContactMethods = []ContactMethod{
	ContactMethodPhone,
	ContactMethodWhatsApp,
	ContactMethodEmail,
	ContactMethodSMS,
}

// IsValid reports whether the value is a known ContactMethod.
func (c ContactMethod) IsValid() bool {
	return oneOf(c, validContactMethods)
}
