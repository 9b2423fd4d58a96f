package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

type copyText struct {
	Title string
	Body  string
}

// Placeholders are {customer}, {date}, {old_date}, {location}, {flight},
// {amount} and {reason}. Locales without an entry fall back to English.
var catalog = map[enums.NotificationTemplate]map[enums.Locale]copyText{
	enums.NotificationTemplateBookingRescheduled: {
		enums.LocaleEN: {"Your flight was rescheduled", "Hi {customer}, your {flight} flight at {location} moved from {old_date} to {date}. Reason: {reason}"},
		enums.LocaleES: {"Tu vuelo ha sido reprogramado", "Hola {customer}, tu vuelo {flight} en {location} pasa del {old_date} al {date}. Motivo: {reason}"},
		enums.LocaleDE: {"Dein Flug wurde verschoben", "Hallo {customer}, dein {flight} Flug in {location} wurde vom {old_date} auf den {date} verschoben. Grund: {reason}"},
		enums.LocaleFR: {"Votre vol a été reprogrammé", "Bonjour {customer}, votre vol {flight} à {location} passe du {old_date} au {date}. Motif : {reason}"},
		enums.LocaleTR: {"Uçuşunuz yeniden planlandı", "Merhaba {customer}, {location} konumundaki {flight} uçuşunuz {old_date} tarihinden {date} tarihine alındı. Sebep: {reason}"},
	},
	enums.NotificationTemplateBookingAssigned: {
		enums.LocaleEN: {"New booking assigned", "{customer} flies {flight} at {location} on {date}."},
		enums.LocaleES: {"Nueva reserva asignada", "{customer} vuela {flight} en {location} el {date}."},
		enums.LocaleDE: {"Neue Buchung zugewiesen", "{customer} fliegt {flight} in {location} am {date}."},
		enums.LocaleFR: {"Nouvelle réservation attribuée", "{customer} vole {flight} à {location} le {date}."},
		enums.LocaleTR: {"Yeni rezervasyon atandı", "{customer}, {date} tarihinde {location} konumunda {flight} uçuşu yapacak."},
	},
	enums.NotificationTemplateBookingRefunded: {
		enums.LocaleEN: {"Refund issued", "Hi {customer}, we refunded {amount} for your flight on {date}."},
		enums.LocaleES: {"Reembolso emitido", "Hola {customer}, hemos reembolsado {amount} de tu vuelo del {date}."},
		enums.LocaleDE: {"Rückerstattung veranlasst", "Hallo {customer}, wir haben {amount} für deinen Flug am {date} erstattet."},
		enums.LocaleFR: {"Remboursement effectué", "Bonjour {customer}, nous avons remboursé {amount} pour votre vol du {date}."},
		enums.LocaleTR: {"İade yapıldı", "Merhaba {customer}, {date} tarihli uçuşunuz için {amount} iade edildi."},
	},
	enums.NotificationTemplatePendingNudge: {
		enums.LocaleEN: {"Booking still pending", "The booking of {customer} for {date} at {location} is still pending. Please confirm or cancel it."},
		enums.LocaleES: {"Reserva aún pendiente", "La reserva de {customer} para el {date} en {location} sigue pendiente. Confírmala o cancélala."},
		enums.LocaleDE: {"Buchung noch offen", "Die Buchung von {customer} für den {date} in {location} ist noch offen. Bitte bestätigen oder stornieren."},
		enums.LocaleFR: {"Réservation en attente", "La réservation de {customer} pour le {date} à {location} est toujours en attente. Merci de la confirmer ou de l'annuler."},
		enums.LocaleTR: {"Rezervasyon beklemede", "{customer} adlı müşterinin {date} tarihli {location} rezervasyonu hâlâ beklemede. Lütfen onaylayın ya da iptal edin."},
	},
}

// Render resolves the copy for template in locale and fills the placeholders.
func Render(template enums.NotificationTemplate, locale enums.Locale, params map[string]string, reason types.LocaleText) (string, string, error) {
	variants, ok := catalog[template]
	if !ok {
		return "", "", fmt.Errorf("unknown notification template %q", template)
	}
	text, ok := variants[locale]
	if !ok {
		text = variants[enums.FallbackLocale]
	}

	pairs := make([]string, 0, (len(params)+1)*2)
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", value)
	}
	reasonText := reason.Get(locale)
	if reasonText == "" {
		reasonText = "-"
	}
	pairs = append(pairs, "{reason}", reasonText)
	replacer := strings.NewReplacer(pairs...)
	return replacer.Replace(text.Title), strings.TrimSpace(replacer.Replace(text.Body)), nil
}
