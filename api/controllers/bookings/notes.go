package bookings

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tandemflight-backend/api/responses"
	"github.com/angelmondragon/tandemflight-backend/api/validators"
	"github.com/angelmondragon/tandemflight-backend/internal/notes"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

// ListNotes returns every note, pinned first.
func ListNotes(svc notes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notes service unavailable"))
			return
		}
		bookingID, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListNotes(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newNoteResponses(list))
	}
}

// NoteHighlights returns the notes shown on the booking card.
func NoteHighlights(svc notes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notes service unavailable"))
			return
		}
		bookingID, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.Highlights(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newNoteResponses(list))
	}
}

// AddNote attaches a note authored by the caller.
func AddNote(svc notes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notes service unavailable"))
			return
		}
		bookingID, actor, ok := mutationTarget(w, r, logg)
		if !ok {
			return
		}

		var req addNoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		noteType := enums.NoteTypeInfo
		if raw := strings.TrimSpace(req.Type); raw != "" {
			parsed, err := enums.ParseNoteType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid note type"))
				return
			}
			noteType = parsed
		}

		note, err := svc.AddNote(r.Context(), notes.Input{
			BookingID: bookingID,
			Text:      req.Text,
			Type:      noteType,
			Pinned:    req.Pinned,
			Author:    actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newNoteResponse(*note))
	}
}

// PinNote pins or unpins a note.
func PinNote(svc notes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notes service unavailable"))
			return
		}
		bookingID, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		noteID, err := pathUUID(r, "noteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req pinNoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		note, err := svc.TogglePin(r.Context(), bookingID, noteID, req.Pinned)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newNoteResponse(*note))
	}
}

// DeleteNote removes a note.
func DeleteNote(svc notes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notes service unavailable"))
			return
		}
		bookingID, err := pathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		noteID, err := pathUUID(r, "noteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteNote(r.Context(), bookingID, noteID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
