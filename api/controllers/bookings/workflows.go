package bookings

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tandemflight-backend/api/responses"
	"github.com/angelmondragon/tandemflight-backend/api/validators"
	"github.com/angelmondragon/tandemflight-backend/internal/reassignment"
	"github.com/angelmondragon/tandemflight-backend/internal/refunds"
	"github.com/angelmondragon/tandemflight-backend/internal/reschedule"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

// Reassign moves the booking to another pilot or company.
func Reassign(svc reassignment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reassignment service unavailable"))
			return
		}
		bookingID, actor, ok := mutationTarget(w, r, logg)
		if !ok {
			return
		}

		var req reassignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pilotID, err := parseOptionalUUID(req.PilotID, "pilot_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		companyID, err := parseOptionalUUID(req.CompanyID, "company_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Reassign(r.Context(), reassignment.Input{
			BookingID:       bookingID,
			PilotID:         pilotID,
			CompanyID:       companyID,
			Reason:          req.Reason,
			ExpectedVersion: req.ExpectedVersion,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

// Reschedule moves the flight to a new date and optionally notifies the
// customer and the assigned pilot.
func Reschedule(svc reschedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reschedule service unavailable"))
			return
		}
		bookingID, actor, ok := mutationTarget(w, r, logg)
		if !ok {
			return
		}

		var req rescheduleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		newDate, err := parseDate(req.NewDate, "new_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Reschedule(r.Context(), reschedule.Input{
			BookingID:       bookingID,
			NewDate:         newDate,
			Reason:          req.Reason,
			Reasons:         localeText(req.Reasons),
			NotifyCustomer:  req.NotifyCustomer,
			NotifyPilot:     req.NotifyPilot,
			ExpectedVersion: req.ExpectedVersion,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookingResponse(booking))
	}
}

// Refund returns part or all of the deposit, optionally through the payment
// gateway.
func Refund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}
		bookingID, actor, ok := mutationTarget(w, r, logg)
		if !ok {
			return
		}

		var req refundRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refundType, err := enums.ParseRefundType(strings.TrimSpace(req.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "type must be full or partial").
				WithDetails(map[string]any{"field": "type"}))
			return
		}

		var amount int
		if refundType == enums.RefundTypePartial {
			if strings.TrimSpace(req.Amount) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount required for partial refunds").
					WithDetails(map[string]any{"field": "amount"}))
				return
			}
			parsed, err := parseAmount(req.Amount, "amount")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			amount = parsed
		}

		booking, err := svc.Refund(r.Context(), refunds.Input{
			BookingID:            bookingID,
			Type:                 refundType,
			AmountCents:          amount,
			Reason:               req.Reason,
			ProcessGatewayRefund: req.ProcessGatewayRefund,
			ExpectedVersion:      req.ExpectedVersion,
			Actor:                actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newBookingResponse(booking))
	}
}
