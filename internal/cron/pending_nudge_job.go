package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/internal/bookings"
	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

const (
	defaultNudgeAhead = 48 * time.Hour
	nudgeBatchSize    = 200
)

type pendingBookings interface {
	ListPendingBetween(ctx context.Context, from, to time.Time, limit int) ([]models.Booking, error)
}

type onceSender interface {
	SendOnce(ctx context.Context, tx *gorm.DB, msg notifications.Message) (bool, error)
}

type companyDirectory interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// PendingNudgeJobParams wires the nudge job. Companies resolves the recipient
// locale; without it nudges go out in English.
type PendingNudgeJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Bookings  pendingBookings
	Sender    onceSender
	Companies companyDirectory
	Ahead     time.Duration
}

// NewPendingNudgeJob reminds the assigned company about bookings still
// pending close to their flight day. Each booking is nudged at most once.
func NewPendingNudgeJob(params PendingNudgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	ahead := params.Ahead
	if ahead <= 0 {
		ahead = defaultNudgeAhead
	}
	return &pendingNudgeJob{
		logg:      params.Logger,
		db:        params.DB,
		bookings:  params.Bookings,
		sender:    params.Sender,
		companies: params.Companies,
		ahead:     ahead,
		now:       time.Now,
	}, nil
}

type pendingNudgeJob struct {
	logg      *logger.Logger
	db        txRunner
	bookings  pendingBookings
	sender    onceSender
	companies companyDirectory
	ahead     time.Duration
	now       func() time.Time
}

func (j *pendingNudgeJob) Name() string { return "pending-nudge" }

func (j *pendingNudgeJob) Run(ctx context.Context) (int64, error) {
	now := j.now().UTC()
	from := bookings.StartOfDay(now)
	to := now.Add(j.ahead)

	pending, err := j.bookings.ListPendingBetween(ctx, from, to, nudgeBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending bookings: %w", err)
	}

	var sent, skipped int64
	var errs error
	for i := range pending {
		booking := pending[i]
		if booking.CompanyID == nil {
			skipped++
			continue
		}
		msg := notifications.Message{
			BookingID:     booking.ID,
			Template:      enums.NotificationTemplatePendingNudge,
			RecipientRole: enums.RecipientCompany,
			RecipientID:   booking.CompanyID,
			Locale:        j.companyLocale(ctx, *booking.CompanyID),
			Params: map[string]string{
				"customer": booking.CustomerName,
				"date":     booking.SelectedDate.Format(time.DateOnly),
				"location": booking.LocationName,
				"flight":   booking.FlightTypeName,
			},
		}
		var queued bool
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var sendErr error
			queued, sendErr = j.sender.SendOnce(ctx, tx, msg)
			return sendErr
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("nudge booking %s: %w", booking.ID, err))
			continue
		}
		if queued {
			sent++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"window_start":    from,
		"window_end":      to,
		"pending":         len(pending),
		"nudges_sent":     sent,
		"without_company": skipped,
	})
	if errs != nil {
		return sent, fmt.Errorf("pending nudge: %w", errs)
	}
	j.logg.Info(logCtx, "pending booking nudges queued")
	return sent, nil
}

func (j *pendingNudgeJob) companyLocale(ctx context.Context, id uuid.UUID) enums.Locale {
	if j.companies == nil {
		return enums.FallbackLocale
	}
	company, err := j.companies.GetCompany(ctx, id)
	if err != nil || company == nil || !company.Locale.IsValid() {
		return enums.FallbackLocale
	}
	return company.Locale
}
