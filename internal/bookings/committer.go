package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tandemflight-backend/internal/history"
	dbpkg "github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/metrics"
	"github.com/angelmondragon/tandemflight-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type historyAppender interface {
	Append(ctx context.Context, tx *gorm.DB, booking *models.Booking, entry history.Entry) (*models.BookingHistory, error)
}

type changePublisher interface {
	Publish(ctx context.Context, booking *models.Booking, action string)
}

// Mutation is one optimistic read-validate-write cycle on a booking.
type Mutation struct {
	BookingID uuid.UUID
	Actor     types.Actor
	// ExpectedVersion, when set, must match the stored version at read time.
	ExpectedVersion *int64
	// Action labels metrics and the change feed when the change has no history entry.
	Action string
	Apply  func(ctx context.Context, booking *models.Booking) (*Change, error)
}

// Change is what Apply decided to write.
type Change struct {
	Updates map[string]any
	History *history.Entry
	// Finalize runs inside the transaction after the booking row and history
	// entry are written. An error rolls everything back.
	Finalize func(ctx context.Context, tx *gorm.DB, updated *models.Booking) error
}

// Committer runs mutations so that the conditional update, the history entry,
// the lifecycle event and any Finalize step commit together.
type Committer struct {
	repo    Repository
	tx      txRunner
	history historyAppender
	feed    changePublisher
	metrics *metrics.BookingMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewCommitter(repo Repository, tx txRunner, recorder historyAppender, feed changePublisher, m *metrics.BookingMetrics, logg *logger.Logger) (*Committer, error) {
	if repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("history recorder required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Committer{
		repo:    repo,
		tx:      tx,
		history: recorder,
		feed:    feed,
		metrics: m,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Commit executes m and returns the booking as committed.
func (c *Committer) Commit(ctx context.Context, m Mutation) (*models.Booking, error) {
	if m.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if m.Apply == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mutation has no apply step")
	}

	action := m.Action
	var updated *models.Booking
	err := c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := c.repo.WithTx(tx)
		booking, err := repo.FindByID(ctx, m.BookingID)
		if err != nil {
			return dbpkg.MapError(err, "booking not found", "load booking")
		}
		if m.ExpectedVersion != nil && *m.ExpectedVersion != booking.Version {
			return staleVersion(booking.Version)
		}

		change, err := m.Apply(ctx, booking)
		if err != nil {
			return err
		}
		if change == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "mutation produced no change")
		}
		if change.History != nil {
			action = string(change.History.Action)
		}

		updates := make(map[string]any, len(change.Updates)+2)
		for k, v := range change.Updates {
			updates[k] = v
		}
		if column, ok := m.Actor.Role.SeenColumn(); ok {
			updates[column] = true
		}
		updates["updated_at"] = c.now()

		ok, err := repo.UpdateVersioned(ctx, booking.ID, booking.Version, updates, change.History != nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
		}
		if !ok {
			return staleVersion(booking.Version)
		}

		updated, err = repo.FindByID(ctx, booking.ID)
		if err != nil {
			return dbpkg.MapError(err, "booking not found", "reload booking")
		}

		if change.History != nil {
			entry := *change.History
			if entry.Actor.Role == "" {
				entry.Actor = m.Actor
			}
			if _, err := c.history.Append(ctx, tx, updated, entry); err != nil {
				return err
			}
		}
		if change.Finalize != nil {
			if err := change.Finalize(ctx, tx, updated); err != nil {
				return err
			}
		}
		return nil
	})

	c.metrics.ObserveMutation(action, outcomeFor(err))
	if err != nil {
		return nil, err
	}

	logCtx := c.logg.WithBooking(ctx, updated.ID.String(), updated.Version)
	c.logg.Info(c.logg.WithField(logCtx, "action", action), "booking mutation committed")
	if c.feed != nil {
		c.feed.Publish(ctx, updated, action)
	}
	return updated, nil
}

func staleVersion(readVersion int64) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "booking was modified by someone else; refetch and retry").
		WithDetails(map[string]any{
			"reason":       pkgerrors.ConflictStaleVersion,
			"read_version": readVersion,
		})
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case pkgerrors.HasCode(err, pkgerrors.CodeConflict):
		return metrics.OutcomeConflict
	case pkgerrors.HasCode(err, pkgerrors.CodeValidation), pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
