package bookings

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/tandemflight-backend/api/responses"
	pkgerrors "github.com/angelmondragon/tandemflight-backend/pkg/errors"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
)

const defaultHeartbeat = 25 * time.Second

// ChangeSubscriber yields raw change events from the booking feed.
type ChangeSubscriber interface {
	Subscribe(ctx context.Context) (<-chan string, func() error, error)
}

// Stream relays booking change events to the admin console as server-sent
// events until the client disconnects. Events are refetch hints only.
func Stream(feed ChangeSubscriber, heartbeat time.Duration, logg *logger.Logger) http.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if feed == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "change feed unavailable"))
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		ctx := r.Context()
		events, closeSub, err := feed.Subscribe(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to booking changes"))
			return
		}
		defer func() {
			if closeErr := closeSub(); closeErr != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", closeErr.Error()), "bookings.stream.close_failed")
			}
		}()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "retry: 5000\n\n")
		flusher.Flush()

		if logg != nil {
			logg.Info(ctx, "bookings.stream.opened")
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: booking.changed\ndata: %s\n\n", payload)
				flusher.Flush()
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
