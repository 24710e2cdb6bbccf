package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-registry/meridian-registry/internal/jobs"
	"github.com/meridian-registry/meridian-registry/internal/poll"
)

// PollDispatcher pushes pending poll messages out-of-band. Registrars still
// pull and ack through the API; dispatch is purely a courtesy notification
// and never mutates the queue.
type PollDispatcher struct {
	repo    poll.Repository
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
	now     func() time.Time
}

// NewPollDispatcher wires a dispatcher job.
func NewPollDispatcher(repo poll.Repository, logger *slog.Logger, metrics *jobmetrics.Metrics) *PollDispatcher {
	return &PollDispatcher{repo: repo, logger: logger, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (d *PollDispatcher) WithNow(now func() time.Time) {
	if now != nil {
		d.now = now
	}
}

// Handle processes one TaskTypePollDispatch task.
func (d *PollDispatcher) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := d.metrics.Track("poll_dispatch")
	return tracker.End(d.handle(ctx, t))
}

func (d *PollDispatcher) handle(ctx context.Context, t *asynq.Task) error {
	var payload PollDispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	messages, err := d.repo.ListPending(ctx, payload.RegistrarID, d.now())
	if err != nil {
		return err
	}
	for _, m := range messages {
		d.logger.Info("poll message pending",
			slog.String("registrar", m.RegistrarID),
			slog.String("message", m.ID.String()),
			slog.String("kind", string(m.Kind)),
			slog.String("target", m.TargetID))
	}
	return nil
}
