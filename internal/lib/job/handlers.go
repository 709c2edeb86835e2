package job

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
)

// Handlers is what the job handlers need from the service layer. The
// service layer implements it; keeping it an interface here avoids an
// import cycle between jobs and services.
type Handlers interface {
	MoveOverdueTodos(ctx context.Context) (int, error)
	ReconcileStore(ctx context.Context) error
	SendWeeklyReports(ctx context.Context) (int, error)
	SendWelcomeEmail(to, username string) error
}

func (j *JobService) handleAutoMoveTask(deps Handlers) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		moved, err := deps.MoveOverdueTodos(ctx)
		if err != nil {
			j.logger.Error().Err(err).Msg("auto-move run failed")
			return err
		}
		j.logger.Info().Int("moved", moved).Msg("auto-move run complete")
		return nil
	}
}

func (j *JobService) handleReconcileTask(deps Handlers) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := deps.ReconcileStore(ctx); err != nil {
			j.logger.Error().Err(err).Msg("reconciliation run failed")
			return err
		}
		j.logger.Info().Msg("reconciliation run complete")
		return nil
	}
}

func (j *JobService) handleWeeklyReportTask(deps Handlers) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		sent, err := deps.SendWeeklyReports(ctx)
		if err != nil {
			j.logger.Error().Err(err).Int("sent", sent).Msg("weekly report run failed")
			return err
		}
		j.logger.Info().Int("sent", sent).Msg("weekly report run complete")
		return nil
	}
}

func (j *JobService) handleWelcomeEmailTask(deps Handlers) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p WelcomeEmailPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return errors.Wrap(err, "unmarshal welcome email payload")
		}

		if err := deps.SendWelcomeEmail(p.To, p.Username); err != nil {
			j.logger.Error().Str("to", p.To).Err(err).Msg("welcome email failed")
			return err
		}
		j.logger.Info().Str("to", p.To).Msg("welcome email sent")
		return nil
	}
}
