// Package job runs background work on Asynq: the nightly overdue-task
// move, periodic store reconciliation, and the weekly report emails.
package job

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/calendar-todo/backend/internal/config"
)

// JobService holds the Asynq client for enqueueing, the worker server,
// and the scheduler that emits the recurring tasks.
type JobService struct {
	Client *asynq.Client

	server    *asynq.Server
	scheduler *asynq.Scheduler
	logger    *zerolog.Logger
}

// NewJobService creates a JobService backed by the same Redis deployment
// as the store. Queue weights give urgent work most of the workers.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	scheduler := asynq.NewScheduler(redisOpt, nil)

	return &JobService{
		Client:    client,
		server:    server,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start registers handlers, begins processing, and schedules the
// recurring tasks. deps is implemented by the service layer.
func (j *JobService) Start(deps Handlers) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskAutoMove, j.handleAutoMoveTask(deps))
	mux.HandleFunc(TaskReconcile, j.handleReconcileTask(deps))
	mux.HandleFunc(TaskWeeklyReport, j.handleWeeklyReportTask(deps))
	mux.HandleFunc(TaskWelcome, j.handleWelcomeEmailTask(deps))

	j.logger.Info().Msg("starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}
	return j.startSchedules()
}

// startSchedules registers the recurring tasks. Cron expressions are in
// server-local time.
func (j *JobService) startSchedules() error {
	schedules := []struct {
		spec string
		task *asynq.Task
	}{
		{"5 0 * * *", NewAutoMoveTask()},       // just past midnight
		{"0 3 * * *", NewReconcileTask()},      // quiet hours
		{"0 8 * * 1", NewWeeklyReportTask()},   // monday morning
	}

	for _, s := range schedules {
		if _, err := j.scheduler.Register(s.spec, s.task); err != nil {
			return err
		}
	}
	return j.scheduler.Start()
}

// Stop gracefully stops the scheduler and worker server and closes the
// enqueue client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.scheduler.Shutdown()
	j.server.Shutdown()
	j.Client.Close()
}
