package main

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
	"github.com/sellerdesk/taskd/internal/config"
	"github.com/sellerdesk/taskd/internal/service"
)

const janitorJobName = "clear_finished_tasks"

// setupJanitor schedules a job that removes finished tasks every
// cfg.Interval. The returned scheduler is not started.
func setupJanitor(
	tasks service.TaskService,
	cfg config.JanitorConfig,
	logger *slog.Logger,
) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	log := logger.With("component", "janitor")
	_, err = s.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(func() {
			removed := tasks.ClearCompleted()
			log.Debug("janitor sweep finished", "removed_count", removed)
		}),
		gocron.WithName(janitorJobName),
		gocron.WithTags("janitor"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule janitor job: %w", err)
	}

	log.Info("janitor scheduled", "interval", cfg.Interval.String())
	return s, nil
}
