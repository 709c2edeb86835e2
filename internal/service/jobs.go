package service

import (
	"context"
	"time"

	"github.com/calendar-todo/backend/internal/lib/email"
	"github.com/calendar-todo/backend/internal/repository"
)

// The methods below implement job.Handlers, so the background workers run
// through the same service logic as the API.

// MoveOverdueTodos runs the nightly auto-move for every user that has the
// feature enabled. One user failing does not stop the rest.
func (s *Services) MoveOverdueTodos(ctx context.Context) (int, error) {
	users, err := s.repos.Users.FindAll(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, u := range users {
		settings, err := s.Settings.Get(ctx, u.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", u.ID).Msg("auto-move: could not load settings")
			continue
		}
		if !settings.Settings.AutoMoveTodos {
			continue
		}

		moved, err := s.Todos.MoveOverdueToToday(ctx, u.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", u.ID).Msg("auto-move: user run failed")
			continue
		}
		total += moved
	}
	return total, nil
}

// ReconcileStore repairs list and index drift across every entity type.
func (s *Services) ReconcileStore(ctx context.Context) error {
	runs := []struct {
		entity string
		run    func(context.Context) (repository.ReconcileReport, error)
	}{
		{"users", s.repos.Users.Reconcile},
		{"todos", s.repos.Todos.Reconcile},
		{"settings", s.repos.Settings.Reconcile},
	}

	for _, r := range runs {
		report, err := r.run(ctx)
		if err != nil {
			return err
		}
		s.log.Info().
			Str("entity", r.entity).
			Int("checked", report.Checked).
			Int("orphans", report.Orphans).
			Int("repaired", report.Repaired).
			Msg("reconciled entity type")
	}
	return nil
}

// SendWeeklyReports emails the weekly summary to every user subscribed to
// it. Returns how many were sent.
func (s *Services) SendWeeklyReports(ctx context.Context) (int, error) {
	users, err := s.repos.Users.FindAll(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	sent := 0
	for _, u := range users {
		settings, err := s.Settings.Get(ctx, u.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", u.ID).Msg("weekly report: could not load settings")
			continue
		}
		n := settings.Settings.Notifications
		if !n.Enabled || !n.WeeklyReport {
			continue
		}

		stats, err := s.Todos.Stats(ctx, u.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", u.ID).Msg("weekly report: could not compute stats")
			continue
		}
		added, err := s.repos.Todos.FindByOwnerAndDateRange(ctx, u.ID, weekAgo, now)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", u.ID).Msg("weekly report: could not load this week's todos")
			continue
		}

		report := email.WeeklyReport{
			Username:  u.Username,
			Added:     len(added),
			Completed: int(stats.Completed),
			Pending:   int(stats.Pending),
			Overdue:   stats.Overdue,
		}
		if err := s.email.SendWeeklyReportEmail(u.Email, report); err != nil {
			s.log.Warn().Err(err).Str("user_id", u.ID).Msg("weekly report: send failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// SendWelcomeEmail sends the welcome mail for the registration task.
func (s *Services) SendWelcomeEmail(to, username string) error {
	return s.email.SendWelcomeEmail(to, username)
}
