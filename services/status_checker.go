package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eytgaming/tournament-platform/models"
	"github.com/eytgaming/tournament-platform/repositories"
)

// StatusChecker advances tournaments whose schedule timestamps have passed.
// It runs on a ticker and every pass is idempotent: the repository only
// returns tournaments still sitting in a status their schedule says they
// should have left.
type StatusChecker struct {
	tournamentRepo repositories.TournamentRepository
	tournaments    *TournamentService
	completeGrace  time.Duration
	logger         *slog.Logger
}

func NewStatusChecker(
	tournamentRepo repositories.TournamentRepository,
	tournaments *TournamentService,
	completeGrace time.Duration,
	logger *slog.Logger,
) *StatusChecker {
	return &StatusChecker{
		tournamentRepo: tournamentRepo,
		tournaments:    tournaments,
		completeGrace:  completeGrace,
		logger:         logger,
	}
}

// RunOnce performs a single pass at the given time. A failure on one
// tournament never blocks the rest; it is logged and retried on the next
// tick because the tournament still matches the selection.
func (c *StatusChecker) RunOnce(ctx context.Context, now time.Time) {
	due, err := c.tournamentRepo.ListForAutoStatusUpdate(ctx, now)
	if err != nil {
		c.logger.Error("status checker query failed", slog.String("error", err.Error()))
		return
	}

	for _, tournament := range due {
		if err := c.advance(ctx, tournament, now); err != nil {
			c.logger.Error("automatic status update failed",
				slog.Int("tournament_id", tournament.ID),
				slog.String("status", string(tournament.Status)),
				slog.String("error", err.Error()))
		}
	}
}

func (c *StatusChecker) advance(ctx context.Context, tournament *models.Tournament, now time.Time) error {
	switch tournament.Status {
	case models.StatusDraft:
		return c.tournaments.applyTransition(ctx, tournament, models.StatusRegistration, false)

	case models.StatusRegistration:
		return c.tournaments.applyTransition(ctx, tournament, models.StatusCheckIn, false)

	case models.StatusCheckIn:
		err := c.tournaments.applyTransition(ctx, tournament, models.StatusInProgress, false)
		if errors.Is(err, ErrTournamentNotEnoughChecked) {
			// Too few showed up; the tournament waits in check_in for the
			// organizer to force a start or cancel.
			c.logger.Warn("tournament start deferred, not enough checked in",
				slog.Int("tournament_id", tournament.ID),
				slog.Int("checked_in", tournament.TotalCheckedIn),
				slog.Int("minimum", tournament.MinParticipants))
			return nil
		}
		return err

	case models.StatusInProgress:
		// The selection is on estimated_end alone; the grace period is
		// enforced here so a running final gets time to finish.
		if now.Before(tournament.EstimatedEnd.Add(c.completeGrace)) {
			return nil
		}
		return c.tournaments.applyTransition(ctx, tournament, models.StatusCompleted, false)

	default:
		return nil
	}
}

// Run ticks until the context is cancelled. Wired up in main next to the
// HTTP server.
func (c *StatusChecker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("status checker started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("status checker stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx, time.Now().UTC())
		}
	}
}
