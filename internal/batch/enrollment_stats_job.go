package batch

import (
	"context"
	"enrollment-api/internal/domain/customer"
	"enrollment-api/internal/infrastructure/monitoring"
	"fmt"
	"log/slog"
	"time"
)

// StatsSource is the slice of the customer service the job reads from.
type StatsSource interface {
	EnrollmentStats(ctx context.Context) (*customer.EnrollmentStats, error)
}

// RefreshEnrollmentStatsJob copies enrollment counts into the Prometheus gauges.
type RefreshEnrollmentStatsJob struct {
	source StatsSource
	logger *slog.Logger
}

func NewRefreshEnrollmentStatsJob(source StatsSource, logger *slog.Logger) *RefreshEnrollmentStatsJob {
	if source == nil || logger == nil {
		panic("RefreshEnrollmentStatsJob dependencies cannot be nil")
	}
	return &RefreshEnrollmentStatsJob{
		source: source,
		logger: logger.With("job", "RefreshEnrollmentStats"),
	}
}

func (j *RefreshEnrollmentStatsJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting enrollment stats refresh job.")

	stats, err := j.source.EnrollmentStats(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to load enrollment stats, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to load enrollment stats: %w", err)
	}

	counts := map[customer.EnrollmentStatus]int64{
		customer.StatusPending:    stats.Pending,
		customer.StatusInProgress: stats.InProgress,
		customer.StatusCompleted:  stats.Completed,
		customer.StatusRejected:   stats.Rejected,
		customer.StatusCancelled:  stats.Cancelled,
	}
	for status, count := range counts {
		monitoring.SetEnrollmentGauge(string(status), count)
	}
	monitoring.SetMFAEnabledCustomers(stats.MFAEnabled)

	j.logger.InfoContext(ctx, "Enrollment stats refresh job finished.",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int64("total", stats.Total),
		slog.Int64("mfa_enabled", stats.MFAEnabled),
	)
	return nil
}
