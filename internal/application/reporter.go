package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-content-sync/internal/domain"
	"catalog-content-sync/internal/ports"

	"github.com/rs/zerolog"
)

// ErrorSummaryName is the snapshot written at the end of every run.
const ErrorSummaryName = "errors/error-summary"

// Reporter closes a run: it logs the summary, dumps the errors and stores
// the run report.
type Reporter struct {
	snapshots ports.SnapshotStore
	runs      ports.RunRepository
	logger    zerolog.Logger
}

// NewReporter creates a reporter. Either store may be nil.
func NewReporter(snapshots ports.SnapshotStore, runs ports.RunRepository, logger zerolog.Logger) *Reporter {
	return &Reporter{
		snapshots: snapshots,
		runs:      runs,
		logger:    logger.With().Str("component", "reporter").Logger(),
	}
}

// Finish completes report from the session results and persists it.
func (r *Reporter) Finish(ctx context.Context, s *Session, report *domain.RunReport) error {
	report.FinishedAt = time.Now().UTC()
	report.Summary = s.Tracker.Report()
	report.Results = report.Results[:0]
	report.Errors = make(map[string][]domain.ItemError)

	for _, res := range s.Results() {
		counts := res.Counts()
		report.Results = append(report.Results, counts)
		report.Errors[res.Family] = append([]domain.ItemError{}, res.ErrorList()...)

		r.logger.Info().
			Str("family", counts.Family).
			Int("created", counts.Created).
			Int("updated", counts.Updated).
			Int("skipped", counts.Skipped).
			Int("failed", counts.Failed).
			Msg("Sync summary")
	}

	r.logger.Info().
		Str("command", report.Command).
		Str("status", report.Status).
		Int("actions", report.Summary.Total).
		Int("success", report.Summary.Success).
		Int("failed", report.Summary.Failed).
		Int("pending", report.Summary.Pending).
		Int("skipped", report.Summary.Skipped).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Run finished")

	var errs []error
	if r.snapshots != nil {
		if err := r.snapshots.Persist(ctx, ErrorSummaryName, report.Errors); err != nil {
			errs = append(errs, fmt.Errorf("failed to write error summary: %w", err))
		}
	}
	if r.runs != nil {
		if err := r.runs.SaveRun(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("failed to save run: %w", err))
		}
	}
	return errors.Join(errs...)
}
