package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-content-sync/internal/domain"

	"github.com/rs/zerolog"
)

// Task synchronises one family of records. An error returned from Run is a
// precondition failure and aborts the invocation; per-item failures belong in
// the returned result.
type Task interface {
	Name() string
	Run(ctx context.Context, s *Session) (*domain.SyncResult, error)
}

// Validator runs the live configuration checks.
type Validator interface {
	ValidateCatalog(ctx context.Context) error
	ValidateContent(ctx context.Context) error
}

// RunRequest selects the tasks of one invocation and the checks they need.
type RunRequest struct {
	Command string
	Tasks   []Task
	Catalog bool
	Content bool
}

// Run statuses stored on the report.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
	RunInvalid   = "invalid"
)

// Dispatcher validates the configuration, then runs tasks in order and
// reports the outcome.
type Dispatcher struct {
	validator Validator
	reporter  *Reporter
	logger    zerolog.Logger
}

func NewDispatcher(validator Validator, reporter *Reporter, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		validator: validator,
		reporter:  reporter,
		logger:    logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Run executes req against the session. The report is always returned, with
// the error of the first failed validation or task.
func (d *Dispatcher) Run(ctx context.Context, s *Session, req RunRequest) (*domain.RunReport, error) {
	report := &domain.RunReport{
		RunID:     s.ID,
		Command:   req.Command,
		Status:    RunCompleted,
		StartedAt: time.Now().UTC(),
	}
	for _, t := range req.Tasks {
		report.Tasks = append(report.Tasks, t.Name())
	}

	runErr := d.validate(ctx, req)
	if runErr != nil {
		report.Status = RunInvalid
	} else {
		runErr = d.runTasks(ctx, s, req.Tasks)
		if runErr != nil {
			report.Status = RunFailed
		}
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}

	if d.reporter != nil {
		if err := d.reporter.Finish(ctx, s, report); err != nil {
			d.logger.Error().Err(err).Msg("Failed to write run report")
		}
	}
	return report, runErr
}

func (d *Dispatcher) validate(ctx context.Context, req RunRequest) error {
	if d.validator == nil {
		return nil
	}
	if req.Catalog {
		if err := d.validator.ValidateCatalog(ctx); err != nil {
			return fmt.Errorf("failed to validate catalog configuration: %w", err)
		}
	}
	if req.Content {
		if err := d.validator.ValidateContent(ctx); err != nil {
			return fmt.Errorf("failed to validate content configuration: %w", err)
		}
	}
	return nil
}

func (d *Dispatcher) runTasks(ctx context.Context, s *Session, tasks []Task) error {
	for _, task := range tasks {
		name := task.Name()
		s.Transition(name, domain.StateInit)
		started := time.Now()

		result, err := task.Run(ctx, s)
		if result == nil {
			result = domain.NewSyncResult(name)
		}
		s.AddResult(result)

		if err != nil {
			s.Transition(name, domain.StateFailed)
			d.logger.Error().Err(err).Str("task", name).Msg("Task aborted")
			if !errors.Is(err, domain.ErrPrecondition) {
				err = fmt.Errorf("%w: %w", domain.ErrPrecondition, err)
			}
			return fmt.Errorf("task %s failed: %w", name, err)
		}

		s.Transition(name, domain.StateDone)
		counts := result.Counts()
		d.logger.Info().
			Str("task", name).
			Int("created", counts.Created).
			Int("updated", counts.Updated).
			Int("skipped", counts.Skipped).
			Int("failed", counts.Failed).
			Dur("duration", time.Since(started)).
			Msg("Task finished")
	}
	return nil
}
