package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/validator"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/worker"
)

const DefaultValidationTimeout = 2 * time.Minute

// Validator moves PENDING records to VALID or INVALID. Failures never
// escape; they end up in the record's failure reason.
type Validator struct {
	store    services.ObjectStore
	repo     storage.Repository
	registry *validator.Registry
	scanner  services.Scanner
	events   services.EventPublisher
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	persistAttempts int
	persistBackoff  time.Duration
}

type ValidatorOption func(*Validator)

// WithScanner runs an antivirus scan before structural validation.
func WithScanner(s services.Scanner) ValidatorOption {
	return func(v *Validator) { v.scanner = s }
}

func WithEvents(p services.EventPublisher) ValidatorOption {
	return func(v *Validator) {
		if p != nil {
			v.events = p
		}
	}
}

// WithTimeout bounds a single validation run.
func WithTimeout(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithPersistRetry sets how often loading and saving the record is retried
// on repository errors before the run gives up.
func WithPersistRetry(attempts int, backoff time.Duration) ValidatorOption {
	return func(v *Validator) {
		if attempts > 0 {
			v.persistAttempts = attempts
		}
		if backoff > 0 {
			v.persistBackoff = backoff
		}
	}
}

func NewValidator(store services.ObjectStore, repo storage.Repository, registry *validator.Registry, logger *slog.Logger, opts ...ValidatorOption) *Validator {
	v := &Validator{
		store:    store,
		repo:     repo,
		registry: registry,
		events:   services.NopPublisher{},
		timeout:  DefaultValidationTimeout,
		logger:   logger.With("component", "validator"),
		now:      time.Now,

		persistAttempts: DefaultPersistAttempts,
		persistBackoff:  DefaultPersistBackoff,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Job wraps Validate for the worker pool.
func (v *Validator) Job(fileID string) worker.Job {
	return func(ctx context.Context) {
		v.Validate(ctx, fileID)
	}
}

// Validate runs the strategy matching the record's file name against the
// stored content and persists the outcome.
func (v *Validator) Validate(ctx context.Context, fileID string) {
	logger := v.logger.With("file_id", fileID)

	var rec *models.FileRecord
	err := retry(ctx, v.persistAttempts, v.persistBackoff, isFinal, func() error {
		var err error
		if rec, err = v.repo.FindByID(ctx, fileID); err != nil && !isFinal(err) {
			logger.Warn("failed to load file record, retrying", "error", err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Error("file record not found, skipping validation")
		} else {
			logger.Error("failed to load file record, left PENDING for recovery", "error", err)
		}
		return
	}
	if rec.Status.IsTerminal() {
		logger.Info("file already validated, skipping", "status", rec.Status)
		return
	}

	start := time.Now()
	result := v.check(ctx, rec)
	validationDuration.Observe(time.Since(start).Seconds())

	if result.Valid {
		err = rec.Complete(v.now())
	} else {
		err = rec.Fail(result.ErrorMessage, v.now())
	}
	if err != nil {
		logger.Error("invalid transition", "error", err)
		return
	}

	err = retry(ctx, v.persistAttempts, v.persistBackoff, isFinal, func() error {
		err := v.repo.UpdateStatus(ctx, rec)
		if err != nil && !isFinal(err) {
			logger.Warn("failed to persist validation result, retrying", "error", err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrAlreadyFinalized) {
			logger.Info("file finalized by another run, result discarded")
			return
		}
		logger.Error("failed to persist validation result, left PENDING for recovery", "error", err)
		return
	}

	validationsTotal.WithLabelValues(string(rec.Status)).Inc()
	if rec.Status == models.StatusValid {
		logger.Info("file validated", "status", rec.Status)
	} else {
		logger.Warn("file rejected", "status", rec.Status, "reason", rec.FailureReason)
	}

	if err := v.events.PublishEvent(services.SubjectFileValidated, services.NewFileEvent("validated", rec, v.now())); err != nil {
		logger.Warn("failed to publish validation event", "error", err)
	}
}

func (v *Validator) check(parent context.Context, rec *models.FileRecord) (result validator.Result) {
	ctx, cancel := context.WithTimeout(parent, v.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = validator.Failure(fmt.Sprintf("Unexpected error during validation: %v", r))
		}
	}()

	strategy, err := v.registry.Select(rec.OriginalName)
	if err != nil {
		return validator.Failure(err.Error())
	}

	if v.scanner != nil {
		if res, done := v.scan(ctx, rec); done {
			return res
		}
	}

	body, err := v.store.Get(ctx, rec.StorageKey)
	if err != nil {
		return validator.Failure(fmt.Sprintf("Error while fetching file: %v", err))
	}
	defer body.Close()

	result = strategy.Validate(&contextReader{ctx: ctx, r: body})
	if ctx.Err() != nil && parent.Err() == nil {
		return validator.Failure(fmt.Sprintf("Validation timed out after %s.", v.timeout))
	}
	return result
}

// scan reports done=true when the scan decided the outcome.
func (v *Validator) scan(ctx context.Context, rec *models.FileRecord) (validator.Result, bool) {
	body, err := v.store.Get(ctx, rec.StorageKey)
	if err != nil {
		return validator.Failure(fmt.Sprintf("Error while fetching file: %v", err)), true
	}
	defer body.Close()

	verdict, err := v.scanner.Scan(&contextReader{ctx: ctx, r: body})
	if err != nil {
		return validator.Failure(fmt.Sprintf("Virus scan failed: %v", err)), true
	}
	if !verdict.Clean {
		return validator.Failure("Virus detected: " + verdict.Signature), true
	}
	return validator.Result{}, false
}

// RecoverPending schedules validation for records a previous process left
// PENDING. Only records uploaded before uploadedBefore are considered, so
// uploads already queued by this process are never scheduled twice. A
// non-positive limit disables recovery. It stops at the first reservation
// failure.
func (v *Validator) RecoverPending(ctx context.Context, pool *worker.Pool, uploadedBefore time.Time, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}
	pending, err := v.repo.ListPending(ctx, uploadedBefore, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending records: %w", err)
	}

	scheduled := 0
	for _, rec := range pending {
		ticket, err := pool.Reserve(ctx)
		if err != nil {
			return scheduled, fmt.Errorf("schedule %s: %w", rec.ID, err)
		}
		ticket.Submit(v.Job(rec.ID))
		scheduled++
	}

	if scheduled > 0 {
		v.logger.Info("rescheduled pending files", "count", scheduled)
	}
	return scheduled, nil
}

// isFinal reports repository errors that retrying cannot change.
func isFinal(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || errors.Is(err, models.ErrAlreadyFinalized)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
