package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sznuper/hostwatch/internal/check"
	"github.com/sznuper/hostwatch/internal/config"
	"github.com/sznuper/hostwatch/internal/notify"
)

// PolicyNotifyOnlyOnViolation is the only reporting policy: a healthy run
// makes no notifier call and writes nothing.
const PolicyNotifyOnlyOnViolation = "notify-only-on-violation"

// Notifier delivers an aggregated report. Any error is a terminal failure
// for the run; it is never retried.
type Notifier interface {
	Notify(ctx context.Context, r notify.Report) error
}

// Validator is implemented by notifiers that can check their target without
// sending, used by dry runs.
type Validator interface {
	Validate() error
}

// Runner orchestrates the evaluate → report → notify pipeline.
type Runner struct {
	cfg      *config.Config
	checks   []check.Check
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Runner. cfg is read, never modified.
func New(cfg *config.Config, checks []check.Check, notifier Notifier, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		checks:   checks,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one evaluation cycle and sends at most one notification.
func (r *Runner) Run(ctx context.Context, dryRun bool) Result {
	log := r.logger.With("host", r.cfg.Hostname)
	start := time.Now()

	result := Result{
		Hostname: r.cfg.Hostname,
		DryRun:   dryRun,
	}

	// Stage 1: Evaluate every check once.
	log.Debug("evaluating checks", "count", len(r.checks))
	ev := check.Evaluate(ctx, r.checks, r.logger)
	result.Checks = ev.Results
	result.Violations = ev.Violations

	if ev.Healthy() {
		result.State = StateHealthy
		result.Duration = time.Since(start)
		log.Debug("all checks passed", "policy", PolicyNotifyOnlyOnViolation, "duration", result.Duration)
		return result
	}
	log.Info("violations detected", "count", len(ev.Violations))

	// Stage 2: Build the aggregated report.
	data := notify.BuildTemplateData(r.cfg.Hostname, ev.Violations, r.now())
	report, _, err := notify.BuildReport(data, notify.Templates{
		Subject: r.cfg.Template.Subject,
		Body:    r.cfg.Template.Body,
	})
	if err != nil {
		return r.fail(log, result, start, "template", err)
	}
	result.Report = &report

	// Stage 3: Deliver once (or validate in dry-run).
	if dryRun {
		if v, ok := r.notifier.(Validator); ok {
			if err := v.Validate(); err != nil {
				return r.fail(log, result, start, "notify", err)
			}
		}
		result.State = StateDryRun
		result.Duration = time.Since(start)
		log.Info("would notify (dry-run)", "subject", report.Subject)
		return result
	}

	log.Info("sending notification", "subject", report.Subject)
	if err := r.deliver(ctx, report); err != nil {
		return r.fail(log, result, start, "notify", err)
	}

	result.State = StateNotified
	result.Duration = time.Since(start)
	log.Info("notification sent", "duration", result.Duration)
	return result
}

func (r *Runner) deliver(ctx context.Context, report notify.Report) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("notifier panicked: %v", rec)
		}
	}()
	return r.notifier.Notify(ctx, report)
}

func (r *Runner) fail(log *slog.Logger, result Result, start time.Time, stage string, err error) Result {
	result.State = StateNotifyFailed
	result.Err = err
	result.ErrStage = stage
	result.Duration = time.Since(start)
	log.Error(stage+" failed", "error", err)
	return result
}
