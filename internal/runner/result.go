package runner

import (
	"time"

	"github.com/sznuper/hostwatch/internal/check"
	"github.com/sznuper/hostwatch/internal/notify"
)

// State is the terminal state of one run.
type State string

const (
	StateHealthy      State = "healthy"
	StateNotified     State = "notified"
	StateNotifyFailed State = "notify_failed"
	StateDryRun       State = "dry_run"
)

// Result captures the outcome of one evaluation cycle. Errors are stored in
// Err/ErrStage rather than returned, so the caller always has something to
// display.
type Result struct {
	Hostname   string
	State      State
	Checks     []check.Result
	Violations []string
	Report     *notify.Report
	DryRun     bool
	Duration   time.Duration
	Err        error
	ErrStage   string // "template", "notify"
}

// ExitCode is 0 for a healthy run and 1 whenever a violation was found,
// whether or not the alert was delivered.
func (r Result) ExitCode() int {
	if len(r.Violations) > 0 || r.Err != nil {
		return 1
	}
	return 0
}
