package check

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sznuper/hostwatch/internal/probe"
)

// Result is the outcome of a single check within one evaluation pass.
type Result struct {
	Name     string
	Message  string
	Outcome  probe.Outcome
	Duration time.Duration
}

// Evaluation holds every check result and the ViolationSet: the messages of
// violating checks, in registry order.
type Evaluation struct {
	Results    []Result
	Violations []string
}

// Healthy reports whether no check was in violation.
func (e Evaluation) Healthy() bool { return len(e.Violations) == 0 }

// Evaluate runs each check's probe exactly once, sequentially, in order.
// A probe that panics counts as a violation and does not stop the pass.
func Evaluate(ctx context.Context, checks []Check, logger *slog.Logger) Evaluation {
	ev := Evaluation{Results: make([]Result, 0, len(checks))}

	for _, c := range checks {
		log := logger.With("check", c.Name)
		start := time.Now()
		out := runProbe(ctx, c.Probe)
		res := Result{
			Name:     c.Name,
			Message:  c.Message,
			Outcome:  out,
			Duration: time.Since(start),
		}
		ev.Results = append(ev.Results, res)

		switch {
		case out.Kind == probe.KindUnexpected:
			log.Error("probe failed", "error", out.Err)
		case out.Err != nil:
			log.Warn("probe could not read metric", "kind", out.Kind, "error", out.Err)
		default:
			log.Debug("probe sampled", "observed", out.Observed, "violated", out.Violated, "duration", res.Duration)
		}

		if out.Violated {
			ev.Violations = append(ev.Violations, c.Message)
		}
	}

	return ev
}

func runProbe(ctx context.Context, p probe.Probe) (out probe.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = probe.Outcome{
				Violated: true,
				Observed: "panic",
				Err:      fmt.Errorf("probe panicked: %v", r),
				Kind:     probe.KindUnexpected,
			}
		}
	}()
	return p(ctx)
}
