package main

import (
	"fmt"
	"io"

	"github.com/sznuper/hostwatch/internal/check"
	"github.com/sznuper/hostwatch/internal/runner"
	"github.com/sznuper/hostwatch/internal/style"
)

func printBanner(w io.Writer, hostname string) {
	fmt.Fprintln(w, style.Banner.Render("🔍 Running diagnostics on "+hostname+"..."))
}

func printChecks(w io.Writer, results []check.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "  %s  %s %s\n",
			style.Verdict(r.Outcome.Violated),
			style.Name.Render(r.Name),
			style.DimText.Render(r.Outcome.Observed),
		)
		if r.Outcome.Violated {
			fmt.Fprintf(w, "      %s\n", style.Warning.Render(r.Message))
		}
		if r.Outcome.Err != nil {
			fmt.Fprintf(w, "      %s\n", style.DimText.Render(fmt.Sprintf("(%s) %v", r.Outcome.Kind, r.Outcome.Err)))
		}
	}
}

func printResult(w io.Writer, res runner.Result) {
	printChecks(w, res.Checks)

	switch res.State {
	case runner.StateHealthy:
		fmt.Fprintln(w, style.SuccessBox.Render("🎉 All systems healthy. No alert sent."))
	case runner.StateNotified:
		fmt.Fprintln(w, style.ErrorBox.Render(fmt.Sprintf("%d issue(s) detected. Alert sent.", len(res.Violations))))
	case runner.StateDryRun:
		fmt.Fprintln(w, style.ErrorBox.Render(fmt.Sprintf("%d issue(s) detected. Dry run, would send %q.", len(res.Violations), res.Report.Subject)))
	case runner.StateNotifyFailed:
		fmt.Fprintln(w, style.ErrorBox.Render(fmt.Sprintf("%d issue(s) detected. Alert not delivered (%s stage).", len(res.Violations), res.ErrStage)))
	}
}
