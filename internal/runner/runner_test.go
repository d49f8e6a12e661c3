package runner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/sznuper/hostwatch/internal/check"
	"github.com/sznuper/hostwatch/internal/config"
	"github.com/sznuper/hostwatch/internal/notify"
	"github.com/sznuper/hostwatch/internal/probe"
)

type countingNotifier struct {
	calls   int
	reports []notify.Report
	err     error
	panics  bool
}

func (n *countingNotifier) Notify(_ context.Context, r notify.Report) error {
	n.calls++
	n.reports = append(n.reports, r)
	if n.panics {
		panic("transport exploded")
	}
	return n.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Hostname = "test-host"
	return cfg
}

func fixed(name string, violated bool) check.Check {
	return check.Check{
		Name:    name,
		Message: name + " over limit",
		Probe: func(context.Context) probe.Outcome {
			return probe.Outcome{Violated: violated}
		},
	}
}

func TestRun_Healthy(t *testing.T) {
	n := &countingNotifier{}
	checks := []check.Check{fixed("cpu", false), fixed("disk", false), fixed("memory", false)}

	res := New(testConfig(), checks, n, testLogger()).Run(context.Background(), false)
	if res.State != StateHealthy {
		t.Errorf("state = %q, want %q", res.State, StateHealthy)
	}
	if n.calls != 0 {
		t.Errorf("notifier calls = %d, want 0", n.calls)
	}
	if res.Report != nil {
		t.Errorf("report = %+v, want nil", res.Report)
	}
	if res.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode())
	}
	if len(res.Checks) != 3 {
		t.Errorf("checks = %d, want 3", len(res.Checks))
	}
}

func TestRun_SingleViolation(t *testing.T) {
	n := &countingNotifier{}
	checks := []check.Check{fixed("CPU usage", true), fixed("disk", false)}

	res := New(testConfig(), checks, n, testLogger()).Run(context.Background(), false)
	if res.State != StateNotified {
		t.Errorf("state = %q, want %q", res.State, StateNotified)
	}
	if n.calls != 1 {
		t.Fatalf("notifier calls = %d, want 1", n.calls)
	}
	if got := n.reports[0].Subject; got != "[ALERT] 1 issue(s) detected" {
		t.Errorf("subject = %q", got)
	}
	if !strings.Contains(n.reports[0].Body, "- CPU usage over limit\n") {
		t.Errorf("body = %q, want violation line", n.reports[0].Body)
	}
	if !strings.Contains(n.reports[0].Body, "test-host") {
		t.Errorf("body = %q, want hostname", n.reports[0].Body)
	}
	if res.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", res.ExitCode())
	}
}

func TestRun_MultipleViolationsInOrder(t *testing.T) {
	n := &countingNotifier{}
	checks := []check.Check{fixed("a", true), fixed("b", false), fixed("c", true), fixed("d", true)}

	res := New(testConfig(), checks, n, testLogger()).Run(context.Background(), false)
	if n.calls != 1 {
		t.Fatalf("notifier calls = %d, want 1", n.calls)
	}
	r := n.reports[0]
	if !strings.Contains(r.Subject, "3") {
		t.Errorf("subject = %q, want count 3", r.Subject)
	}
	ia := strings.Index(r.Body, "- a over limit")
	ic := strings.Index(r.Body, "- c over limit")
	id := strings.Index(r.Body, "- d over limit")
	if ia < 0 || ic < ia || id < ic {
		t.Errorf("body lines out of order: %q", r.Body)
	}
	if strings.Contains(r.Body, "- b over limit") {
		t.Errorf("body contains passing check: %q", r.Body)
	}
	if len(res.Violations) != 3 {
		t.Errorf("violations = %v", res.Violations)
	}
}

func TestRun_NotifyFails(t *testing.T) {
	n := &countingNotifier{err: errors.New("535 authentication failed")}
	checks := []check.Check{fixed("cpu", true)}

	res := New(testConfig(), checks, n, testLogger()).Run(context.Background(), false)
	if n.calls != 1 {
		t.Errorf("notifier calls = %d, want exactly 1 (no retry)", n.calls)
	}
	if res.State != StateNotifyFailed {
		t.Errorf("state = %q, want %q", res.State, StateNotifyFailed)
	}
	if res.ErrStage != "notify" {
		t.Errorf("err_stage = %q, want notify", res.ErrStage)
	}
	if res.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", res.ExitCode())
	}
}

func TestRun_NotifierPanics(t *testing.T) {
	n := &countingNotifier{panics: true}
	res := New(testConfig(), []check.Check{fixed("cpu", true)}, n, testLogger()).Run(context.Background(), false)
	if n.calls != 1 {
		t.Errorf("notifier calls = %d, want 1", n.calls)
	}
	if res.Err == nil || res.State != StateNotifyFailed {
		t.Errorf("result = %+v, want notify failure", res)
	}
}

func TestRun_TemplateFails(t *testing.T) {
	cfg := testConfig()
	cfg.Template.Body = "{{.Broken"
	n := &countingNotifier{}

	res := New(cfg, []check.Check{fixed("cpu", true)}, n, testLogger()).Run(context.Background(), false)
	if res.ErrStage != "template" {
		t.Errorf("err_stage = %q, want template", res.ErrStage)
	}
	if n.calls != 0 {
		t.Errorf("notifier calls = %d, want 0", n.calls)
	}
	if res.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", res.ExitCode())
	}
}

func TestRun_DryRun(t *testing.T) {
	n := &countingNotifier{}
	res := New(testConfig(), []check.Check{fixed("cpu", true)}, n, testLogger()).Run(context.Background(), true)
	if n.calls != 0 {
		t.Errorf("notifier calls = %d, want 0 in dry run", n.calls)
	}
	if res.State != StateDryRun || res.Report == nil {
		t.Errorf("result = %+v, want dry-run with report", res)
	}
}

func TestRun_DryRunValidates(t *testing.T) {
	cfg := testConfig()
	cfg.Notify.URL = "nosuchservice://x"

	res := New(cfg, []check.Check{fixed("cpu", true)}, NewNotifier(cfg), testLogger()).Run(context.Background(), true)
	if res.Err == nil || res.ErrStage != "notify" {
		t.Errorf("result = %+v, want notify validation error", res)
	}
}

func TestRun_EndToEndLogger(t *testing.T) {
	cfg := testConfig()
	cfg.Notify.URL = "logger://"

	res := New(cfg, []check.Check{fixed("cpu", true)}, NewNotifier(cfg), testLogger()).Run(context.Background(), false)
	if res.Err != nil {
		t.Fatalf("unexpected error at stage %q: %v", res.ErrStage, res.Err)
	}
	if res.State != StateNotified {
		t.Errorf("state = %q, want %q", res.State, StateNotified)
	}
}

func TestNewNotifier_Email(t *testing.T) {
	cfg := testConfig()
	cfg.Email.User = "nas@example.com"
	cfg.Email.Password = "pw"

	target := NewNotifier(cfg).Target()
	if target.ServiceName != "smtp" {
		t.Errorf("service = %q, want smtp", target.ServiceName)
	}
	if !strings.HasPrefix(target.URL, "smtp://") || !strings.Contains(target.URL, "smtp.gmail.com:465") {
		t.Errorf("url = %q", target.URL)
	}
}
