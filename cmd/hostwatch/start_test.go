package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/sznuper/hostwatch/internal/probe"
)

// stubHost reports a healthy machine unless cpu is raised.
type stubHost struct{ cpu float64 }

func (s stubHost) CPUPercent(context.Context, time.Duration) (float64, error) { return s.cpu, nil }

func (stubHost) DiskUsage(context.Context, string) (probe.DiskUsage, error) {
	return probe.DiskUsage{Total: 100, Free: 60}, nil
}

func (stubHost) AvailableMemory(context.Context) (uint64, error) { return 8 << 30, nil }

func (stubHost) LookupHost(context.Context, string) ([]string, error) {
	return []string{"127.0.0.1"}, nil
}

func (stubHost) Stat(string) error { return nil }

const baseConfig = `hostname: nas-test
notify:
  url: logger://
probes:
  storage_path: /mnt/nas_storage
`

// useConfig points the CLI at a fresh config file and an empty home, and
// restores the package flags afterwards.
func useConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("NAS_EMAIL_USER", "")
	t.Setenv("NAS_EMAIL_PASS", "")
	t.Setenv("HOSTWATCH_NOTIFY_URL", "")

	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, content)

	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })
	return path
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("schedule", "", "")
	cmd.SetContext(context.Background())
	return cmd
}

func TestRootHealthyIsSilent(t *testing.T) {
	path := useConfig(t, baseConfig)

	prev := newSystem
	newSystem = func() probe.System { return stubHost{cpu: 10} }
	t.Cleanup(func() { newSystem = prev })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("stdout = %q, want nothing on a healthy run", out.String())
	}
}

func TestExecuteExitCodes(t *testing.T) {
	useConfig(t, baseConfig)
	cmd := testCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)

	code, err := execute(cmd, stubHost{cpu: 10}, false, true)
	if err != nil || code != 0 {
		t.Errorf("healthy: code=%d err=%v, want 0", code, err)
	}

	code, err = execute(cmd, stubHost{cpu: 99}, false, true)
	if err != nil || code != 1 {
		t.Errorf("cpu violation: code=%d err=%v, want 1", code, err)
	}
	if out.Len() != 0 {
		t.Errorf("stdout = %q, want nothing off a terminal", out.String())
	}
}

func TestExecuteConfigFailure(t *testing.T) {
	useConfig(t, "hostname: nas-test\n")

	code, err := execute(testCommand(), stubHost{}, false, true)
	if err == nil || code != 1 {
		t.Errorf("code=%d err=%v, want 1 with missing recipient error", code, err)
	}
}

func newTestScheduler(t *testing.T) *scheduler {
	t.Helper()
	cmd := testCommand()
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	sc := &scheduler{
		cmd:    cmd,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cron:   cron.New(),
		ctx:    context.Background(),
		sys:    stubHost{},
	}
	if err := sc.schedule(cfg.Schedule.Cron); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return sc
}

func TestSchedulerReload(t *testing.T) {
	path := useConfig(t, baseConfig)
	sc := newTestScheduler(t)
	firstID := sc.entryID

	writeConfig(t, path, baseConfig+"thresholds:\n  cpu_percent: 90\nschedule:\n  cron: \"0 * * * *\"\n")
	sc.reload(path)

	if sc.cfg.Schedule.Cron != "0 * * * *" {
		t.Errorf("cron = %q, want reloaded schedule", sc.cfg.Schedule.Cron)
	}
	if sc.cfg.Thresholds.CPUPercent != 90 {
		t.Errorf("cpu = %v, want 90", sc.cfg.Thresholds.CPUPercent)
	}
	if sc.entryID == firstID {
		t.Error("cron entry not re-registered")
	}
	entries := sc.cron.Entries()
	if len(entries) != 1 || entries[0].ID != sc.entryID {
		t.Errorf("entries = %d, want exactly the new one", len(entries))
	}
}

func TestSchedulerReloadKeepsPrevious(t *testing.T) {
	path := useConfig(t, baseConfig)
	sc := newTestScheduler(t)
	before := sc.cfg
	id := sc.entryID

	tests := []struct {
		name    string
		content string
	}{
		{"invalid threshold", baseConfig + "thresholds:\n  cpu_percent: 500\n"},
		{"invalid cron", baseConfig + "schedule:\n  cron: \"every now and then\"\n"},
		{"broken yaml", "hostname: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, path, tt.content)
			sc.reload(path)
			if sc.cfg != before {
				t.Error("config replaced despite reload failure")
			}
			if sc.entryID != id || len(sc.cron.Entries()) != 1 {
				t.Error("cron entry changed despite reload failure")
			}
		})
	}
}

func TestDiagnoseQuitCancelsEvaluation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newDiagnoseModel(ctx, cancel, "nas-test", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("expected quit command")
	}
	if !next.(diagnoseModel).cancelled {
		t.Error("model not marked cancelled")
	}
	if ctx.Err() == nil {
		t.Error("evaluation context still live after quit")
	}
}
