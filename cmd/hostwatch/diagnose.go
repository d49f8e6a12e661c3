package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sznuper/hostwatch/internal/check"
	"github.com/sznuper/hostwatch/internal/config"
	"github.com/sznuper/hostwatch/internal/logging"
	"github.com/sznuper/hostwatch/internal/style"
)

var diagnoseCmd = &cobra.Command{
	Use:     "diagnose",
	Short:   "Evaluate all checks and show observed values without alerting",
	Aliases: []string{"doctor"},
	Args:    cobra.NoArgs,
	RunE:    runDiagnose,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	checks := check.Registry(s.cfg, newSystem())

	var ev check.Evaluation
	if interactive() {
		// Records written to the terminal would tear the spinner view, so
		// they are held until the program exits.
		var held bytes.Buffer
		logger := s.logger
		if s.cfg.Log.File == "" {
			logger, _, err = logging.New(config.Log{Level: s.cfg.Log.Level}, &held)
			if err != nil {
				return err
			}
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		m := newDiagnoseModel(ctx, cancel, s.cfg.Hostname, checks, logger)
		final, err := tea.NewProgram(m).Run()
		if err != nil {
			return err
		}
		dm := final.(diagnoseModel)
		if dm.cancelled {
			return fmt.Errorf("diagnose cancelled")
		}
		_, _ = os.Stderr.Write(held.Bytes())
		ev = dm.eval
	} else {
		ev = check.Evaluate(cmd.Context(), checks, s.logger)
		printChecks(os.Stdout, ev.Results)
	}

	if !ev.Healthy() {
		return fmt.Errorf("%d check(s) in violation", len(ev.Violations))
	}
	return nil
}

// --- Messages ---

type evalDone struct{ eval check.Evaluation }

// --- Model ---

type diagnoseModel struct {
	ctx       context.Context
	cancel    context.CancelFunc
	hostname  string
	checks    []check.Check
	logger    *slog.Logger
	spinner   spinner.Model
	eval      check.Evaluation
	done      bool
	cancelled bool
	startTime time.Time
}

func newDiagnoseModel(ctx context.Context, cancel context.CancelFunc, hostname string, checks []check.Check, logger *slog.Logger) diagnoseModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(style.Primary)

	return diagnoseModel{
		ctx:       ctx,
		cancel:    cancel,
		hostname:  hostname,
		checks:    checks,
		logger:    logger,
		spinner:   sp,
		startTime: time.Now(),
	}
}

func (m diagnoseModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.evaluate())
}

func (m diagnoseModel) evaluate() tea.Cmd {
	return func() tea.Msg {
		return evalDone{eval: check.Evaluate(m.ctx, m.checks, m.logger)}
	}
}

func (m diagnoseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.cancelled = true
			m.cancel()
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case evalDone:
		m.eval = msg.eval
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m diagnoseModel) View() string {
	var b strings.Builder
	b.WriteString(style.Banner.Render("🔍 " + m.hostname))
	b.WriteString("\n")

	if !m.done {
		elapsed := time.Since(m.startTime).Truncate(100 * time.Millisecond)
		b.WriteString(m.spinner.View() + style.DimText.Render(fmt.Sprintf(" Sampling %d checks... (%s)", len(m.checks), elapsed)))
		b.WriteString("\n")
		return b.String()
	}

	printChecks(&b, m.eval.Results)
	if m.eval.Healthy() {
		b.WriteString(style.SuccessBox.Render("All systems healthy"))
	} else {
		b.WriteString(style.ErrorBox.Render(fmt.Sprintf("%d issue(s) would be reported", len(m.eval.Violations))))
	}
	b.WriteString("\n")
	return b.String()
}
