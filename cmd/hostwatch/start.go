package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/sznuper/hostwatch/internal/check"
	"github.com/sznuper/hostwatch/internal/config"
	"github.com/sznuper/hostwatch/internal/probe"
	"github.com/sznuper/hostwatch/internal/runner"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run checks on the configured cron schedule",
	Long: `Runs checks on schedule.cron for hosts without a system cron. Every tick is
an independent run; nothing is carried between runs. The config file is
watched and reloaded between runs.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	startCmd.Flags().String("schedule", "", "override schedule.cron")
	rootCmd.AddCommand(startCmd)
}

// scheduler owns the current config and re-registers the cron job when the
// schedule changes.
type scheduler struct {
	mu      sync.Mutex
	cmd     *cobra.Command
	cfg     *config.Config
	logger  *slog.Logger
	cron    *cron.Cron
	entryID cron.EntryID
	ctx     context.Context
	sys     probe.System
}

func runStart(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if sched, _ := cmd.Flags().GetString("schedule"); sched != "" {
		s.cfg.Schedule.Cron = sched
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc := &scheduler{
		cmd:    cmd,
		cfg:    s.cfg,
		logger: s.logger,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:    ctx,
		sys:    newSystem(),
	}
	if err := sc.schedule(s.cfg.Schedule.Cron); err != nil {
		return err
	}

	path, err := config.Locate(cfgFile)
	if err != nil {
		return err
	}
	if path != "" {
		stopWatch, err := sc.watch(path)
		if err != nil {
			return err
		}
		defer stopWatch()
	}

	sc.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.cfg.Schedule.Cron, "config", path)

	<-ctx.Done()
	<-sc.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

func (sc *scheduler) schedule(spec string) error {
	id, err := sc.cron.AddFunc(spec, sc.tick)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if sc.entryID != 0 {
		sc.cron.Remove(sc.entryID)
	}
	sc.entryID = id
	return nil
}

func (sc *scheduler) tick() {
	sc.mu.Lock()
	cfg := sc.cfg
	sc.mu.Unlock()

	checks := check.Registry(cfg, sc.sys)
	res := runner.New(cfg, checks, runner.NewNotifier(cfg), sc.logger).Run(sc.ctx, false)
	sc.logger.Info("run finished", "state", res.State, "violations", len(res.Violations), "duration", res.Duration)
}

func (sc *scheduler) reload(path string) {
	cfg, err := loadConfig(sc.cmd)
	if err != nil {
		sc.logger.Error("config reload failed, keeping previous config", "path", path, "error", err)
		return
	}
	if sched, _ := sc.cmd.Flags().GetString("schedule"); sched != "" {
		cfg.Schedule.Cron = sched
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if cfg.Schedule.Cron != sc.cfg.Schedule.Cron {
		if err := sc.schedule(cfg.Schedule.Cron); err != nil {
			sc.logger.Error("schedule change rejected, keeping previous config", "error", err)
			return
		}
	}
	sc.cfg = cfg
	sc.logger.Info("config reloaded", "path", path, "schedule", cfg.Schedule.Cron)
}

// watch reloads the config whenever path is written or replaced. The parent
// directory is watched because editors often swap the file.
func (sc *scheduler) watch(path string) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					sc.reload(abs)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				sc.logger.Warn("config watcher error", "error", err)
			}
		}
	}()

	return func() { w.Close() }, nil
}
