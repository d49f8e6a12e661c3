package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sznuper/hostwatch/internal/check"
	"github.com/sznuper/hostwatch/internal/probe"
	"github.com/sznuper/hostwatch/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all checks once",
	Long:  "Runs every check once and sends one aggregated alert if any fails. Same as running hostwatch with no arguments. Use --dry-run to skip sending.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runOnce(cmd, dryRun)
	},
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "build the alert without sending it")
	rootCmd.AddCommand(runCmd)
}

// newSystem returns the host the checks sample.
var newSystem = func() probe.System { return probe.NewHost() }

// runOnce is the scheduled entry point: one evaluation, at most one
// notification, exit status 0 when healthy and 1 otherwise.
func runOnce(cmd *cobra.Command, dryRun bool) error {
	code, err := execute(cmd, newSystem(), interactive(), dryRun)
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

// execute runs the checks against sys and returns the process exit code.
// Output is written only when tty is set, so cron runs stay silent.
func execute(cmd *cobra.Command, sys probe.System, tty bool, dryRun bool) (int, error) {
	s, err := openSession(cmd)
	if err != nil {
		return 1, err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	if tty {
		printBanner(out, s.cfg.Hostname)
	}

	checks := check.Registry(s.cfg, sys)
	r := runner.New(s.cfg, checks, runner.NewNotifier(s.cfg), s.logger)
	res := r.Run(cmd.Context(), dryRun)

	if tty {
		printResult(out, res)
	}
	return res.ExitCode(), nil
}
