package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sznuper/hostwatch/internal/runner"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the hostwatch configuration and notification target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		n := runner.NewNotifier(s.cfg)
		if err := n.Validate(); err != nil {
			return fmt.Errorf("notification target: %w", err)
		}

		th := s.cfg.Thresholds
		fmt.Printf("✓ Config OK for %s\n", s.cfg.Hostname)
		fmt.Printf("  Notify via: %s\n", n.Target().ServiceName)
		fmt.Printf("  Thresholds: cpu > %g%%, root free < %g%%, storage free < %g%% (%s), memory < %gMB\n",
			th.CPUPercent, th.DiskMinFreePercent, th.StorageMinFreePercent, s.cfg.Probes.StoragePath, th.MemoryMinMB)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
