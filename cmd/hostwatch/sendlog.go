package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sznuper/hostwatch/internal/notify"
	"github.com/sznuper/hostwatch/internal/runner"
)

var sendLogCmd = &cobra.Command{
	Use:   "send-log <subject> <logfile>",
	Short: "Send a log file through the configured notifier",
	Long:  "Lets shell scripts mail their log files. A missing log file is reported in the message body instead of failing.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		report := notify.Report{Subject: args[0], Body: logBody(args[1])}
		if err := runner.NewNotifier(s.cfg).Notify(cmd.Context(), report); err != nil {
			return fmt.Errorf("failed to email log: %w", err)
		}
		fmt.Println("✅ Log emailed successfully.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendLogCmd)
}

func logBody(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("⚠️ Error: Log file at %s could not be found.", path)
	}
	return string(data)
}
