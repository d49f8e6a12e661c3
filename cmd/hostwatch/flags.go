package main

import (
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sznuper/hostwatch/internal/config"
)

// registerThresholdFlags adds a persistent --flag for every field in
// config.Thresholds, deriving the flag name from the yaml struct tag
// (snake_case → kebab-case).
func registerThresholdFlags(cmd *cobra.Command) {
	t := reflect.TypeOf(config.Thresholds{})
	for i := range t.NumField() {
		yamlTag := t.Field(i).Tag.Get("yaml")
		flagName := strings.ReplaceAll(yamlTag, "_", "-")
		cmd.PersistentFlags().Float64(flagName, 0, "override thresholds."+yamlTag)
	}
}

// applyThresholdFlags overlays CLI flag values onto the config. Only flags
// explicitly set by the user are applied.
func applyThresholdFlags(cmd *cobra.Command, cfg *config.Config) {
	t := reflect.TypeOf(cfg.Thresholds)
	v := reflect.ValueOf(&cfg.Thresholds).Elem()
	for i := range t.NumField() {
		yamlTag := t.Field(i).Tag.Get("yaml")
		flagName := strings.ReplaceAll(yamlTag, "_", "-")
		if cmd.Flags().Changed(flagName) {
			val, _ := cmd.Flags().GetFloat64(flagName)
			v.Field(i).SetFloat(val)
		}
	}
}
