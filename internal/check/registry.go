package check

import (
	"fmt"

	"github.com/sznuper/hostwatch/internal/config"
	"github.com/sznuper/hostwatch/internal/probe"
)

// Check binds a probe to the description reported when it is in violation.
type Check struct {
	Name    string
	Message string
	Probe   probe.Probe
}

// Registry returns the fixed, ordered list of host checks. Order only
// affects how alerts read; checks do not depend on one another.
func Registry(cfg *config.Config, sys probe.System) []Check {
	th := cfg.Thresholds
	p := cfg.Probes

	resolveMsg := fmt.Sprintf("⚠️ Critical: %s DNS resolution failed", p.ResolveHost)
	if p.ResolveStrict {
		resolveMsg = fmt.Sprintf("⚠️ Critical: %s DNS resolution failed or resolved to an unexpected address", p.ResolveHost)
	}

	return []Check{
		{
			Name:    "cpu",
			Message: fmt.Sprintf("⚠️ Critical: CPU usage > %g%%", th.CPUPercent),
			Probe:   probe.CPU(sys, p.CPUWindow.Std(), th.CPUPercent),
		},
		{
			Name:    "root_disk",
			Message: fmt.Sprintf("⚠️ Critical: Root Disk Free < %g%%", th.DiskMinFreePercent),
			Probe:   probe.DiskFree(sys, p.RootPath, th.DiskMinFreePercent),
		},
		{
			Name:    "secondary_storage",
			Message: fmt.Sprintf("⚠️ Critical: Storage at %s Low (< %g%% or Missing)", p.StoragePath, th.StorageMinFreePercent),
			Probe:   probe.MountFree(sys, p.StoragePath, th.StorageMinFreePercent),
		},
		{
			Name:    "memory",
			Message: fmt.Sprintf("⚠️ Critical: RAM Free < %gMB", th.MemoryMinMB),
			Probe:   probe.Memory(sys, th.MemoryMinMB),
		},
		{
			Name:    "name_resolution",
			Message: resolveMsg,
			Probe: probe.Resolution(sys, probe.ResolveOptions{
				Host:    p.ResolveHost,
				Timeout: p.ResolveTimeout.Std(),
				Strict:  p.ResolveStrict,
				Expect:  p.ResolveExpect,
			}),
		},
	}
}
