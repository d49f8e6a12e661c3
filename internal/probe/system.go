package probe

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// DiskUsage is the subset of filesystem statistics the probes read.
type DiskUsage struct {
	Total uint64
	Free  uint64
}

// System is the read-only OS surface sampled by the probes.
type System interface {
	CPUPercent(ctx context.Context, window time.Duration) (float64, error)
	DiskUsage(ctx context.Context, path string) (DiskUsage, error)
	AvailableMemory(ctx context.Context) (uint64, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
	Stat(path string) error
}

// Host samples the live machine through gopsutil.
type Host struct {
	Resolver *net.Resolver
}

// NewHost returns a Host using the default resolver.
func NewHost() *Host {
	return &Host{Resolver: net.DefaultResolver}
}

// CPUPercent blocks for window and returns the aggregate utilization over it.
func (h *Host) CPUPercent(ctx context.Context, window time.Duration) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errNoSample
	}
	return percents[0], nil
}

func (h *Host) DiskUsage(ctx context.Context, path string) (DiskUsage, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return DiskUsage{}, err
	}
	return DiskUsage{Total: u.Total, Free: u.Free}, nil
}

func (h *Host) AvailableMemory(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

func (h *Host) LookupHost(ctx context.Context, host string) ([]string, error) {
	return h.Resolver.LookupHost(ctx, host)
}

func (h *Host) Stat(path string) error {
	_, err := os.Stat(path)
	return err
}
