package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

// CPU reports a violation when utilization averaged over window exceeds
// limit percent. It is the only probe that deliberately blocks.
func CPU(sys System, window time.Duration, limit float64) Probe {
	return func(ctx context.Context) Outcome {
		pct, err := sys.CPUPercent(ctx, window)
		if err != nil {
			return Fail(fmt.Errorf("sampling cpu: %w", err))
		}
		return Outcome{
			Violated: pct > limit,
			Observed: fmt.Sprintf("%.1f%% used", pct),
		}
	}
}

// DiskFree reports a violation when the filesystem holding path has less
// than minFree percent free.
func DiskFree(sys System, path string, minFree float64) Probe {
	return func(ctx context.Context) Outcome {
		return freeSpace(ctx, sys, path, minFree)
	}
}

// MountFree is DiskFree for a mount that may be absent. A missing path is a
// violation, not a skip.
func MountFree(sys System, path string, minFree float64) Probe {
	return func(ctx context.Context) Outcome {
		if err := sys.Stat(path); err != nil {
			out := Fail(fmt.Errorf("stat %s: %w", path, err))
			out.Observed = "missing"
			return out
		}
		return freeSpace(ctx, sys, path, minFree)
	}
}

func freeSpace(ctx context.Context, sys System, path string, minFree float64) Outcome {
	u, err := sys.DiskUsage(ctx, path)
	if err != nil {
		return Fail(fmt.Errorf("disk usage of %s: %w", path, err))
	}
	if u.Total == 0 {
		return Fail(fmt.Errorf("disk usage of %s: %w", path, errZeroTotal))
	}

	pct := float64(u.Free) / float64(u.Total) * 100
	return Outcome{
		Violated: pct < minFree,
		Observed: fmt.Sprintf("%.1f%% free", pct),
	}
}

// Memory reports a violation when available memory drops below floorMB
// megabytes.
func Memory(sys System, floorMB float64) Probe {
	floor := uint64(floorMB * 1024 * 1024)
	return func(ctx context.Context) Outcome {
		avail, err := sys.AvailableMemory(ctx)
		if err != nil {
			return Fail(fmt.Errorf("reading memory: %w", err))
		}
		return Outcome{
			Violated: avail < floor,
			Observed: fmt.Sprintf("%d MB available", avail/1024/1024),
		}
	}
}

// ResolveOptions configures the name-resolution probe.
type ResolveOptions struct {
	Host    string
	Timeout time.Duration
	// Strict additionally requires a loopback address among the results,
	// and Expect among them when set.
	Strict bool
	Expect string
}

// Resolution reports a violation when opts.Host cannot be resolved.
func Resolution(sys System, opts ResolveOptions) Probe {
	return func(ctx context.Context) Outcome {
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}

		addrs, err := sys.LookupHost(ctx, opts.Host)
		if err != nil {
			return Fail(fmt.Errorf("resolving %s: %w", opts.Host, err))
		}
		if len(addrs) == 0 {
			return Fail(fmt.Errorf("resolving %s: %w", opts.Host, errNoSample))
		}

		observed := fmt.Sprintf("%s -> %v", opts.Host, addrs)
		if !opts.Strict {
			return Outcome{Observed: observed}
		}

		switch {
		case !hasLoopback(addrs):
			return Outcome{Violated: true, Observed: observed + " (no loopback address)"}
		case opts.Expect != "" && !contains(addrs, opts.Expect):
			return Outcome{Violated: true, Observed: fmt.Sprintf("%s (%s missing)", observed, opts.Expect)}
		}
		return Outcome{Observed: observed}
	}
}

func hasLoopback(addrs []string) bool {
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.IsLoopback() {
			return true
		}
	}
	return false
}

func contains(addrs []string, want string) bool {
	wantIP := net.ParseIP(want)
	for _, a := range addrs {
		if a == want {
			return true
		}
		if ip := net.ParseIP(a); ip != nil && wantIP != nil && ip.Equal(wantIP) {
			return true
		}
	}
	return false
}
