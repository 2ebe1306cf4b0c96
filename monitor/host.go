package monitor

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

const bytesPerGB = 1 << 30

// SystemInfo describes the host.
type SystemInfo struct {
	Hostname          string  `json:"hostname"`
	OS                string  `json:"os"`
	Platform          string  `json:"platform"`
	KernelVersion     string  `json:"kernel_version"`
	CPUModel          string  `json:"cpu_model"`
	CPUCores          int     `json:"cpu_cores"`
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryTotalGB     float64 `json:"memory_total_gb"`
	MemoryAvailableGB float64 `json:"memory_available_gb"`
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	UptimeSeconds     uint64  `json:"uptime_seconds"`
}

// ProcessInfo describes one server process.
type ProcessInfo struct {
	PID           int32   `json:"pid"`
	User          string  `json:"user"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// GopsutilHost reads host statistics through gopsutil.
type GopsutilHost struct {
	// CPUSample is the window cpu.Percent measures over. Zero uses 500ms.
	CPUSample time.Duration
}

// System returns host, CPU and memory information.
func (h GopsutilHost) System(ctx context.Context) (SystemInfo, error) {
	info := SystemInfo{OS: runtime.GOOS, CPUCores: runtime.NumCPU()}

	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		return info, err
	}
	info.Hostname = hi.Hostname
	info.Platform = strings.TrimSpace(hi.Platform + " " + hi.PlatformVersion)
	info.KernelVersion = hi.KernelVersion
	info.UptimeSeconds = hi.Uptime

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}

	sample := h.CPUSample
	if sample <= 0 {
		sample = 500 * time.Millisecond
	}
	pct, err := cpu.PercentWithContext(ctx, sample, false)
	if err != nil {
		return info, err
	}
	if len(pct) > 0 {
		info.CPUPercent = pct[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return info, err
	}
	info.MemoryTotalGB = float64(vm.Total) / bytesPerGB
	info.MemoryAvailableGB = float64(vm.Available) / bytesPerGB
	info.MemoryUsedPercent = vm.UsedPercent
	return info, nil
}

// Processes lists processes whose name or command line contains match.
// Processes that exit or deny access while being read are skipped.
func (h GopsutilHost) Processes(ctx context.Context, match string) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var out []ProcessInfo
	for _, p := range procs {
		name, _ := p.NameWithContext(ctx)
		cmdline, _ := p.CmdlineWithContext(ctx)
		if !strings.Contains(name, match) && !strings.Contains(cmdline, match) {
			continue
		}
		// Skip the monitor itself when its own flags mention the match.
		if strings.Contains(name, "whisperx-monitor") {
			continue
		}

		info := ProcessInfo{PID: p.Pid, Name: name}
		info.User, _ = p.UsernameWithContext(ctx)
		info.CPUPercent, _ = p.CPUPercentWithContext(ctx)
		if m, err := p.MemoryPercentWithContext(ctx); err == nil {
			info.MemoryPercent = float64(m)
		}
		if created, err := p.CreateTimeWithContext(ctx); err == nil {
			info.UptimeSeconds = int64(now.Sub(time.UnixMilli(created)).Seconds())
		}
		out = append(out, info)
	}
	return out, nil
}
