package monitor

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jbousquie/whisperx-api/api"
)

const clearScreen = "\033[H\033[2J"

// FormatUptime renders seconds as "1d 2h 3m 4s", dropping leading zero units.
func FormatUptime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := seconds / 86400
	h := seconds % 86400 / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", d, h, m, s)
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// WriteJSON writes snap as indented JSON.
func WriteJSON(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// Dashboard renders snapshots as text.
type Dashboard struct {
	// Clear prefixes each render with an ANSI clear-screen sequence.
	Clear bool
	// Interval is shown in the footer of continuous renders.
	Interval time.Duration
}

// Render writes one dashboard frame.
func (d Dashboard) Render(w io.Writer, iteration int, snap *Snapshot) error {
	var b strings.Builder
	if d.Clear {
		b.WriteString(clearScreen)
	}
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\nWhisperX API monitor  %s", rule, snap.Timestamp.Format("2006-01-02 15:04:05"))
	if iteration > 0 && d.Clear {
		fmt.Fprintf(&b, "  (#%d)", iteration)
	}
	fmt.Fprintf(&b, "\n%s\n", rule)

	sys := snap.System
	b.WriteString("\nSYSTEM\n")
	fmt.Fprintf(&b, "  host      %s (%s, %s)\n", sys.Hostname, sys.OS, sys.Platform)
	fmt.Fprintf(&b, "  cpu       %.1f%% of %d cores  %s\n", sys.CPUPercent, sys.CPUCores, sys.CPUModel)
	fmt.Fprintf(&b, "  memory    %.1f / %.1f GB available (%.1f%% used)\n",
		sys.MemoryAvailableGB, sys.MemoryTotalGB, sys.MemoryUsedPercent)

	b.WriteString("\nGPU\n")
	switch {
	case snap.GPUError != "":
		fmt.Fprintf(&b, "  unavailable: %s\n", snap.GPUError)
	case len(snap.GPUs) == 0:
		b.WriteString("  none detected\n")
	default:
		for _, g := range snap.GPUs {
			used := 0.0
			if g.MemoryTotalMB > 0 {
				used = g.MemoryUsedMB / g.MemoryTotalMB * 100
			}
			fmt.Fprintf(&b, "  [%d] %s  %.0f/%.0f MB (%.1f%%)  %.0fC  util %.0f%%\n",
				g.Index, g.Name, g.MemoryUsedMB, g.MemoryTotalMB, used, g.TemperatureC, g.UtilizationPct)
		}
	}

	b.WriteString("\nAPI\n")
	renderHealth(&b, snap.Health)
	renderModels(&b, snap.Models)

	b.WriteString("\nPROCESSES\n")
	if len(snap.Processes) == 0 {
		b.WriteString("  no server process found\n")
	}
	for _, p := range snap.Processes {
		fmt.Fprintf(&b, "  pid %-7d %-10s cpu %5.1f%%  mem %5.1f%%  up %s\n",
			p.PID, p.User, p.CPUPercent, p.MemoryPercent, FormatUptime(p.UptimeSeconds))
	}

	for _, e := range snap.Errors {
		fmt.Fprintf(&b, "\n! %s", e)
	}
	if len(snap.Errors) > 0 {
		b.WriteString("\n")
	}
	if d.Clear && d.Interval > 0 {
		fmt.Fprintf(&b, "\nrefreshing every %s, Ctrl+C to quit\n", d.Interval)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderHealth(b *strings.Builder, res APIResult) {
	if res.State == APIUnreachable {
		fmt.Fprintf(b, "  health    unreachable (%s)\n", res.Error)
		return
	}
	h, ok := res.Body.(*api.HealthResponse)
	if !ok {
		fmt.Fprintf(b, "  health    %s %d %s\n", res.State, res.StatusCode, res.Error)
		return
	}
	fmt.Fprintf(b, "  health    %s (HTTP %d) on %s\n", h.Status, res.StatusCode, h.Device)
	if h.Message != "" {
		fmt.Fprintf(b, "            %s\n", h.Message)
	}
	fmt.Fprintf(b, "  models    transcription=%t alignment=%t diarization=%t\n",
		h.Models.TranscriptionReady, h.Models.AlignmentReady, h.Models.DiarizationReady)
	fmt.Fprintf(b, "  gate      active=%d waiting=%d acquired=%d rejected=%d\n",
		h.Gate.Active, h.Gate.Waiting, h.Gate.Acquired, h.Gate.Rejected)
}

func renderModels(b *strings.Builder, res APIResult) {
	info, ok := res.Body.(*api.ModelsInfoResponse)
	if !ok {
		if res.State != APIUnreachable {
			fmt.Fprintf(b, "  info      %s %d %s\n", res.State, res.StatusCode, res.Error)
		}
		return
	}
	model := "not loaded"
	if info.TranscriptionModel != nil {
		model = *info.TranscriptionModel
	}
	fmt.Fprintf(b, "  info      model=%s version=%s max=%.0fMB\n", model, info.Version, info.MaxFileSizeMB)
}
