package accelerator

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jbousquie/whisperx-api/process"
)

// GPU is one line of nvidia-smi output. Memory is in MiB; fields the
// driver reports as unsupported are zero.
type GPU struct {
	Index          int     `json:"index"`
	Name           string  `json:"name"`
	MemoryTotalMB  float64 `json:"memory_total_mb"`
	MemoryUsedMB   float64 `json:"memory_used_mb"`
	MemoryFreeMB   float64 `json:"memory_free_mb"`
	TemperatureC   float64 `json:"temperature_c"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// MemoryTotalGB returns total memory in GB.
func (g GPU) MemoryTotalGB() float64 { return g.MemoryTotalMB / 1024 }

// MemoryUsedGB returns used memory in GB.
func (g GPU) MemoryUsedGB() float64 { return g.MemoryUsedMB / 1024 }

// Prober lists the GPUs visible to the process.
type Prober interface {
	GPUs(ctx context.Context) ([]GPU, error)
}

// QueryFields is the nvidia-smi --query-gpu column list, in output order.
const QueryFields = "name,memory.total,memory.used,memory.free,temperature.gpu,utilization.gpu"

// NvidiaSMI probes GPUs through the nvidia-smi binary.
type NvidiaSMI struct {
	Binary  string
	Timeout time.Duration
	run     process.Runner
}

// NewNvidiaSMI creates a prober. A nil runner uses process.Run.
func NewNvidiaSMI(run process.Runner) *NvidiaSMI {
	if run == nil {
		run = process.Run
	}
	return &NvidiaSMI{Binary: "nvidia-smi", Timeout: 10 * time.Second, run: run}
}

// GPUs runs nvidia-smi and parses its CSV output.
func (n *NvidiaSMI) GPUs(ctx context.Context) ([]GPU, error) {
	ctx, cancel := context.WithTimeout(ctx, n.Timeout)
	defer cancel()
	res, err := n.run(ctx, process.Command{
		Binary: n.Binary,
		Args:   []string{"--query-gpu=" + QueryFields, "--format=csv,noheader,nounits"},
	})
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi: %w", err)
	}
	return ParseQuery(res.Stdout)
}

// ParseQuery parses `nvidia-smi --query-gpu=QueryFields --format=csv,noheader,nounits`.
func ParseQuery(out []byte) ([]GPU, error) {
	r := csv.NewReader(bytes.NewReader(out))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var gpus []GPU
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse nvidia-smi output: %w", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != 6 {
			return nil, fmt.Errorf("parse nvidia-smi output: expected 6 fields, got %d", len(rec))
		}
		gpus = append(gpus, GPU{
			Index:          len(gpus),
			Name:           strings.TrimSpace(rec[0]),
			MemoryTotalMB:  number(rec[1]),
			MemoryUsedMB:   number(rec[2]),
			MemoryFreeMB:   number(rec[3]),
			TemperatureC:   number(rec[4]),
			UtilizationPct: number(rec[5]),
		})
	}
	return gpus, nil
}

// number parses a numeric column; "[N/A]" and similar yield 0.
func number(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
