// Package accelerator detects the compute device the models run on and
// defines the memory-reclaim hook run after every pipeline.
package accelerator

import (
	"context"
	"strings"

	"github.com/jbousquie/whisperx-api/logger"
)

// Kind is a device family.
type Kind string

const (
	KindCUDA Kind = "cuda"
	KindCPU  Kind = "cpu"
	// KindAuto asks Detect to pick.
	KindAuto Kind = "auto"
)

// Compute types the inference backends accept.
const (
	ComputeFloat16 = "float16"
	ComputeInt8    = "int8"
)

// Device is the resolved execution device.
type Device struct {
	Kind        Kind   `json:"kind"`
	ComputeType string `json:"compute_type"`
	// GPU is the first detected GPU when Kind is cuda.
	GPU *GPU `json:"gpu,omitempty"`
}

// MemoryGB returns the GPU memory capacity in GB, 0 on cpu.
func (d Device) MemoryGB() float64 {
	if d.GPU == nil {
		return 0
	}
	return d.GPU.MemoryTotalGB()
}

// Reclaimer is implemented by backends that can free transient
// accelerator buffers between runs.
type Reclaimer interface {
	ReleaseMemory(ctx context.Context) error
}

// Detect resolves the requested device ("auto", "cuda" or "cpu").
// auto picks cuda when the prober finds a GPU. An explicit cuda request
// with no GPU found falls back to cpu with a warning. computeType overrides
// the per-device default when set.
func Detect(ctx context.Context, requested, computeType string, p Prober) Device {
	log := logger.Get("accelerator")
	kind := Kind(strings.ToLower(strings.TrimSpace(requested)))
	if kind == "" {
		kind = KindAuto
	}

	var gpu *GPU
	if kind != KindCPU && p != nil {
		gpus, err := p.GPUs(ctx)
		switch {
		case err != nil:
			log.Info("no GPU detected", logger.ErrorFields("probe", err))
		case len(gpus) > 0:
			gpu = &gpus[0]
		}
	}

	dev := Device{Kind: KindCPU, ComputeType: ComputeInt8}
	if gpu != nil {
		dev = Device{Kind: KindCUDA, ComputeType: ComputeFloat16, GPU: gpu}
	} else if kind == KindCUDA {
		log.Warn("cuda requested but no GPU found, using cpu")
	}
	if computeType != "" {
		dev.ComputeType = computeType
	}

	fields := logger.Fields(logger.FieldDevice, string(dev.Kind), "compute_type", dev.ComputeType)
	if gpu != nil {
		fields["gpu"] = gpu.Name
		fields["memory_gb"] = gpu.MemoryTotalGB()
	}
	log.Info("device selected", fields)
	return dev
}
