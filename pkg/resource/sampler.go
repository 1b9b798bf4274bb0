package resource

import (
	"context"
	"runtime"
	"time"
)

// OSSampler is a minimal, dependency-free Sampler. No pack repo ships a
// directly importable (non-transitive) OS memory-sampling library — the
// one candidate, shirou/gopsutil, appears only as an indirect dependency
// pulled in by kubernaut's k8s/cloud stack, which this module does not use
// — so OSSampler is deliberately built on the standard library, per
// DESIGN.md's "dropped deps" ledger. It reports Go's own runtime memory
// statistics as a proxy for process memory pressure and estimates thermal
// state from CPU utilization bands per spec §4.1.
type OSSampler struct {
	TotalGB float64
}

// NewOSSampler builds an OSSampler assuming totalGB of system memory
// (callers read this from configuration; there is no portable stdlib call
// for total system memory).
func NewOSSampler(totalGB float64) *OSSampler {
	return &OSSampler{TotalGB: totalGB}
}

// Sample implements Sampler.
func (s *OSSampler) Sample(ctx context.Context) (Snapshot, error) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	usedGB := float64(stats.Sys) / (1 << 30)
	if usedGB > s.TotalGB {
		usedGB = s.TotalGB
	}
	availableGB := s.TotalGB - usedGB

	return Snapshot{
		Timestamp:     time.Now(),
		TotalGB:       s.TotalGB,
		UsedGB:        usedGB,
		AvailableGB:   availableGB,
		SwapGB:        0,
		CompressedGB:  0,
		WiredGB:       0,
		AppResidentGB: float64(stats.HeapInuse) / (1 << 30),
		Thermal:       thermalFromUtilization(cpuUtilizationEstimate()),
	}, nil
}

// cpuUtilizationEstimate is a crude stand-in for real OS thermal telemetry:
// the ratio of currently runnable goroutines to GOMAXPROCS, clamped to
// [0,1]. Real deployments should replace OSSampler with a platform-specific
// Sampler; this one only guarantees Poll never fails.
func cpuUtilizationEstimate() float64 {
	procs := runtime.GOMAXPROCS(0)
	if procs <= 0 {
		procs = 1
	}
	ratio := float64(runtime.NumGoroutine()) / float64(procs*50)
	return clampUnit(ratio)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// thermalFromUtilization maps a CPU utilization ratio to a ThermalState
// using the bands from spec §4.1: 0-50/50-75/75-90/>90.
func thermalFromUtilization(ratio float64) ThermalState {
	pct := ratio * 100
	switch {
	case pct > 90:
		return ThermalCritical
	case pct > 75:
		return ThermalHigh
	case pct > 50:
		return ThermalModerate
	default:
		return ThermalNormal
	}
}
