package binder

import (
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/idudko/promreg/pkg/meter"
	"github.com/idudko/promreg/pkg/registry"
)

// Process exposes resource usage of one OS process.
type Process struct {
	pid int32
}

// NewProcess describes the current process.
func NewProcess() *Process {
	return &Process{pid: int32(os.Getpid())}
}

func (b *Process) Bind(r *registry.Registry) error {
	p, err := process.NewProcess(b.pid)
	if err != nil {
		return fmt.Errorf("binder: process %d: %w", b.pid, err)
	}

	_, rssErr := r.Gauge("process.memory.rss", func() (float64, error) {
		info, err := p.MemoryInfo()
		if err != nil {
			return 0, err
		}
		return float64(info.RSS), nil
	}, meter.WithBaseUnit("bytes"), meter.WithDescription("Resident set size of the process"))

	_, cpuErr := r.Gauge("process.cpu.usage", func() (float64, error) {
		return p.Percent(0)
	}, meter.WithBaseUnit("percent"), meter.WithDescription("CPU used by the process since the previous scrape"))

	_, threadsErr := r.Gauge("process.threads", func() (float64, error) {
		n, err := p.NumThreads()
		return float64(n), err
	}, meter.WithDescription("Number of OS threads of the process"))

	return errors.Join(rssErr, cpuErr, threadsErr)
}

// System exposes host memory and CPU information.
type System struct{}

func NewSystem() *System {
	return &System{}
}

func (System) Bind(r *registry.Registry) error {
	virtual := func(pick func(*mem.VirtualMemoryStat) float64) meter.ValueFunc {
		return func() (float64, error) {
			v, err := mem.VirtualMemory()
			if err != nil {
				return 0, err
			}
			return pick(v), nil
		}
	}

	_, totalErr := r.Gauge("system.memory.total", virtual(func(v *mem.VirtualMemoryStat) float64 {
		return float64(v.Total)
	}), meter.WithBaseUnit("bytes"), meter.WithDescription("Total physical memory"))

	_, availableErr := r.Gauge("system.memory.available", virtual(func(v *mem.VirtualMemoryStat) float64 {
		return float64(v.Available)
	}), meter.WithBaseUnit("bytes"), meter.WithDescription("Memory available without swapping"))

	_, usedErr := r.Gauge("system.memory.usage", virtual(func(v *mem.VirtualMemoryStat) float64 {
		return v.UsedPercent
	}), meter.WithBaseUnit("percent"), meter.WithDescription("Share of physical memory in use"))

	_, cpusErr := r.Gauge("system.cpu.count", func() (float64, error) {
		n, err := cpu.Counts(true)
		return float64(n), err
	}, meter.WithDescription("Number of logical CPUs"))

	return errors.Join(totalErr, availableErr, usedErr, cpusErr)
}
