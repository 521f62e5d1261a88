package service

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ncatbot/core/errors"
)

// Stats is a point-in-time host resource snapshot.
type Stats struct {
	CPUPercent  float64
	MemUsed     uint64
	MemTotal    uint64
	MemPercent  float64
}

// SystemService is a built-in eager service reporting host CPU/memory for
// the built-in system-management plugin (§EXT supplemented feature 2). It
// does not read heartbeat meta events.
type SystemService struct{}

// NewSystemService creates the system metrics service.
func NewSystemService() *SystemService { return &SystemService{} }

func (s *SystemService) Name() string       { return "system" }
func (s *SystemService) Requires() []string { return nil }
func (s *SystemService) IsEager() bool      { return true }

func (s *SystemService) OnLoad(ctx context.Context) error { return nil }
func (s *SystemService) OnClose(ctx context.Context) error { return nil }

// Snapshot reports current CPU/memory usage.
func (s *SystemService) Snapshot() (Stats, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return Stats{}, errors.Wrap(err, "reading cpu stats")
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return Stats{}, errors.Wrap(err, "reading memory stats")
	}
	var cpuPct float64
	if len(percents) > 0 {
		cpuPct = percents[0]
	}
	return Stats{
		CPUPercent: cpuPct,
		MemUsed:    vm.Used,
		MemTotal:   vm.Total,
		MemPercent: vm.UsedPercent,
	}, nil
}
