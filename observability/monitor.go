package observability

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/process"
)

// Monitor samples process-level health for the debug endpoint: resident
// memory and CPU from the OS, heap and goroutine counts from the Go
// runtime, live connection and room counts from the registry side.
type Monitor struct {
	log  *slog.Logger
	proc *process.Process
}

func NewMonitor(log *slog.Logger) (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{log: log, proc: proc}, nil
}

// Snapshot returns the current stats. Sampling errors degrade to partial
// data rather than failing the endpoint.
func (m *Monitor) Snapshot(connections, rooms int) map[string]any {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := map[string]any{
		"connections":   connections,
		"rooms":         rooms,
		"goroutines":    runtime.NumGoroutine(),
		"heap_alloc_mb": memStats.Alloc / 1024 / 1024,
		"num_gc":        memStats.NumGC,
	}

	if memInfo, err := m.proc.MemoryInfo(); err == nil {
		stats["rss_mb"] = memInfo.RSS / 1024 / 1024
	} else {
		m.log.Debug("process memory sampling failed", "error", err)
	}
	if cpu, err := m.proc.CPUPercent(); err == nil {
		stats["cpu_percent"] = cpu
	}
	return stats
}
