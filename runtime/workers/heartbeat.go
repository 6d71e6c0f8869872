package workers

import (
	"chat-relay/runtime"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// backlogWarningRatio is the inbox fill level above which a beat is logged as a warning.
const backlogWarningRatio = 0.8

type StatsSource interface {
	Stats() runtime.Stats
}

type HeartbeatWorker struct {
	log      *slog.Logger
	relay    StatsSource
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, relay StatsSource, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, relay: relay, interval: interval}
}

// Run logs process health (CPU, RAM, status) along with the relay stats at every tick.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.beat(p)
		}
	}
}

func (w *HeartbeatWorker) beat(p *process.Process) {
	stats := w.relay.Stats()
	attrs := []any{
		"pid", p.Pid,
		"active_users", stats.ActiveUsers,
		"connections", stats.Connections,
		"rooms", stats.Rooms,
		"inbox_length", stats.InboxLength,
		"inbox_capacity", stats.InboxCapacity,
	}

	rss, cpu, status, err := getSelfStats(p)
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
	} else {
		attrs = append(attrs, "rss_bytes", rss, "cpu_percent", cpu, "status", status)
	}

	if stats.InboxCapacity > 0 && float64(stats.InboxLength) >= backlogWarningRatio*float64(stats.InboxCapacity) {
		w.log.Warn("Heartbeat, reactor falling behind", attrs...)
		return
	}
	w.log.Info("Heartbeat", attrs...)
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
