package workers

import (
	"bytes"
	"chat-relay/runtime"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedStats runtime.Stats

func (f fixedStats) Stats() runtime.Stats { return runtime.Stats(f) }

// syncBuffer is written by the worker goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestHeartbeatWorker_LogsRelayCounts(t *testing.T) {
	req := require.New(t)
	out := &syncBuffer{}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Given two users over three connections and one room
	stats := fixedStats{ActiveUsers: 2, Connections: 3, Rooms: 1, InboxCapacity: 16}
	worker := NewHeartbeatWorker(log, stats, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Then every beat reports the counts
	req.Eventually(func() bool {
		return strings.Contains(out.String(), "msg=Heartbeat")
	}, time.Second, 10*time.Millisecond)
	logged := out.String()
	req.Contains(logged, "active_users=2")
	req.Contains(logged, "connections=3")
	req.Contains(logged, "rooms=1")

	// When the context is canceled
	cancel()

	// Then the worker stops with the context error
	req.ErrorIs(<-done, context.Canceled)
}

func TestHeartbeatWorker_WarnsOnBacklog(t *testing.T) {
	req := require.New(t)
	out := &syncBuffer{}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Given an inbox almost full
	stats := fixedStats{InboxLength: 15, InboxCapacity: 16}
	worker := NewHeartbeatWorker(log, stats, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// Then the beat is raised to a warning
	req.Eventually(func() bool {
		return strings.Contains(out.String(), "level=WARN msg=\"Heartbeat, reactor falling behind\"")
	}, time.Second, 10*time.Millisecond)
}
