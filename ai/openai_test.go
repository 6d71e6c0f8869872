package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompleter_Complete(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	var received chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Hallo Ada!  "}}]}`))
	}))
	defer server.Close()

	completer := NewOpenAICompleter(server.URL, "openai", server.Client(), log)

	// When the bot is asked something
	reply, err := completer.Complete(context.Background(), "Wie geht es dir heute, mein Freund?")

	// Then the first choice comes back trimmed
	req.NoError(err)
	req.Equal("Hallo Ada!", reply)

	// And the request carries the system prompt, the user text and the seed
	req.Equal("openai", received.Model)
	req.Equal(fixedSeed, received.Seed)
	req.Len(received.Messages, 2)
	req.Equal("system", received.Messages[0].Role)
	req.Equal("user", received.Messages[1].Role)
	req.Equal("Wie geht es dir heute, mein Freund?", received.Messages[1].Content)
}

func TestOpenAICompleter_NoChoice(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	reply, err := NewOpenAICompleter(server.URL, "openai", nil, log).Complete(context.Background(), "hi")

	req.NoError(err)
	req.Empty(reply)
}

func TestOpenAICompleter_ServerError(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewOpenAICompleter(server.URL, "openai", nil, log).Complete(context.Background(), "hi")

	req.Error(err)
	req.Contains(err.Error(), "503")
}

func TestOpenAICompleter_HonoursContext(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Given an endpoint slower than the deadline
	_, err := NewOpenAICompleter(server.URL, "openai", nil, log).Complete(ctx, "hi")

	// Then the call gives up with the context error
	req.ErrorIs(err, context.DeadlineExceeded)
}
