// Package dispatch routes named bridge commands to their handlers. It defines
// the two halves of the host boundary — Runtime for the side that registers
// handlers and Invoker for the side that calls them — plus an in-process
// Registry implementing both, used when host and guest share a process and as
// a stand-in for a real command-dispatch runtime in tests.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/elefant-ai/rudderbridge/internal/metrics"
)

// Command names addressed across the host boundary. These strings are part of
// the wire contract and must not change.
const (
	CommandIdentify = "send_analytics_identify"
	CommandTrack    = "send_analytics_track"
	CommandPage     = "send_analytics_page"
	CommandScreen   = "send_analytics_screen"
	CommandGroup    = "send_analytics_group"
	CommandAlias    = "send_analytics_alias"
	CommandBatch    = "send_analytics_batch"
)

// Handler processes one command payload and returns an optional serialized
// result. The bridge's handlers return nil on success.
type Handler func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)

// Runtime is the host-side registration surface: the plugin registers one
// handler per command name on it.
type Runtime interface {
	Register(command string, h Handler)
}

// Invoker is the guest-side surface: route one named command with a serialized
// payload to its handler and return when it completes.
type Invoker interface {
	Invoke(ctx context.Context, command string, payload json.RawMessage) (json.RawMessage, error)
}

// Registry maps command names to handlers. It is safe for concurrent reads;
// Register should only be called at startup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Panics on duplicate command to surface
// misconfiguration early.
func (r *Registry) Register(command string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[command]; exists {
		panic(fmt.Sprintf("dispatch: duplicate command %q", command))
	}
	r.handlers[command] = h
}

// Invoke routes a command to its handler. Each call is a single indivisible
// unit of work: the handler either completes or fails, there is no partial
// success.
func (r *Registry) Invoke(ctx context.Context, command string, payload json.RawMessage) (json.RawMessage, error) {
	r.mu.RLock()
	h, ok := r.handlers[command]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dispatch: no handler registered for command %q", command)
	}

	start := time.Now()
	res, err := h(ctx, payload)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.InvokeDuration.WithLabelValues(command).Observe(float64(time.Since(start).Milliseconds()))
	metrics.Invokes.WithLabelValues(command, status).Inc()
	return res, err
}

// Commands returns all registered command names.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	return out
}
