// Package client is the guest-facing surface of the bridge: one typed send
// function per event kind, page-context enrichment for track events, and the
// URL auto-tracking hook. It talks to the host exclusively through an injected
// Invoker.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/elefant-ai/rudderbridge/dispatch"
	"github.com/elefant-ai/rudderbridge/event"
	"github.com/elefant-ai/rudderbridge/nav"
)

// TransportError reports a failed boundary call. The cause is opaque to this
// layer and passed through unchanged.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("analytics transport: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Invoker routes a named command with a serialized payload to the host and
// returns when the host-side handler completes. *dispatch.Registry satisfies
// it for in-process embeddings.
type Invoker interface {
	Invoke(ctx context.Context, command string, payload json.RawMessage) (json.RawMessage, error)
}

// Client sends analytics events across the host boundary.
type Client struct {
	inv Invoker
	env *nav.Environment
	log *slog.Logger
}

// New creates a Client bound to the given invoker and navigation environment.
func New(inv Invoker, env *nav.Environment) *Client {
	return &Client{inv: inv, env: env, log: slog.Default()}
}

// SendIdentify sends an identify event.
func (c *Client) SendIdentify(ctx context.Context, ev event.Identify) error {
	return c.send(ctx, dispatch.CommandIdentify, ev)
}

// SendTrack sends a track event. The outgoing properties always carry a "page"
// object with the current location; caller-supplied properties outside "page"
// are preserved.
func (c *Client) SendTrack(ctx context.Context, ev event.Track) error {
	ev.Properties = withPageContext(ev.Properties, c.env.Location())
	return c.send(ctx, dispatch.CommandTrack, ev)
}

// SendPage sends a page event.
func (c *Client) SendPage(ctx context.Context, ev event.Page) error {
	return c.send(ctx, dispatch.CommandPage, ev)
}

// SendScreen sends a screen event.
func (c *Client) SendScreen(ctx context.Context, ev event.Screen) error {
	return c.send(ctx, dispatch.CommandScreen, ev)
}

// SendGroup sends a group event.
func (c *Client) SendGroup(ctx context.Context, ev event.Group) error {
	return c.send(ctx, dispatch.CommandGroup, ev)
}

// SendAlias sends an alias event.
func (c *Client) SendAlias(ctx context.Context, ev event.Alias) error {
	return c.send(ctx, dispatch.CommandAlias, ev)
}

// SendBatch sends multiple messages in one boundary call.
func (c *Client) SendBatch(ctx context.Context, ev event.Batch) error {
	return c.send(ctx, dispatch.CommandBatch, ev)
}

type validatable interface {
	Validate() error
}

// send validates the event, performs exactly one boundary call and maps any
// boundary failure to a TransportError. It never retries or buffers.
func (c *Client) send(ctx context.Context, command string, ev validatable) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return &TransportError{Cause: err}
	}
	if _, err := c.inv.Invoke(ctx, command, payload); err != nil {
		return &TransportError{Cause: err}
	}
	return nil
}

// withPageContext merges current-location metadata under properties["page"].
// Freshly computed values win on key collision; caller-supplied keys outside
// "page" are untouched.
func withPageContext(props map[string]any, loc nav.Location) map[string]any {
	if props == nil {
		props = make(map[string]any, 1)
	}
	page := make(map[string]any, 3)
	if prev, ok := props["page"].(map[string]any); ok {
		for k, v := range prev {
			page[k] = v
		}
	}
	page["title"] = loc.Title
	page["url"] = loc.URL
	page["path"] = loc.Path
	props["page"] = page
	return props
}
