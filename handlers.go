package rudderbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elefant-ai/rudderbridge/event"
)

// The handlers below are the host side of the boundary contract: each decodes
// its command payload, re-checks it structurally and performs one forward to
// the transport client. Decode and validation failures propagate back across
// the boundary as the invoke error.

func (p *Plugin) handleIdentify(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var ev event.Identify
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode identify: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if ev.UserID != "" {
		if already := p.ids.SetUserID(ev.UserID); !already {
			p.log.Debug("linked user id to anonymous id", "userId", ev.UserID)
		}
	}
	return nil, p.wrapper.Identify(ev)
}

func (p *Plugin) handleTrack(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var ev event.Track
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode track: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return nil, p.wrapper.Track(ev)
}

func (p *Plugin) handlePage(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var ev event.Page
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return nil, p.wrapper.Page(ev)
}

func (p *Plugin) handleScreen(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var ev event.Screen
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode screen: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return nil, p.wrapper.Screen(ev)
}

func (p *Plugin) handleGroup(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var ev event.Group
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode group: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return nil, p.wrapper.Group(ev)
}

func (p *Plugin) handleAlias(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var ev event.Alias
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode alias: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return nil, p.wrapper.Alias(ev)
}

func (p *Plugin) handleBatch(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var ev event.Batch
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return nil, p.wrapper.Batch(ev)
}
