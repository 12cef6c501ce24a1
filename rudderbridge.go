// Package rudderbridge bridges a fixed set of analytics-event commands from a
// host application to a RudderStack-compatible ingestion endpoint. The host
// mounts a Plugin on its command-dispatch runtime; a scripting guest reaches
// the same runtime through the client package. Transport concerns — batching,
// retry, offline buffering — belong to the transport client the plugin wraps.
package rudderbridge

import (
	"fmt"
	"log/slog"
	"time"

	analytics "gopkg.in/segmentio/analytics-go.v3"

	"github.com/elefant-ai/rudderbridge/config"
	"github.com/elefant-ai/rudderbridge/dispatch"
	"github.com/elefant-ai/rudderbridge/internal/identity"
	"github.com/elefant-ai/rudderbridge/rudder"
)

// Plugin is the host-side half of the bridge: one handler per command name,
// all forwarding to the transport client with the persisted identity applied.
type Plugin struct {
	wrapper   *rudder.Wrapper
	transport analytics.Client
	ids       *identity.Store
	stopWatch func()
	log       *slog.Logger
}

// New builds the plugin: it loads (or creates) the persisted identity state,
// applies the optional pre-seeded anonymous id, and constructs the transport
// client for the configured data plane and write key.
func New(cfg config.Config) (*Plugin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := slog.Default()

	ids, err := identity.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}
	if cfg.AnonymousID != "" {
		ids.SetAnonymousID(cfg.AnonymousID)
	}
	if err := ids.Save(); err != nil {
		log.Error("failed to save identity state", "err", err)
	}

	transport, err := rudder.NewTransport(rudder.TransportConfig{
		DataPlaneURL:  cfg.DataPlaneURL,
		WriteKey:      cfg.WriteKey,
		FlushInterval: time.Duration(cfg.FlushIntervalMs) * time.Millisecond,
		BatchSize:     cfg.BatchSize,
	})
	if err != nil {
		return nil, err
	}

	var limiter rudder.Limiter
	if cfg.EventsPerMinute > 0 {
		limiter = rudder.NewPerEventCap(cfg.EventsPerMinute)
	}

	p := newPlugin(transport, ids, limiter)
	if cfg.WatchState {
		stop, err := ids.Watch()
		if err != nil {
			log.Warn("identity watcher unavailable", "err", err)
		} else {
			p.stopWatch = stop
		}
	}
	log.Info("rudderbridge plugin initialized", "dataPlane", cfg.DataPlaneURL)
	return p, nil
}

func newPlugin(transport analytics.Client, ids *identity.Store, limiter rudder.Limiter) *Plugin {
	return &Plugin{
		wrapper:   rudder.NewWrapper(transport, ids, limiter),
		transport: transport,
		ids:       ids,
		log:       slog.Default(),
	}
}

// Mount registers one handler per command name on the host runtime.
func (p *Plugin) Mount(rt dispatch.Runtime) {
	rt.Register(dispatch.CommandIdentify, p.handleIdentify)
	rt.Register(dispatch.CommandTrack, p.handleTrack)
	rt.Register(dispatch.CommandPage, p.handlePage)
	rt.Register(dispatch.CommandScreen, p.handleScreen)
	rt.Register(dispatch.CommandGroup, p.handleGroup)
	rt.Register(dispatch.CommandAlias, p.handleAlias)
	rt.Register(dispatch.CommandBatch, p.handleBatch)
}

// SetAnonymousID overrides the anonymous id for all subsequent events,
// including the persisted one.
func (p *Plugin) SetAnonymousID(id string) error {
	p.ids.SetAnonymousID(id)
	if err := p.ids.Save(); err != nil {
		return fmt.Errorf("save anonymous id: %w", err)
	}
	return nil
}

// AnonymousID returns the anonymous id currently stamped onto events.
func (p *Plugin) AnonymousID() string {
	return p.ids.AnonymousID()
}

// Close flushes queued events and saves the identity state. Call it on host
// shutdown.
func (p *Plugin) Close() error {
	if p.stopWatch != nil {
		p.stopWatch()
	}
	if err := p.ids.Save(); err != nil {
		p.log.Error("failed to save identity state", "err", err)
	}
	return p.transport.Close()
}
