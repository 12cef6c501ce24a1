// Package rudder adapts bridge events onto the RudderStack-compatible
// transport client and stamps the persisted anonymous id onto outgoing
// messages. Batching, retries, offline buffering and network I/O all live
// inside the transport client; this package never re-implements them.
package rudder

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	analytics "gopkg.in/segmentio/analytics-go.v3"

	"github.com/elefant-ai/rudderbridge/event"
	"github.com/elefant-ai/rudderbridge/internal/metrics"
)

// Identity supplies the anonymous id stamped onto outgoing messages.
type Identity interface {
	AnonymousID() string
}

// Limiter decides whether one more event of the given kind may be sent now.
type Limiter interface {
	Allow(kind string) bool
}

// Wrapper forwards bridge events to the transport client. Every kind except
// alias gets the current anonymous id; alias identifies users explicitly by
// its own two ids.
type Wrapper struct {
	client  analytics.Client
	ids     Identity
	limiter Limiter // nil means uncapped
	log     *slog.Logger
}

// NewWrapper creates a Wrapper around the given transport client.
func NewWrapper(client analytics.Client, ids Identity, limiter Limiter) *Wrapper {
	return &Wrapper{client: client, ids: ids, limiter: limiter, log: slog.Default()}
}

// Identify forwards an identify event.
func (w *Wrapper) Identify(ev event.Identify) error {
	return w.enqueue(event.KindIdentify, analytics.Identify{
		UserId:       ev.UserID,
		AnonymousId:  w.ids.AnonymousID(),
		Traits:       analytics.Traits(ev.Traits),
		Timestamp:    timestamp(ev.OriginalTimestamp),
		Context:      toContext(ev.Context),
		Integrations: toIntegrations(ev.Integrations),
	})
}

// Track forwards a track event.
func (w *Wrapper) Track(ev event.Track) error {
	return w.enqueue(event.KindTrack, analytics.Track{
		UserId:       ev.UserID,
		AnonymousId:  w.ids.AnonymousID(),
		Event:        ev.Event,
		Properties:   analytics.Properties(ev.Properties),
		Timestamp:    timestamp(ev.OriginalTimestamp),
		Context:      toContext(ev.Context),
		Integrations: toIntegrations(ev.Integrations),
	})
}

// Page forwards a page event.
func (w *Wrapper) Page(ev event.Page) error {
	return w.enqueue(event.KindPage, analytics.Page{
		UserId:       ev.UserID,
		AnonymousId:  w.ids.AnonymousID(),
		Name:         ev.Name,
		Properties:   analytics.Properties(ev.Properties),
		Timestamp:    timestamp(ev.OriginalTimestamp),
		Context:      toContext(ev.Context),
		Integrations: toIntegrations(ev.Integrations),
	})
}

// Screen forwards a screen event.
func (w *Wrapper) Screen(ev event.Screen) error {
	return w.enqueue(event.KindScreen, analytics.Screen{
		UserId:       ev.UserID,
		AnonymousId:  w.ids.AnonymousID(),
		Name:         ev.Name,
		Properties:   analytics.Properties(ev.Properties),
		Timestamp:    timestamp(ev.OriginalTimestamp),
		Context:      toContext(ev.Context),
		Integrations: toIntegrations(ev.Integrations),
	})
}

// Group forwards a group event.
func (w *Wrapper) Group(ev event.Group) error {
	return w.enqueue(event.KindGroup, analytics.Group{
		UserId:       ev.UserID,
		AnonymousId:  w.ids.AnonymousID(),
		GroupId:      ev.GroupID,
		Traits:       analytics.Traits(ev.Traits),
		Timestamp:    timestamp(ev.OriginalTimestamp),
		Context:      toContext(ev.Context),
		Integrations: toIntegrations(ev.Integrations),
	})
}

// Alias forwards an alias event. No anonymous id is stamped: the event's own
// ids carry the identity merge.
func (w *Wrapper) Alias(ev event.Alias) error {
	return w.enqueue(event.KindAlias, analytics.Alias{
		UserId:       ev.UserID,
		PreviousId:   ev.PreviousID,
		Timestamp:    timestamp(ev.OriginalTimestamp),
		Context:      toContext(ev.Context),
		Integrations: toIntegrations(ev.Integrations),
	})
}

// Batch enqueues each member individually; the transport client does its own
// batching on the wire. Members without their own envelope fields inherit the
// batch's.
func (w *Wrapper) Batch(b event.Batch) error {
	for i := range b.Batch {
		m := b.Batch[i]
		var err error
		switch {
		case m.Identify != nil:
			ev := *m.Identify
			inheritEnvelope(&ev.OriginalTimestamp, &ev.Context, &ev.Integrations, b)
			err = w.Identify(ev)
		case m.Track != nil:
			ev := *m.Track
			inheritEnvelope(&ev.OriginalTimestamp, &ev.Context, &ev.Integrations, b)
			err = w.Track(ev)
		case m.Page != nil:
			ev := *m.Page
			inheritEnvelope(&ev.OriginalTimestamp, &ev.Context, &ev.Integrations, b)
			err = w.Page(ev)
		case m.Screen != nil:
			ev := *m.Screen
			inheritEnvelope(&ev.OriginalTimestamp, &ev.Context, &ev.Integrations, b)
			err = w.Screen(ev)
		case m.Group != nil:
			ev := *m.Group
			inheritEnvelope(&ev.OriginalTimestamp, &ev.Context, &ev.Integrations, b)
			err = w.Group(ev)
		case m.Alias != nil:
			ev := *m.Alias
			inheritEnvelope(&ev.OriginalTimestamp, &ev.Context, &ev.Integrations, b)
			err = w.Alias(ev)
		default:
			err = fmt.Errorf("empty batch message")
		}
		if err != nil {
			return fmt.Errorf("batch[%d]: %w", i, err)
		}
	}
	return nil
}

func (w *Wrapper) enqueue(kind string, msg analytics.Message) error {
	if w.limiter != nil && !w.limiter.Allow(kind) {
		metrics.EventsDropped.WithLabelValues(kind).Inc()
		w.log.Debug("event dropped by rate cap", "kind", kind)
		return nil
	}
	if err := w.client.Enqueue(msg); err != nil {
		return fmt.Errorf("enqueue %s: %w", kind, err)
	}
	metrics.EventsForwarded.WithLabelValues(kind).Inc()
	return nil
}

func inheritEnvelope(ts **time.Time, context, integrations *json.RawMessage, b event.Batch) {
	if *ts == nil {
		*ts = b.OriginalTimestamp
	}
	if *context == nil {
		*context = b.Context
	}
	if *integrations == nil {
		*integrations = b.Integrations
	}
}

func timestamp(t *time.Time) time.Time {
	if t == nil {
		// Zero means the transport fills in send time and the ingestion
		// service assigns the event time.
		return time.Time{}
	}
	return *t
}

// toContext decodes the free-form context document into the transport's
// context model. Values that do not fit the model are dropped.
func toContext(raw json.RawMessage) *analytics.Context {
	if len(raw) == 0 {
		return nil
	}
	var ctx analytics.Context
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil
	}
	return &ctx
}

func toIntegrations(raw json.RawMessage) analytics.Integrations {
	if len(raw) == 0 {
		return nil
	}
	var integrations analytics.Integrations
	if err := json.Unmarshal(raw, &integrations); err != nil {
		return nil
	}
	return integrations
}
