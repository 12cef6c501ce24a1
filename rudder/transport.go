package rudder

import (
	"fmt"
	"log/slog"
	"time"

	analytics "gopkg.in/segmentio/analytics-go.v3"

	"github.com/elefant-ai/rudderbridge/internal/metrics"
)

// TransportConfig carries the transport client settings. The endpoint is the
// RudderStack data plane URL; the ingestion API is Segment-compatible, so the
// segmentio client speaks to it directly.
type TransportConfig struct {
	DataPlaneURL  string
	WriteKey      string
	FlushInterval time.Duration // zero keeps the client default
	BatchSize     int           // zero keeps the client default
}

// NewTransport builds the transport client for the configured data plane.
func NewTransport(cfg TransportConfig) (analytics.Client, error) {
	client, err := analytics.NewWithConfig(cfg.WriteKey, analytics.Config{
		Endpoint:  cfg.DataPlaneURL,
		Interval:  cfg.FlushInterval,
		BatchSize: cfg.BatchSize,
		Logger:    slogLogger{log: slog.Default()},
		Callback:  deliveryCallback{log: slog.Default()},
	})
	if err != nil {
		return nil, fmt.Errorf("transport client: %w", err)
	}
	return client, nil
}

// deliveryCallback observes the transport client's asynchronous delivery
// outcomes. Delivery happens after the boundary call has already returned, so
// failures here are counted and logged rather than surfaced to callers.
type deliveryCallback struct {
	log *slog.Logger
}

func (c deliveryCallback) Success(analytics.Message) {}

func (c deliveryCallback) Failure(m analytics.Message, err error) {
	kind := kindOf(m)
	metrics.DeliveryFailures.WithLabelValues(kind).Inc()
	c.log.Error("analytics delivery failed", "kind", kind, "err", err)
}

func kindOf(m analytics.Message) string {
	switch m.(type) {
	case analytics.Identify:
		return "identify"
	case analytics.Track:
		return "track"
	case analytics.Page:
		return "page"
	case analytics.Screen:
		return "screen"
	case analytics.Group:
		return "group"
	case analytics.Alias:
		return "alias"
	default:
		return "unknown"
	}
}

// slogLogger adapts the transport client's logger interface onto slog.
type slogLogger struct {
	log *slog.Logger
}

func (l slogLogger) Logf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l slogLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}
