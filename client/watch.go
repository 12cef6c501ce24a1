package client

import (
	"context"
	"sync"

	"github.com/elefant-ai/rudderbridge/event"
	"github.com/elefant-ai/rudderbridge/internal/metrics"
)

// WatchURLChanges wraps the environment's push primitive so every client-side
// navigation also emits a page event named after the current path. The wrapper
// runs the captured primitive first, preserving its effects and return value,
// then reads the resulting location. The returned stop function restores the
// primitive captured at install time and is safe to call more than once.
//
// Installing the hook twice nests wrappers: each navigation then emits one
// page event per active wrapper. Nesting is not corrected automatically.
func (c *Client) WatchURLChanges() (stop func()) {
	orig := c.env.PushState()
	c.env.SetPushState(func(state any, url string) error {
		var err error
		if orig != nil {
			err = orig(state, url)
		}
		c.emitPageView(context.Background())
		return err
	})

	var once sync.Once
	return func() {
		once.Do(func() { c.env.SetPushState(orig) })
	}
}

// emitPageView sends a page event for the current location. Failures are
// logged, never returned: an analytics fault must not break navigation.
func (c *Client) emitPageView(ctx context.Context) {
	loc := c.env.Location()
	ev := event.Page{
		Name: loc.Path,
		Properties: map[string]any{
			"title": loc.Title,
			"url":   loc.URL,
		},
	}
	if err := c.SendPage(ctx, ev); err != nil {
		c.log.Warn("auto page view dropped", "path", loc.Path, "err", err)
		return
	}
	metrics.PageViewsAutoTracked.Inc()
}
