package client

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/elefant-ai/rudderbridge/dispatch"
	"github.com/elefant-ai/rudderbridge/event"
	"github.com/elefant-ai/rudderbridge/nav"
)

// fakeBrowser mimics the embedding environment: its push primitive mutates
// the current path, and location reads reflect it.
type fakeBrowser struct {
	path   string
	title  string
	pushed int
}

func (b *fakeBrowser) env() *nav.Environment {
	return nav.New(
		func(state any, url string) error {
			b.path = url
			b.pushed++
			return nil
		},
		func() nav.Location {
			return nav.Location{
				URL:   "https://app.local" + b.path,
				Path:  b.path,
				Title: b.title,
			}
		},
	)
}

func pageSends(t *testing.T, inv *stubInvoker) []event.Page {
	t.Helper()
	var pages []event.Page
	for _, call := range inv.calls {
		if call.command != dispatch.CommandPage {
			continue
		}
		var ev event.Page
		if err := json.Unmarshal(call.payload, &ev); err != nil {
			t.Fatalf("decode forwarded page: %v", err)
		}
		pages = append(pages, ev)
	}
	return pages
}

func TestWatchEmitsPageView(t *testing.T) {
	b := &fakeBrowser{path: "/", title: "Foo"}
	inv := &stubInvoker{}
	c := New(inv, b.env())
	env := c.env

	stop := c.WatchURLChanges()
	defer stop()

	if err := env.Push(nil, "/foo"); err != nil {
		t.Fatalf("Push() = %v", err)
	}
	if b.path != "/foo" || b.pushed != 1 {
		t.Fatalf("primitive effect lost: path=%q pushed=%d", b.path, b.pushed)
	}

	pages := pageSends(t, inv)
	if len(pages) != 1 {
		t.Fatalf("page sends = %d, want 1", len(pages))
	}
	if pages[0].Name != "/foo" {
		t.Errorf("page name = %q, want %q", pages[0].Name, "/foo")
	}
	if pages[0].Properties["title"] != "Foo" {
		t.Errorf("page title = %v, want %q", pages[0].Properties["title"], "Foo")
	}
	if pages[0].Properties["url"] != "https://app.local/foo" {
		t.Errorf("page url = %v", pages[0].Properties["url"])
	}
}

func TestStopRestoresPrimitive(t *testing.T) {
	b := &fakeBrowser{path: "/", title: "Home"}
	inv := &stubInvoker{}
	c := New(inv, b.env())
	env := c.env

	stop := c.WatchURLChanges()
	stop()

	if err := env.Push(nil, "/after"); err != nil {
		t.Fatalf("Push() = %v", err)
	}
	if b.path != "/after" {
		t.Errorf("navigation effect lost after stop: path=%q", b.path)
	}
	if got := len(pageSends(t, inv)); got != 0 {
		t.Errorf("page sends after stop = %d, want 0", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	b := &fakeBrowser{path: "/", title: "Home"}
	inv := &stubInvoker{}
	c := New(inv, b.env())

	stop := c.WatchURLChanges()
	stop()
	stop() // must not panic or disturb the restored primitive

	if err := c.env.Push(nil, "/x"); err != nil {
		t.Fatalf("Push() = %v", err)
	}
	if got := len(pageSends(t, inv)); got != 0 {
		t.Errorf("page sends = %d, want 0", got)
	}
}

func TestWatchSendFailureDoesNotBreakNavigation(t *testing.T) {
	b := &fakeBrowser{path: "/", title: "Home"}
	inv := &stubInvoker{err: errors.New("handler blew up")}
	c := New(inv, b.env())

	stop := c.WatchURLChanges()
	defer stop()

	if err := c.env.Push(nil, "/foo"); err != nil {
		t.Fatalf("Push() = %v, navigation must not fail on analytics errors", err)
	}
	if b.path != "/foo" {
		t.Errorf("navigation effect lost: path=%q", b.path)
	}
}

func TestNestedWatchEmitsPerWrapper(t *testing.T) {
	b := &fakeBrowser{path: "/", title: "Home"}
	inv := &stubInvoker{}
	c := New(inv, b.env())

	stopOuter := c.WatchURLChanges()
	stopInner := c.WatchURLChanges()

	if err := c.env.Push(nil, "/nested"); err != nil {
		t.Fatalf("Push() = %v", err)
	}
	if got := len(pageSends(t, inv)); got != 2 {
		t.Errorf("page sends with nested wrappers = %d, want 2", got)
	}

	// Unwind inner-first: the original primitive comes back and emission stops.
	stopInner()
	stopOuter()
	if err := c.env.Push(nil, "/done"); err != nil {
		t.Fatalf("Push() = %v", err)
	}
	if got := len(pageSends(t, inv)); got != 2 {
		t.Errorf("page sends after unwind = %d, want still 2", got)
	}
	if b.path != "/done" {
		t.Errorf("navigation effect lost: path=%q", b.path)
	}
}

func TestWatchNavigationFailurePropagates(t *testing.T) {
	pushErr := errors.New("blocked")
	env := nav.New(
		func(state any, url string) error { return pushErr },
		func() nav.Location { return nav.Location{Path: "/p", Title: "t"} },
	)
	inv := &stubInvoker{}
	c := New(inv, env)

	stop := c.WatchURLChanges()
	defer stop()

	if err := env.Push(nil, "/p"); !errors.Is(err, pushErr) {
		t.Errorf("Push() = %v, want the primitive's own error preserved", err)
	}
	// Emission still happens after the primitive ran.
	if got := len(pageSends(t, inv)); got != 1 {
		t.Errorf("page sends = %d, want 1", got)
	}
}
