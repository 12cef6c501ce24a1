// Package nav models the navigation surface of the embedding environment as an
// explicit capability object. The auto-tracking hook observes client-side
// navigations by rebinding the push primitive through this object; nothing in
// the bridge mutates global state.
package nav

import (
	"fmt"
	"sync"
)

// Location describes the environment's current navigation state.
type Location struct {
	URL   string
	Path  string
	Title string
}

// PushFunc is the navigation-state-mutation primitive: it records state and
// moves the environment to url without a full reload.
type PushFunc func(state any, url string) error

// Environment owns the currently bound push primitive and a reader for the
// current location.
type Environment struct {
	mu     sync.RWMutex
	push   PushFunc
	locate func() Location
}

// New returns an Environment bound to the given primitive and location reader.
func New(push PushFunc, locate func() Location) *Environment {
	return &Environment{push: push, locate: locate}
}

// Location returns the current location and document title.
func (e *Environment) Location() Location {
	if e.locate == nil {
		return Location{}
	}
	return e.locate()
}

// Push invokes the currently bound push primitive.
func (e *Environment) Push(state any, url string) error {
	e.mu.RLock()
	p := e.push
	e.mu.RUnlock()
	if p == nil {
		return fmt.Errorf("nav: no push primitive bound")
	}
	return p(state, url)
}

// PushState returns the currently bound push primitive.
func (e *Environment) PushState() PushFunc {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.push
}

// SetPushState rebinds the push primitive. The auto-tracking hook uses this to
// install its wrapper and to restore the primitive it captured.
func (e *Environment) SetPushState(p PushFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.push = p
}
