// Package event defines the analytics event kinds accepted by the bridge and
// enforces their structural constraints before an event crosses the host
// boundary. Events are transient values: constructed by the caller, validated,
// serialized once and discarded.
package event

import (
	"encoding/json"
	"time"
)

// Kind names. These are the wire values used to tag batch members and the
// label values used by the bridge's metrics.
const (
	KindIdentify = "identify"
	KindTrack    = "track"
	KindPage     = "page"
	KindScreen   = "screen"
	KindGroup    = "group"
	KindAlias    = "alias"
)

// Identify associates the current user with their traits. Identity resolution
// itself (anonymous id, session state) is handled host-side by the transport
// collaborator.
type Identify struct {
	UserID            string          `json:"userId,omitempty"`
	Traits            map[string]any  `json:"traits,omitempty"`
	OriginalTimestamp *time.Time      `json:"originalTimestamp,omitempty"`
	Context           json.RawMessage `json:"context,omitempty"`
	Integrations      json.RawMessage `json:"integrations,omitempty"`
}

// Track records a named user action with arbitrary properties.
type Track struct {
	UserID            string          `json:"userId,omitempty"`
	Event             string          `json:"event" validate:"required,notblank"`
	Properties        map[string]any  `json:"properties,omitempty"`
	OriginalTimestamp *time.Time      `json:"originalTimestamp,omitempty"`
	Context           json.RawMessage `json:"context,omitempty"`
	Integrations      json.RawMessage `json:"integrations,omitempty"`
}

// Page records a page view.
type Page struct {
	UserID            string          `json:"userId,omitempty"`
	Name              string          `json:"name" validate:"required,notblank"`
	Properties        map[string]any  `json:"properties,omitempty"`
	OriginalTimestamp *time.Time      `json:"originalTimestamp,omitempty"`
	Context           json.RawMessage `json:"context,omitempty"`
	Integrations      json.RawMessage `json:"integrations,omitempty"`
}

// Screen is the mobile equivalent of Page.
type Screen struct {
	UserID            string          `json:"userId,omitempty"`
	Name              string          `json:"name" validate:"required,notblank"`
	Properties        map[string]any  `json:"properties,omitempty"`
	OriginalTimestamp *time.Time      `json:"originalTimestamp,omitempty"`
	Context           json.RawMessage `json:"context,omitempty"`
	Integrations      json.RawMessage `json:"integrations,omitempty"`
}

// Group associates the current user with a group and its traits.
type Group struct {
	UserID            string          `json:"userId,omitempty"`
	GroupID           string          `json:"groupId" validate:"required,notblank"`
	Traits            map[string]any  `json:"traits,omitempty"`
	OriginalTimestamp *time.Time      `json:"originalTimestamp,omitempty"`
	Context           json.RawMessage `json:"context,omitempty"`
	Integrations      json.RawMessage `json:"integrations,omitempty"`
}

// Alias merges two identities of a known user. Unlike every other kind, both
// id fields are required and the host never stamps an anonymous id on it.
type Alias struct {
	UserID            string          `json:"userId" validate:"required,notblank"`
	PreviousID        string          `json:"previousId" validate:"required,notblank"`
	Traits            map[string]any  `json:"traits,omitempty"`
	OriginalTimestamp *time.Time      `json:"originalTimestamp,omitempty"`
	Context           json.RawMessage `json:"context,omitempty"`
	Integrations      json.RawMessage `json:"integrations,omitempty"`
}

// Validate checks the event before it leaves this layer.
func (e Identify) Validate() error {
	if err := structErr(validate.Struct(e)); err != nil {
		return err
	}
	return checkEnvelope(e.Context, e.Integrations)
}

// Validate checks the event before it leaves this layer.
func (e Track) Validate() error {
	if err := structErr(validate.Struct(e)); err != nil {
		return err
	}
	return checkEnvelope(e.Context, e.Integrations)
}

// Validate checks the event before it leaves this layer.
func (e Page) Validate() error {
	if err := structErr(validate.Struct(e)); err != nil {
		return err
	}
	return checkEnvelope(e.Context, e.Integrations)
}

// Validate checks the event before it leaves this layer.
func (e Screen) Validate() error {
	if err := structErr(validate.Struct(e)); err != nil {
		return err
	}
	return checkEnvelope(e.Context, e.Integrations)
}

// Validate checks the event before it leaves this layer.
func (e Group) Validate() error {
	if err := structErr(validate.Struct(e)); err != nil {
		return err
	}
	return checkEnvelope(e.Context, e.Integrations)
}

// Validate checks the event before it leaves this layer.
func (e Alias) Validate() error {
	if err := structErr(validate.Struct(e)); err != nil {
		return err
	}
	return checkEnvelope(e.Context, e.Integrations)
}
