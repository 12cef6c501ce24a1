package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Batch carries multiple messages across the boundary in one call. Envelope
// fields set on the batch apply to members that do not carry their own.
type Batch struct {
	Batch             []BatchMessage  `json:"batch"`
	OriginalTimestamp *time.Time      `json:"originalTimestamp,omitempty"`
	Context           json.RawMessage `json:"context,omitempty"`
	Integrations      json.RawMessage `json:"integrations,omitempty"`
}

// BatchMessage is a tagged union: exactly one member pointer is set, and the
// wire form carries the member's fields inline next to a "type" tag.
type BatchMessage struct {
	Identify *Identify
	Track    *Track
	Page     *Page
	Screen   *Screen
	Group    *Group
	Alias    *Alias
}

// Kind returns the kind name of the set member, or "" when none is set.
func (m BatchMessage) Kind() string {
	switch {
	case m.Identify != nil:
		return KindIdentify
	case m.Track != nil:
		return KindTrack
	case m.Page != nil:
		return KindPage
	case m.Screen != nil:
		return KindScreen
	case m.Group != nil:
		return KindGroup
	case m.Alias != nil:
		return KindAlias
	}
	return ""
}

// MarshalJSON flattens the set member and injects the "type" tag.
func (m BatchMessage) MarshalJSON() ([]byte, error) {
	switch {
	case m.Identify != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*Identify
		}{KindIdentify, m.Identify})
	case m.Track != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*Track
		}{KindTrack, m.Track})
	case m.Page != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*Page
		}{KindPage, m.Page})
	case m.Screen != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*Screen
		}{KindScreen, m.Screen})
	case m.Group != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*Group
		}{KindGroup, m.Group})
	case m.Alias != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*Alias
		}{KindAlias, m.Alias})
	}
	return nil, fmt.Errorf("event: batch message has no member set")
}

// UnmarshalJSON reads the "type" tag and decodes the matching member.
func (m *BatchMessage) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	*m = BatchMessage{}
	switch head.Type {
	case KindIdentify:
		m.Identify = &Identify{}
		return json.Unmarshal(data, m.Identify)
	case KindTrack:
		m.Track = &Track{}
		return json.Unmarshal(data, m.Track)
	case KindPage:
		m.Page = &Page{}
		return json.Unmarshal(data, m.Page)
	case KindScreen:
		m.Screen = &Screen{}
		return json.Unmarshal(data, m.Screen)
	case KindGroup:
		m.Group = &Group{}
		return json.Unmarshal(data, m.Group)
	case KindAlias:
		m.Alias = &Alias{}
		return json.Unmarshal(data, m.Alias)
	}
	return fmt.Errorf("event: unknown batch message type %q", head.Type)
}

// Validate checks the batch and every member before it leaves this layer.
func (b Batch) Validate() error {
	if len(b.Batch) == 0 {
		return &ValidationError{Field: "batch"}
	}
	if err := checkEnvelope(b.Context, b.Integrations); err != nil {
		return err
	}
	for _, m := range b.Batch {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the set member.
func (m BatchMessage) Validate() error {
	switch {
	case m.Identify != nil:
		return m.Identify.Validate()
	case m.Track != nil:
		return m.Track.Validate()
	case m.Page != nil:
		return m.Page.Validate()
	case m.Screen != nil:
		return m.Screen.Validate()
	case m.Group != nil:
		return m.Group.Validate()
	case m.Alias != nil:
		return m.Alias.Validate()
	}
	return &ValidationError{Field: "type"}
}
