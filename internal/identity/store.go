// Package identity persists the client identity that must survive restarts:
// the anonymous id, the last known user id and the user→anonymous linkage map.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// State is the JSON document written to disk.
type State struct {
	AnonymousID  string            `json:"anonymous_id"`
	UserID       string            `json:"user_id,omitempty"`
	ConnectedIDs map[string]string `json:"connected_ids"`
	OS           string            `json:"os,omitempty"`
	AppVersion   string            `json:"app_version,omitempty"`
}

// Store guards State behind a lock and knows how to load, save and watch the
// backing file.
type Store struct {
	path string

	mu    sync.RWMutex
	state State
}

// Open loads the state file at path, or starts fresh with a generated
// anonymous id when the file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.state = newState()
	case err != nil:
		return nil, fmt.Errorf("identity: read %s: %w", path, err)
	default:
		if err := json.Unmarshal(raw, &s.state); err != nil {
			return nil, fmt.Errorf("identity: parse %s: %w", path, err)
		}
		normalize(&s.state)
	}
	return s, nil
}

func newState() State {
	return State{
		AnonymousID:  uuid.NewString(),
		ConnectedIDs: make(map[string]string),
	}
}

func normalize(st *State) {
	if st.AnonymousID == "" {
		st.AnonymousID = uuid.NewString()
	}
	if st.ConnectedIDs == nil {
		st.ConnectedIDs = make(map[string]string)
	}
}

// AnonymousID returns the anonymous id stamped onto outgoing events.
func (s *Store) AnonymousID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AnonymousID
}

// SetAnonymousID overrides the anonymous id for all subsequent events,
// including the one on disk once Save runs.
func (s *Store) SetAnonymousID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AnonymousID = id
}

// UserID returns the last recorded user id, if any.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UserID
}

// SetUserID records the user id and links it to the current anonymous id.
// It reports whether the user id was already linked.
func (s *Store) SetUserID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserID = id
	if _, ok := s.state.ConnectedIDs[id]; ok {
		return true
	}
	s.state.ConnectedIDs[id] = s.state.AnonymousID
	return false
}

// SetPlatform records the host platform details kept alongside the identity.
func (s *Store) SetPlatform(osName, appVersion string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.OS = osName
	s.state.AppVersion = appVersion
}

// Save writes the current state to disk.
func (s *Store) Save() error {
	s.mu.RLock()
	raw, err := json.Marshal(s.state)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("identity: encode state: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("identity: write %s: %w", s.path, err)
	}
	return nil
}

// Watch reloads the state when the backing file changes on disk, so an
// anonymous id written by another process takes effect without a restart.
// The file must exist before Watch is called. Call the returned stop function
// to clean up.
func (s *Store) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("identity watcher: %w", err)
	}
	if err := w.Add(s.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("identity watcher add %s: %w", s.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if err := s.reload(); err != nil {
						slog.Warn("identity state reload failed", "err", err)
					}
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("identity watcher error", "err", werr)
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

func (s *Store) reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return err
	}
	normalize(&st)
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	slog.Debug("identity state reloaded", "path", s.path)
	return nil
}
