// Package store holds the canonical list of tracked files and their
// lifecycle state. It is the single source of truth read by the scheduler,
// the transport strategies, and the public observables.
package store

import (
	"sync"

	"github.com/fileforge/uploadq/uptypes"
)

// Store is an insertion-ordered collection of tracked files keyed by id.
// All mutations apply synchronously under one lock, so a reader observes
// the effect of any mutation immediately after the call returns.
type Store struct {
	mu    sync.RWMutex
	order []string
	files map[string]*uptypes.TrackedFile
}

// New creates an empty store.
func New() *Store {
	return &Store{
		files: make(map[string]*uptypes.TrackedFile),
	}
}

// Add appends new records, preserving argument order. A record whose id is
// already present is skipped; Add never overwrites. It returns the records
// actually added.
func (s *Store) Add(files ...uptypes.TrackedFile) []uptypes.TrackedFile {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]uptypes.TrackedFile, 0, len(files))
	for _, f := range files {
		if f.ID == "" {
			continue
		}
		if _, exists := s.files[f.ID]; exists {
			continue
		}
		rec := f
		s.files[f.ID] = &rec
		s.order = append(s.order, f.ID)
		added = append(added, rec)
	}
	return added
}

// Remove deletes the record for id. Removing an absent id is a no-op;
// the bool reports whether anything was deleted.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return false
	}
	delete(s.files, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the store and returns the ids that were present.
func (s *Store) Clear() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.order
	s.order = nil
	s.files = make(map[string]*uptypes.TrackedFile)
	return ids
}

// Update merges the non-nil fields of upd into the record for id and
// returns the updated copy. The bool is false when no such record exists.
func (s *Store) Update(id string, upd uptypes.FileUpdate) (uptypes.TrackedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[id]
	if !ok {
		return uptypes.TrackedFile{}, false
	}
	if upd.Name != nil {
		rec.Name = *upd.Name
	}
	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if upd.Progress != nil {
		rec.Progress = *upd.Progress
	}
	if upd.RemoteURL != nil && rec.RemoteURL == "" {
		rec.RemoteURL = *upd.RemoteURL
	}
	if upd.RemotePath != nil && rec.RemotePath == "" {
		rec.RemotePath = *upd.RemotePath
	}
	if upd.Error != nil {
		rec.Error = *upd.Error
	}
	return *rec, true
}

// Get returns a copy of the record for id.
func (s *Store) Get(id string) (uptypes.TrackedFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.files[id]
	if !ok {
		return uptypes.TrackedFile{}, false
	}
	return *rec, true
}

// List returns copies of all records in insertion order.
func (s *Store) List() []uptypes.TrackedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]uptypes.TrackedFile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.files[id])
	}
	return out
}

// Len reports the number of tracked files.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
