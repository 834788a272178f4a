package session

import (
	"time"
)

// DefaultDisplayName is used whenever a session has not chosen a name.
const DefaultDisplayName = "Anonymous"

// Profile holds the user-chosen identity for a session. Values are trusted as
// opaque strings; the server never interprets them.
type Profile struct {
	DisplayName string `json:"displayName"`
	StatusText  string `json:"statusText,omitempty"`
	AvatarRef   string `json:"avatarRef,omitempty"`

	// LastSeen is set when the owning session disconnects. Entries with
	// LastSeen set are excluded from the active membership view but retained
	// for a while so late read receipts still resolve to a name.
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// ProfileStore maps session ids to profiles. Entries outlive their session
// until pruned, bounded by the retention window rather than deleted on
// disconnect.
type ProfileStore struct {
	profiles map[string]Profile
}

// NewProfileStore constructs an empty ProfileStore.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]Profile),
	}
}

// Set records the profile for a session, overwriting any prior entry.
// An empty display name falls back to DefaultDisplayName. Setting a profile
// clears any lastSeen mark, since only a live session can update its profile.
func (s *ProfileStore) Set(id string, p Profile) {
	if p.DisplayName == "" {
		p.DisplayName = DefaultDisplayName
	}
	p.LastSeen = nil

	s.profiles[id] = p
}

// Get returns the profile for a session, or a default profile when none was set.
func (s *ProfileStore) Get(id string) Profile {
	if p, ok := s.profiles[id]; ok {
		return p
	}

	return Profile{DisplayName: DefaultDisplayName}
}

// DisplayName resolves a session id to its current display name.
func (s *ProfileStore) DisplayName(id string) string {
	return s.Get(id).DisplayName
}

// MarkLastSeen stamps the disconnect time on a session's profile, creating a
// default entry when the session never set one. The entry is retained, not
// deleted, so later events can still be attributed to the name.
func (s *ProfileStore) MarkLastSeen(id string) {
	p, ok := s.profiles[id]
	if !ok {
		p = Profile{DisplayName: DefaultDisplayName}
	}

	now := time.Now()
	p.LastSeen = &now
	s.profiles[id] = p
}

// Prune removes entries whose session disconnected more than retention ago.
// Entries without a lastSeen mark belong to live sessions and are never
// touched. It returns the number of entries removed.
func (s *ProfileStore) Prune(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	removed := 0
	for id, p := range s.profiles {
		if p.LastSeen != nil && p.LastSeen.Before(cutoff) {
			delete(s.profiles, id)
			removed++
		}
	}

	return removed
}

// Len returns the number of stored profiles, live and recently disconnected.
func (s *ProfileStore) Len() int {
	return len(s.profiles)
}
