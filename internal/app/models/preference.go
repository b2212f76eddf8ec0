package models

import (
	"fmt"
	"slices"
	"time"
)

// ActionKind names one of the three preference sets a user can toggle a
// place in and out of.
type ActionKind string

const (
	ActionLike ActionKind = "like"
	ActionHide ActionKind = "hide"
	ActionPin  ActionKind = "pin"
)

// ParseActionKind validates a wire value into an ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	switch ActionKind(s) {
	case ActionLike, ActionHide, ActionPin:
		return ActionKind(s), nil
	}
	return "", fmt.Errorf("unknown action kind %q: %w", s, ErrBadRequest)
}

// Field returns the preference document field the kind maps to.
func (k ActionKind) Field() string {
	switch k {
	case ActionLike:
		return "liked"
	case ActionHide:
		return "hidden"
	case ActionPin:
		return "pinned"
	}
	return string(k)
}

// PreferenceSet is a user's preference document: three independent sets of
// place ids. A place may belong to any subset of the three. The document is
// created lazily on the first toggle and never explicitly deleted.
type PreferenceSet struct {
	UserID    string     `json:"userId,omitempty"`
	Liked     []string   `json:"liked"`
	Hidden    []string   `json:"hidden"`
	Pinned    []string   `json:"pinned"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// EmptyPreferenceSet returns the default document shape for a user with no
// stored preferences yet.
func EmptyPreferenceSet(userID string) PreferenceSet {
	return PreferenceSet{
		UserID: userID,
		Liked:  []string{},
		Hidden: []string{},
		Pinned: []string{},
	}
}

func (s *PreferenceSet) set(kind ActionKind) []string {
	switch kind {
	case ActionLike:
		return s.Liked
	case ActionHide:
		return s.Hidden
	case ActionPin:
		return s.Pinned
	}
	return nil
}

// Has reports membership of placeID in the set named by kind.
func (s *PreferenceSet) Has(kind ActionKind, placeID string) bool {
	return slices.Contains(s.set(kind), placeID)
}

// Clone returns a deep copy so optimistic mutations never alias the
// authoritative snapshot.
func (s PreferenceSet) Clone() PreferenceSet {
	out := s
	out.Liked = slices.Clone(s.Liked)
	out.Hidden = slices.Clone(s.Hidden)
	out.Pinned = slices.Clone(s.Pinned)
	return out
}

// PreferenceStats is the per-user aggregate shown on the profile page.
type PreferenceStats struct {
	Liked  int `json:"liked"`
	Hidden int `json:"hidden"`
	Pinned int `json:"pinned"`
}

// Stats counts the members of each set.
func (s *PreferenceSet) Stats() PreferenceStats {
	return PreferenceStats{
		Liked:  len(s.Liked),
		Hidden: len(s.Hidden),
		Pinned: len(s.Pinned),
	}
}
