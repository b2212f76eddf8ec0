package preferences

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
	"github.com/littletrip/littletrip-api/internal/app/observability/metrics"
)

var _ Service = (*Coordinator)(nil)

// ToggleResult reports one completed toggle: whether the place ended up in
// the set, whether the authoritative write stuck, and the reconciled
// document.
type ToggleResult struct {
	Kind        models.ActionKind      `json:"kind"`
	PlaceID     string                 `json:"placeId"`
	Active      bool                   `json:"active"`
	Persisted   bool                   `json:"persisted"`
	Preferences models.PreferenceSet   `json:"preferences"`
	Stats       models.PreferenceStats `json:"stats"`
}

// Service is the preference surface the handlers and the catalog filter
// consume. An owner is either a signed-in user or an anonymous device; a
// request with neither gets empty sets.
type Service interface {
	GetFor(ctx context.Context, userID, deviceID string) (models.PreferenceSet, error)
	Toggle(ctx context.Context, userID, deviceID string, kind models.ActionKind, placeID string) (ToggleResult, error)
	StatsFor(ctx context.Context, userID, deviceID string) (models.PreferenceStats, error)
}

// ApplyToggle is the pure toggle reducer: it returns a new document with the
// place's membership in the named set inverted, reporting whether the place
// was added. Inputs are never mutated.
func ApplyToggle(set models.PreferenceSet, kind models.ActionKind, placeID string) (models.PreferenceSet, bool) {
	return ApplyToggleMembership(set, kind, placeID, !containsPlace(setFor(&set, kind), placeID))
}

// ApplyToggleMembership forces the place's membership in the named set to
// the given state, leaving the other two sets untouched.
func ApplyToggleMembership(set models.PreferenceSet, kind models.ActionKind, placeID string, add bool) (models.PreferenceSet, bool) {
	next := set.Clone()
	members := setFor(&next, kind)
	members = slices.DeleteFunc(members, func(id string) bool {
		return models.SamePlaceID(id, placeID)
	})
	if add {
		members = append(members, placeID)
	}
	switch kind {
	case models.ActionLike:
		next.Liked = members
	case models.ActionHide:
		next.Hidden = members
	case models.ActionPin:
		next.Pinned = members
	}
	return next, add
}

func setFor(set *models.PreferenceSet, kind models.ActionKind) []string {
	switch kind {
	case models.ActionLike:
		return slices.Clone(set.Liked)
	case models.ActionHide:
		return slices.Clone(set.Hidden)
	case models.ActionPin:
		return slices.Clone(set.Pinned)
	}
	return nil
}

func containsPlace(members []string, placeID string) bool {
	return slices.ContainsFunc(members, func(id string) bool {
		return models.SamePlaceID(id, placeID)
	})
}

// Coordinator runs the optimistic toggle flow against the right backend:
// apply the inversion to the in-memory view immediately, mark the toggle
// pending, issue the authoritative write, then reconcile the view from the
// backend whether the write succeeded or failed. Concurrent toggles resolve
// last-write-wins; the final re-fetch makes the view converge on whatever
// the backend holds.
type Coordinator struct {
	logger *zap.Logger
	remote Store
	local  Store

	// view holds the last known document per owner. Entries expire so the
	// coordinator never accumulates one snapshot per device forever.
	view *cache.Cache

	mu      sync.Mutex
	pending map[string]int
}

const (
	viewRetention = time.Hour
	viewSweep     = 10 * time.Minute
)

func NewCoordinator(remote, local Store, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		logger:  logger,
		remote:  remote,
		local:   local,
		view:    cache.New(viewRetention, viewSweep),
		pending: make(map[string]int),
	}
}

// resolve picks the backend and the view key for a request identity.
func (c *Coordinator) resolve(userID, deviceID string) (Store, string) {
	if userID != "" {
		return c.remote, "u:" + userID
	}
	if deviceID != "" {
		return c.local, "d:" + deviceID
	}
	return nil, ""
}

func ownerOf(key string) string { return key[2:] }

func (c *Coordinator) cachedView(key string) (models.PreferenceSet, bool) {
	if v, ok := c.view.Get(key); ok {
		if set, ok := v.(models.PreferenceSet); ok {
			return set.Clone(), true
		}
	}
	return models.PreferenceSet{}, false
}

func (c *Coordinator) storeView(key string, set models.PreferenceSet) {
	c.view.Set(key, set.Clone(), cache.DefaultExpiration)
}

// hasPending reports whether any toggle for this owner is mid-flight.
func (c *Coordinator) hasPending(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := key + "|"
	for k := range c.pending {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// GetFor returns the current view of an owner's preference document. While a
// toggle is mid-flight the optimistic view answers; otherwise the backend is
// re-read so the view tracks changes made by other sessions.
func (c *Coordinator) GetFor(ctx context.Context, userID, deviceID string) (models.PreferenceSet, error) {
	store, key := c.resolve(userID, deviceID)
	if store == nil {
		return models.EmptyPreferenceSet(""), nil
	}

	if c.hasPending(key) {
		if set, ok := c.cachedView(key); ok {
			return set, nil
		}
	}

	set, err := store.Get(ctx, ownerOf(key))
	if err != nil {
		return models.PreferenceSet{}, err
	}
	c.storeView(key, set)
	return set, nil
}

// Toggle inverts one membership through the optimistic flow.
func (c *Coordinator) Toggle(ctx context.Context, userID, deviceID string, kind models.ActionKind, placeID string) (ToggleResult, error) {
	if _, err := models.ParseActionKind(string(kind)); err != nil {
		return ToggleResult{}, err
	}
	store, key := c.resolve(userID, deviceID)
	if store == nil {
		return ToggleResult{}, models.ErrUnauthenticated
	}
	if m := metrics.Get(); m != nil {
		m.ToggleRequestsTotal.Add(ctx, 1)
	}

	base, err := c.GetFor(ctx, userID, deviceID)
	if err != nil {
		return ToggleResult{}, err
	}

	// Optimistic apply: the view flips before the backend confirms, so
	// concurrent readers see the new state immediately.
	optimistic, added := ApplyToggle(base, kind, placeID)
	pendingKey := key + "|" + string(kind) + "|" + placeID
	c.mu.Lock()
	c.pending[pendingKey]++
	c.mu.Unlock()
	c.storeView(key, optimistic)

	writeErr := store.Toggle(ctx, ownerOf(key), kind, placeID, added)
	if writeErr != nil {
		c.logger.Warn("Authoritative preference write failed, reconciling",
			zap.String("kind", string(kind)),
			zap.String("place_id", placeID),
			zap.Error(writeErr),
		)
	}

	// Reconcile on success and on failure alike: the backend's answer
	// replaces the optimistic guess either way.
	final := optimistic
	if fresh, ferr := store.Get(ctx, ownerOf(key)); ferr == nil {
		final = fresh
	} else {
		c.logger.Error("Reconciliation fetch failed, keeping optimistic view", zap.Error(ferr))
	}

	c.storeView(key, final)
	c.mu.Lock()
	if c.pending[pendingKey]--; c.pending[pendingKey] <= 0 {
		delete(c.pending, pendingKey)
	}
	c.mu.Unlock()

	return ToggleResult{
		Kind:        kind,
		PlaceID:     placeID,
		Active:      containsPlace(setFor(&final, kind), placeID),
		Persisted:   writeErr == nil,
		Preferences: final,
		Stats:       final.Stats(),
	}, nil
}

// IsPending reports whether a toggle for this owner, kind and place is
// mid-flight. The UI greys the button out while it is.
func (c *Coordinator) IsPending(userID, deviceID, kind, placeID string) bool {
	_, key := c.resolve(userID, deviceID)
	if key == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[key+"|"+kind+"|"+placeID] > 0
}

// StatsFor returns the per-set counts for the profile page.
func (c *Coordinator) StatsFor(ctx context.Context, userID, deviceID string) (models.PreferenceStats, error) {
	set, err := c.GetFor(ctx, userID, deviceID)
	if err != nil {
		return models.PreferenceStats{}, err
	}
	return set.Stats(), nil
}
