package preferences

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/littletrip/littletrip-api/internal/app/models"
)

var _ Store = (*LocalStore)(nil)

// Anonymous preference documents live for a month past their last use; a
// device that stops visiting eventually forgets its sets.
const localRetention = 30 * 24 * time.Hour

// LocalStore keeps per-device preference documents in process memory for
// visitors who never sign in. It mirrors the Postgres store's contract so
// the coordinator treats both the same way.
type LocalStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewLocalStore(c *cache.Cache) *LocalStore {
	return &LocalStore{cache: c}
}

func (s *LocalStore) Get(_ context.Context, ownerID string) (models.PreferenceSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ownerID), nil
}

func (s *LocalStore) Toggle(_ context.Context, ownerID string, kind models.ActionKind, placeID string, add bool) error {
	if _, err := models.ParseActionKind(string(kind)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.load(ownerID)
	next, _ := ApplyToggleMembership(set, kind, placeID, add)
	now := time.Now()
	next.UpdatedAt = &now
	s.cache.Set(localKey(ownerID), next, localRetention)
	return nil
}

// load returns a copy so callers never alias the cached document.
func (s *LocalStore) load(ownerID string) models.PreferenceSet {
	if v, ok := s.cache.Get(localKey(ownerID)); ok {
		if set, ok := v.(models.PreferenceSet); ok {
			return set.Clone()
		}
	}
	return models.EmptyPreferenceSet(ownerID)
}

func localKey(ownerID string) string {
	return "prefs:device:" + ownerID
}
