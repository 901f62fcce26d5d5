package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"github.com/rendezvous-csd/rendezvous-api/pkg/metrics"
	"go.uber.org/zap"
)

// SessionCache is an in-process session store. Each entry expires with its
// session; the janitor sweeps stale entries every cleanupInterval.
type SessionCache struct {
	cache *gocache.Cache
}

// NewSessionCache creates a new session cache
func NewSessionCache(cleanupInterval time.Duration) *SessionCache {
	sc := &SessionCache{
		cache: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
	sc.cache.OnEvicted(func(id string, _ interface{}) {
		logger.Debug("Session evicted", zap.String("session_id", id))
		sc.recordSize()
	})
	return sc
}

func (sc *SessionCache) recordSize() {
	metrics.ActiveSessions.Set(float64(sc.cache.ItemCount()))
}

// Save creates or overwrites the session with the same ID
func (sc *SessionCache) Save(_ context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		// go-cache reads 0 and -1 as "default" and "never"
		return fmt.Errorf("session %s is already expired", session.ID)
	}

	stored := *session
	sc.cache.Set(session.ID, &stored, ttl)
	sc.recordSize()
	return nil
}

// Get returns the session with the given ID, or (nil, false) when absent or expired
func (sc *SessionCache) Get(_ context.Context, id string) (*models.Session, bool, error) {
	data, found := sc.cache.Get(id)
	if !found {
		return nil, false, nil
	}

	session, ok := data.(*models.Session)
	if !ok {
		logger.Error("Invalid session cache data type", zap.String("session_id", id))
		sc.cache.Delete(id)
		return nil, false, fmt.Errorf("invalid cache data type")
	}

	copied := *session
	return &copied, true, nil
}

// Delete removes the session and reports whether a live one existed
func (sc *SessionCache) Delete(_ context.Context, id string) (bool, error) {
	_, found := sc.cache.Get(id)
	sc.cache.Delete(id)
	return found, nil
}

// Len returns the number of stored entries, expired ones included until swept
func (sc *SessionCache) Len() int {
	return sc.cache.ItemCount()
}
