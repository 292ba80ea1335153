package source

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/claimview/internal/cache"
	"github.com/ppiankov/claimview/internal/logging"
	"github.com/ppiankov/claimview/internal/model"
	"go.uber.org/zap"
)

var claimKinds = []Kind{KindDocuments, KindFacts, KindAssumptions, KindChecks, KindHistory}

// CachedSource serves snapshots from a cache, filling it from an inner
// source on a miss. Errors are never cached.
type CachedSource struct {
	inner Source
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedSource wraps inner; ttl 0 uses the cache's default
func NewCachedSource(inner Source, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedSource {
	return &CachedSource{
		inner: inner,
		cache: c,
		ttl:   ttl,
		log:   logging.OrNop(logger).Named("source.cache"),
	}
}

// ListClaims returns cached claims or loads them
func (s *CachedSource) ListClaims(ctx context.Context) ([]model.Claim, error) {
	return cached(ctx, s, KindClaims, "", s.inner.ListClaims)
}

// ListDocuments returns cached documents or loads them
func (s *CachedSource) ListDocuments(ctx context.Context, claimID string) ([]model.Document, error) {
	return cached(ctx, s, KindDocuments, claimID, func(ctx context.Context) ([]model.Document, error) {
		return s.inner.ListDocuments(ctx, claimID)
	})
}

// GetFacts returns cached facts or loads them
func (s *CachedSource) GetFacts(ctx context.Context, claimID string) (model.ClaimFacts, error) {
	return cached(ctx, s, KindFacts, claimID, func(ctx context.Context) (model.ClaimFacts, error) {
		return s.inner.GetFacts(ctx, claimID)
	})
}

// GetAssumptions returns cached assumptions or loads them
func (s *CachedSource) GetAssumptions(ctx context.Context, claimID string) ([]model.Assumption, error) {
	return cached(ctx, s, KindAssumptions, claimID, func(ctx context.Context) ([]model.Assumption, error) {
		return s.inner.GetAssumptions(ctx, claimID)
	})
}

// GetChecks returns cached checks or loads them
func (s *CachedSource) GetChecks(ctx context.Context, claimID string) ([]model.CheckResult, error) {
	return cached(ctx, s, KindChecks, claimID, func(ctx context.Context) ([]model.CheckResult, error) {
		return s.inner.GetChecks(ctx, claimID)
	})
}

// GetHistory returns cached history or loads it
func (s *CachedSource) GetHistory(ctx context.Context, claimID string) ([]model.HistoryEntry, error) {
	return cached(ctx, s, KindHistory, claimID, func(ctx context.Context) ([]model.HistoryEntry, error) {
		return s.inner.GetHistory(ctx, claimID)
	})
}

// Invalidate drops every cached snapshot of a claim; an empty id drops the
// claim list
func (s *CachedSource) Invalidate(claimID string) {
	if claimID == "" {
		_ = s.cache.Delete(cache.Key(string(KindClaims), ""))
		return
	}
	for _, kind := range claimKinds {
		_ = s.cache.Delete(cache.Key(string(kind), claimID))
	}
}

// Invalidator drops cached snapshots
type Invalidator interface {
	Invalidate(claimID string)
}

// Refresh drops cached snapshots of a claim (or the claim list for "") when
// src caches, and reports whether it did
func Refresh(src Source, claimID string) bool {
	inv, ok := src.(Invalidator)
	if ok {
		inv.Invalidate(claimID)
	}
	return ok
}

func cached[T any](ctx context.Context, s *CachedSource, kind Kind, claimID string, load func(context.Context) (T, error)) (T, error) {
	key := cache.Key(string(kind), claimID)

	if data, ok := s.cache.Get(key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			s.log.Debug("cache hit", zap.String("kind", string(kind)), zap.String("claim_id", claimID))
			return v, nil
		}
		_ = s.cache.Delete(key)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("cache encode failed", zap.String("kind", string(kind)), zap.Error(err))
		return v, nil
	}
	if err := s.cache.Set(key, data, s.ttl); err != nil {
		s.log.Warn("cache store failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	return v, nil
}
