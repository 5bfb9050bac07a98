package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"flowinsight/internal/market"
	"flowinsight/pkg/logger"
)

// QuoteProvider is the slice of the provider client the realtime
// endpoints need.
type QuoteProvider interface {
	FetchFlowRanking(ctx context.Context, limit int) ([]market.RealtimeFlow, error)
	FetchIndexQuotes(ctx context.Context) ([]market.IndexQuote, error)
}

// ttlCache holds one fetched value for a fixed lifetime so bursts of
// dashboard refreshes do not hammer the provider.
type ttlCache[T any] struct {
	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	ttl       time.Duration
}

func (c *ttlCache[T]) get(fetch func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl {
		return c.value, nil
	}

	value, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = value
	c.fetchedAt = time.Now()
	return value, nil
}

const (
	indexCacheTTL   = 5 * time.Minute
	rankingCacheTTL = time.Minute
	rankingLimit    = 50
)

// RealtimeHandler serves live provider data behind short caches.
type RealtimeHandler struct {
	provider QuoteProvider
	log      *logger.Logger

	indexes ttlCache[[]market.IndexQuote]
	ranking ttlCache[[]market.RealtimeFlow]
}

func NewRealtimeHandler(provider QuoteProvider, log *logger.Logger) *RealtimeHandler {
	h := &RealtimeHandler{provider: provider, log: log}
	h.indexes.ttl = indexCacheTTL
	h.ranking.ttl = rankingCacheTTL
	return h
}

// CapitalFlow handles GET /api/realtime/capital-flow.
func (h *RealtimeHandler) CapitalFlow(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.ranking.get(func() ([]market.RealtimeFlow, error) {
		return h.provider.FetchFlowRanking(r.Context(), rankingLimit)
	})
	if err != nil {
		h.log.WithError(err).Error("flow ranking fetch failed")
		respondError(w, http.StatusBadGateway, "provider unavailable")
		return
	}
	respondData(w, http.StatusOK, ranking)
}

// Index handles GET /api/realtime/index.
func (h *RealtimeHandler) Index(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.indexes.get(func() ([]market.IndexQuote, error) {
		return h.provider.FetchIndexQuotes(r.Context())
	})
	if err != nil {
		h.log.WithError(err).Error("index quote fetch failed")
		respondError(w, http.StatusBadGateway, "provider unavailable")
		return
	}
	respondData(w, http.StatusOK, quotes)
}
