package handlers

import (
	"context"
	"net/http"
	"time"

	"flowinsight/internal/market"
	"flowinsight/pkg/logger"
)

// RecommendationReader reads stored daily shortlists.
type RecommendationReader interface {
	ListByDate(ctx context.Context, date time.Time) ([]market.Recommendation, error)
	LatestDate(ctx context.Context) (time.Time, error)
}

// RecommendationHandler serves the persisted shortlists.
type RecommendationHandler struct {
	recs RecommendationReader
	log  *logger.Logger
}

func NewRecommendationHandler(recs RecommendationReader, log *logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{recs: recs, log: log}
}

// List handles GET /api/recommendations?date=2025-07-31. Without a
// date it serves the most recent stored shortlist.
func (h *RecommendationHandler) List(w http.ResponseWriter, r *http.Request) {
	var date time.Time
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		date = d
	} else {
		latest, err := h.recs.LatestDate(r.Context())
		if err != nil {
			h.log.WithError(err).Error("latest recommendation date query failed")
			respondError(w, http.StatusInternalServerError, "failed to load recommendations")
			return
		}
		if latest.IsZero() {
			respondData(w, http.StatusOK, map[string]interface{}{
				"date":  nil,
				"items": []market.Recommendation{},
			})
			return
		}
		date = latest
	}

	entries, err := h.recs.ListByDate(r.Context(), date)
	if err != nil {
		h.log.WithError(err).Error("recommendation query failed")
		respondError(w, http.StatusInternalServerError, "failed to load recommendations")
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"date":  date.Format("2006-01-02"),
		"items": entries,
	})
}
