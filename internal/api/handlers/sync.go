package handlers

import (
	"context"
	"net/http"
	"time"

	"flowinsight/internal/collector"
	"flowinsight/pkg/logger"
)

// Syncer is the slice of the collector the sync endpoints need.
type Syncer interface {
	SyncStockList(ctx context.Context) (*collector.SyncStats, error)
	SyncFlowHistory(ctx context.Context, secid string, limit int) (int, error)
	SyncAllFlowHistory(ctx context.Context, limit int) (*collector.SyncStats, error)
	SyncIndexes(ctx context.Context) error
}

// SyncHandler exposes manual sync triggers for operators.
type SyncHandler struct {
	syncer Syncer
	log    *logger.Logger
}

func NewSyncHandler(syncer Syncer, log *logger.Logger) *SyncHandler {
	return &SyncHandler{syncer: syncer, log: log}
}

// Stocks handles POST /api/sync/stocks.
func (h *SyncHandler) Stocks(w http.ResponseWriter, r *http.Request) {
	stats, err := h.syncer.SyncStockList(r.Context())
	if err != nil {
		h.log.WithError(err).Error("manual stock list sync failed")
		respondError(w, http.StatusBadGateway, "stock list sync failed")
		return
	}
	respondData(w, http.StatusOK, stats)
}

// Flows handles POST /api/sync/flows?secid=1.600519. With a secid it
// syncs one security and waits; without one it kicks off the full
// catalog walk in the background, since that takes far longer than any
// sane request timeout.
func (h *SyncHandler) Flows(w http.ResponseWriter, r *http.Request) {
	if secid := r.URL.Query().Get("secid"); secid != "" {
		rows, err := h.syncer.SyncFlowHistory(r.Context(), secid, collector.DefaultHistoryDepth)
		if err != nil {
			h.log.WithError(err).WithField("secid", secid).Error("manual flow sync failed")
			respondError(w, http.StatusBadGateway, "flow history sync failed")
			return
		}
		respondData(w, http.StatusOK, map[string]interface{}{
			"secid": secid,
			"rows":  rows,
		})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()
		if _, err := h.syncer.SyncAllFlowHistory(ctx, collector.DefaultHistoryDepth); err != nil {
			h.log.WithError(err).Error("background flow sync failed")
		}
	}()

	respondData(w, http.StatusAccepted, map[string]interface{}{
		"status": "sync started",
	})
}

// Indexes handles POST /api/sync/indexes.
func (h *SyncHandler) Indexes(w http.ResponseWriter, r *http.Request) {
	if err := h.syncer.SyncIndexes(r.Context()); err != nil {
		h.log.WithError(err).Error("manual index sync failed")
		respondError(w, http.StatusBadGateway, "index sync failed")
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
