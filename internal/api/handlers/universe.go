package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/internal/snapshot"
	"github.com/wonny/universe/pkg/logger"
	"github.com/wonny/universe/pkg/redis"
)

const (
	defaultDatesLimit = 30
	maxDatesLimit     = 365
)

// SnapshotReader reads the latest snapshot written to disk
type SnapshotReader interface {
	ReadRows() (json.RawMessage, error)
	ReadVersion() (contracts.Version, error)
}

// SnapshotArchive reads archived snapshots by trading day
type SnapshotArchive interface {
	Get(ctx context.Context, tradeDate string) (*snapshot.ArchivedSnapshot, error)
	ListDates(ctx context.Context, limit int) ([]string, error)
}

// UniverseHandler serves enriched snapshots to the dashboard
// ⭐ SSOT: 스냅샷 조회 API는 이 핸들러에서만
type UniverseHandler struct {
	files   SnapshotReader
	archive SnapshotArchive // nil when Postgres is not configured
	cache   *redis.Cache
	logger  *logger.Logger
}

// NewUniverseHandler creates a new universe handler
func NewUniverseHandler(files SnapshotReader, archive SnapshotArchive, cache *redis.Cache, log *logger.Logger) *UniverseHandler {
	return &UniverseHandler{
		files:   files,
		archive: archive,
		cache:   cache,
		logger:  log.WithField("module", "api_universe"),
	}
}

// GetLatest returns the latest snapshot rows
// GET /api/universe
func (h *UniverseHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	var rows json.RawMessage
	err := h.cache.GetOrSet(r.Context(), redis.LatestUniverseKey, &rows, redis.TTLShort, func() (interface{}, error) {
		return h.files.ReadRows()
	})
	if err != nil {
		h.fileError(w, err, "snapshot")
		return
	}

	respondRaw(w, http.StatusOK, rows)
}

// GetVersion returns the version marker of the latest snapshot
// GET /api/version
func (h *UniverseHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	var version contracts.Version
	err := h.cache.GetOrSet(r.Context(), redis.LatestVersionKey, &version, redis.TTLShort, func() (interface{}, error) {
		return h.files.ReadVersion()
	})
	if err != nil {
		h.fileError(w, err, "version")
		return
	}

	respondJSON(w, http.StatusOK, version)
}

// GetByDate returns the snapshot of one trading day
// GET /api/universe/{date}
func (h *UniverseHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date := mux.Vars(r)["date"]

	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)")
		return
	}

	var rows json.RawMessage
	found, err := h.cache.Get(ctx, redis.UniverseKey(date), &rows)
	if err != nil {
		h.logger.WithError(err).Warn("Snapshot cache read failed")
	}
	if found {
		respondRaw(w, http.StatusOK, rows)
		return
	}

	if h.archive == nil {
		respondError(w, http.StatusNotFound, "No snapshot for "+date)
		return
	}

	archived, err := h.archive.Get(ctx, date)
	switch {
	case errors.Is(err, snapshot.ErrSnapshotNotFound):
		respondError(w, http.StatusNotFound, "No snapshot for "+date)
		return
	case err != nil:
		h.logger.WithError(err).WithField("trade_date", date).Error("Failed to read archived snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve snapshot")
		return
	}

	respondRaw(w, http.StatusOK, archived.Rows)
}

// ListDates returns archived trading days, newest first
// GET /api/universe/dates?limit=30
func (h *UniverseHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	limit := defaultDatesLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxDatesLimit)
	}

	dates := []string{}
	if h.archive != nil {
		var err error
		dates, err = h.archive.ListDates(r.Context(), limit)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list snapshot dates")
			respondError(w, http.StatusInternalServerError, "Failed to list snapshots")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dates": dates,
		"count": len(dates),
	})
}

// fileError maps a missing snapshot file to 404
func (h *UniverseHandler) fileError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, fs.ErrNotExist) {
		respondError(w, http.StatusNotFound, "No "+what+" generated yet")
		return
	}
	h.logger.WithError(err).Error("Failed to read " + what)
	respondError(w, http.StatusInternalServerError, "Failed to retrieve "+what)
}
