package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/internal/store"
	"github.com/goran-ethernal/DepositIndexor/pkg/downloader"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// EntityReader is the read side of the entity store.
type EntityReader interface {
	Load(ctx context.Context, kind, id string) ([]byte, bool, error)
	FindBy(ctx context.Context, kind, field string, value any) ([][]byte, error)
	List(ctx context.Context, kind string, limit, offset int) ([][]byte, error)
}

// SyncStateReader loads the download checkpoint of a chain.
type SyncStateReader interface {
	SyncState(ctx context.Context, chainID uint64) (*downloader.SyncState, error)
}

// SyncStateReaderFunc adapts a function to SyncStateReader.
type SyncStateReaderFunc func(ctx context.Context, chainID uint64) (*downloader.SyncState, error)

func (f SyncStateReaderFunc) SyncState(ctx context.Context, chainID uint64) (*downloader.SyncState, error) {
	return f(ctx, chainID)
}

// Handler handles HTTP requests for the API.
type Handler struct {
	entities EntityReader
	sync     SyncStateReader
	chains   []uint64
	kinds    map[string]struct{}
	log      *logger.Logger
}

// NewHandler creates a new API handler serving the given chains.
func NewHandler(entities EntityReader, sync SyncStateReader, chains []uint64, log *logger.Logger) *Handler {
	kinds := make(map[string]struct{}, len(model.EntityKinds)+len(model.EventKinds))
	for _, k := range model.EntityKinds {
		kinds[k] = struct{}{}
	}
	for _, k := range model.EventKinds {
		kinds[k] = struct{}{}
	}

	chains = slices.Clone(chains)
	slices.Sort(chains)

	return &Handler{
		entities: entities,
		sync:     sync,
		chains:   chains,
		kinds:    kinds,
		log:      log,
	}
}

// Health returns the health status of the API and the sync state of every chain.
// @Summary Health check
// @Description Check the health of the API and the sync state of every chain
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	statuses := make([]ChainStatus, 0, len(h.chains))
	for _, chainID := range h.chains {
		status := ChainStatus{ChainID: chainID}

		state, err := h.sync.SyncState(r.Context(), chainID)
		if err == nil {
			status.Healthy = true
			status.LastIndexedBlock = state.LastIndexedBlock
			status.Mode = state.Mode
		} else {
			h.log.Warnw("failed to read sync state", "chain_id", chainID, "error", err)
		}

		statuses = append(statuses, status)
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Chains:    statuses,
	})
}

// ListKinds returns the queryable entity and event kinds.
// @Summary List entity kinds
// @Description List the entity and event kinds that can be queried
// @Tags Entities
// @Produce json
// @Success 200 {object} KindsResponse "Entity kinds"
// @Router /entities [get]
func (h *Handler) ListKinds(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, KindsResponse{
		Entities: model.EntityKinds,
		Events:   model.EventKinds,
	})
}

// GetEntity returns one entity by id.
// @Summary Get entity
// @Description Get one entity by id
// @Tags Entities
// @Produce json
// @Param kind path string true "Entity kind"
// @Param id path string true "Entity id"
// @Success 200 {object} object "Entity"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /entities/{kind}/{id} [get]
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	id := strings.ToLower(r.PathValue("id"))
	data, found, err := h.entities.Load(r.Context(), kind, id)
	if err != nil {
		h.log.Errorw("failed to load entity", "kind", kind, "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load entity")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, fmt.Sprintf("%s '%s' not found", kind, id))
		return
	}

	respondRaw(w, http.StatusOK, data)
}

// ListEntities returns a page of entities of one kind.
// @Summary List entities
// @Description List entities of a kind, optionally filtered on an indexed field
// @Tags Entities
// @Produce json
// @Param kind path string true "Entity kind"
// @Param field query string false "Field to filter on"
// @Param value query string false "Value the field must equal"
// @Param limit query int false "Maximum number of entities" default(100)
// @Param offset query int false "Number of entities to skip" default(0)
// @Success 200 {object} EntityListResponse "Entities"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Unknown kind"
// @Router /entities/{kind} [get]
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	params, err := parseListParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	var rows [][]byte
	if params.Field != "" {
		rows, err = h.entities.FindBy(r.Context(), kind, params.Field, params.Value)
		if err == nil {
			rows = page(rows, params.Offset, params.Limit+1)
		}
	} else {
		// one extra row tells whether there is a next page
		rows, err = h.entities.List(r.Context(), kind, params.Limit+1, params.Offset)
	}
	if err != nil {
		h.log.Errorw("failed to list entities", "kind", kind, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list entities")
		return
	}

	hasMore := len(rows) > params.Limit
	if hasMore {
		rows = rows[:params.Limit]
	}

	entities := make([]json.RawMessage, len(rows))
	for i, row := range rows {
		entities[i] = row
	}

	respondJSON(w, http.StatusOK, EntityListResponse{
		Kind:     kind,
		Entities: entities,
		Pagination: PaginationResult{
			Limit:   params.Limit,
			Offset:  params.Offset,
			HasMore: hasMore,
		},
	})
}

// GetLatestSnapshot returns the latest snapshot pointers of a chain.
// @Summary Latest snapshot pointers
// @Description Get the pointers to the latest snapshots of a chain
// @Tags Snapshots
// @Produce json
// @Param chainId path int true "Chain id"
// @Success 200 {object} object "LatestSnapshot entity"
// @Failure 400 {object} ErrorResponse "Invalid chain id"
// @Failure 404 {object} ErrorResponse "No snapshot yet"
// @Router /chains/{chainId}/latest-snapshot [get]
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	chainID, ok := h.chainID(w, r)
	if !ok {
		return
	}

	data, found, err := h.entities.Load(r.Context(), model.KindLatestSnapshot, ids.LatestSnapshot(chainID))
	if err != nil {
		h.log.Errorw("failed to load latest snapshot", "chain_id", chainID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load latest snapshot")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, fmt.Sprintf("chain %d has no snapshot yet", chainID))
		return
	}

	respondRaw(w, http.StatusOK, data)
}

// GetSyncStatus returns the download checkpoint of a chain.
// @Summary Sync status
// @Description Get the download checkpoint of a chain
// @Tags Sync
// @Produce json
// @Param chainId path int true "Chain id"
// @Success 200 {object} SyncStatusResponse "Sync state"
// @Failure 400 {object} ErrorResponse "Invalid chain id"
// @Failure 404 {object} ErrorResponse "Unknown chain"
// @Router /chains/{chainId}/sync [get]
func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	chainID, ok := h.chainID(w, r)
	if !ok {
		return
	}

	state, err := h.sync.SyncState(r.Context(), chainID)
	if err != nil {
		h.log.Errorw("failed to read sync state", "chain_id", chainID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read sync state")
		return
	}

	respondJSON(w, http.StatusOK, SyncStatusResponse{
		ChainID:              chainID,
		LastIndexedBlock:     state.LastIndexedBlock,
		LastIndexedBlockHash: state.LastIndexedBlockHash.Hex(),
		LastIndexedTimestamp: state.LastIndexedTimestamp,
		Mode:                 state.Mode,
	})
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (string, bool) {
	kind := r.PathValue("kind")
	if _, ok := h.kinds[kind]; !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown entity kind '%s'", kind))
		return "", false
	}
	return kind, true
}

func (h *Handler) chainID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	chainID, err := strconv.ParseUint(r.PathValue("chainId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid chain id")
		return 0, false
	}
	if _, found := slices.BinarySearch(h.chains, chainID); !found {
		respondError(w, http.StatusNotFound, fmt.Sprintf("chain %d is not indexed", chainID))
		return 0, false
	}
	return chainID, true
}

// parseListParams parses HTTP query parameters into ListParams.
func parseListParams(r *http.Request) (*ListParams, error) {
	q := r.URL.Query()
	params := &ListParams{Limit: defaultLimit}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > maxLimit {
			return params, fmt.Errorf("invalid limit: must be between 1 and %d", maxLimit)
		}
		params.Limit = limit
	}

	if offsetStr := q.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return params, fmt.Errorf("invalid offset: must be non-negative")
		}
		params.Offset = offset
	}

	params.Field = q.Get("field")
	params.Value = q.Get("value")
	if (params.Field == "") != (params.Value == "") {
		return params, fmt.Errorf("field and value must be set together")
	}
	if params.Field != "" && !store.ValidField(params.Field) {
		return params, fmt.Errorf("invalid field '%s'", params.Field)
	}
	// ids are stored lowercased
	if strings.HasSuffix(params.Field, "Id") {
		params.Value = strings.ToLower(params.Value)
	}

	return params, nil
}

func page(rows [][]byte, offset, limit int) [][]byte {
	if offset >= len(rows) {
		return nil
	}
	return rows[offset:min(offset+limit, len(rows))]
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	// Encode JSON first to catch any errors before writing status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	respondRaw(w, status, encoded)
}

func respondRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Headers already sent, a failed write can only be dropped
	_, _ = w.Write(body)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
