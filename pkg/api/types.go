package api

import (
	"encoding/json"
	"time"
)

// ListParams are the query parameters of an entity listing.
type ListParams struct {
	// Field and Value filter on an indexed JSON field; both or neither.
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`

	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// EntityListResponse is a page of entities of one kind.
type EntityListResponse struct {
	Kind       string            `json:"kind"`
	Entities   []json.RawMessage `json:"entities"`
	Pagination PaginationResult  `json:"pagination"`
}

// PaginationResult contains pagination metadata.
type PaginationResult struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// KindsResponse lists the queryable kinds.
type KindsResponse struct {
	Entities []string `json:"entities"`
	Events   []string `json:"events"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Chains    []ChainStatus `json:"chains"`
}

// ChainStatus is the sync summary of one chain.
type ChainStatus struct {
	ChainID          uint64 `json:"chain_id"`
	LastIndexedBlock uint64 `json:"last_indexed_block"`
	Mode             string `json:"mode"`
	Healthy          bool   `json:"healthy"`
}

// SyncStatusResponse is the download checkpoint of one chain.
type SyncStatusResponse struct {
	ChainID              uint64 `json:"chain_id"`
	LastIndexedBlock     uint64 `json:"last_indexed_block"`
	LastIndexedBlockHash string `json:"last_indexed_block_hash"`
	LastIndexedTimestamp int64  `json:"last_indexed_timestamp"`
	Mode                 string `json:"mode"`
}
