package history

import (
	"encoding/json"
	"time"
)

// RecordID identifier type
type RecordID string

// Record is a completed environment analysis kept for later retrieval.
type Record struct {
	ID                RecordID        `json:"id"`
	TenantID          string          `json:"tenant_id"`
	ImageURL          string          `json:"image_url"`
	ReferenceURL      string          `json:"reference_url,omitempty"`
	Result            json.RawMessage `json:"analise"`
	SimulatedImageURL string          `json:"imagem_simulada_url,omitempty"`
	ParseFailed       bool            `json:"erro_parse"`
	CatalogUsed       int             `json:"catalogo_usado"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Listing bounds. MaxPage keeps (page-1)*pageSize far from overflowing.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 10000
)

// Page is one page of records.
type Page struct {
	Data     []*Record `json:"data"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}
