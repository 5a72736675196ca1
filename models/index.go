package models

import (
	"encoding/json"
	"time"
)

// RawIndexRecord is one index entry exactly as returned by the XTS API.
// The name field carries a composite "<label>_<token>" encoding.
type RawIndexRecord struct {
	Name                 string      `json:"name"`
	ExchangeInstrumentID json.Number `json:"exchangeInstrumentID,omitempty"`
	Description          string      `json:"description,omitempty"`
}

// IndexList is the decoded result of one index-list fetch. Raw preserves
// the verbatim record array for the audit artifact.
type IndexList struct {
	Segment Segment
	Records []RawIndexRecord
	Raw     json.RawMessage
}

// NormalizedIndexRecord is one row of the master file consumed by the
// trading terminal.
type NormalizedIndexRecord struct {
	ID        int
	IndexName string
	Token     string
	CreatedAt time.Time
}

// MasterTimestampFormat is the created_at layout in the CSV master file.
const MasterTimestampFormat = "2006-01-02 15:04:05.000"
