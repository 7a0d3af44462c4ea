package model

import "fmt"

type SkipReason string

const (
	SkipMissingIdentity SkipReason = "missing identity"
	SkipDuplicate       SkipReason = "duplicate"
	SkipInvalidDate     SkipReason = "invalid date"
)

// SkippedRow describes one row left out of an import.
type SkippedRow struct {
	Row        int               `json:"row"`
	Reason     SkipReason        `json:"reason"`
	ExistingID string            `json:"found,omitempty"`
	Data       map[string]string `json:"row_data"`
}

// ImportReport is the result of one import run.
type ImportReport struct {
	Message        string       `json:"message"`
	Processed      int          `json:"processed"`
	Inserted       int          `json:"inserted"`
	Skipped        int          `json:"skipped"`
	SkippedDetails []SkippedRow `json:"skippedDetails"`
}

func (r *ImportReport) Summarize() {
	if r.Processed == 0 {
		r.Message = "No rows found in Excel"
		return
	}
	r.Message = fmt.Sprintf("Upload complete. Inserted: %d, Skipped: %d", r.Inserted, r.Skipped)
}
