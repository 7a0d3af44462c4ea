package model

import (
	"strings"
	"time"
)

// Record is a canonical personnel entry.
type Record struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Designation string     `json:"designation"`
	WorkingArea string     `json:"workingArea"`
	ValidUpto   *time.Time `json:"validUpto"`
	CodeNo      string     `json:"codeNo"`
	AdhaarNo    string     `json:"adhaarNo"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// HasIdentity reports whether at least one identity field is set.
func (r Record) HasIdentity() bool {
	return r.CodeNo != "" || r.AdhaarNo != ""
}

// CodeNoKey is the case folded code number used for equality lookups.
func (r Record) CodeNoKey() string {
	return FoldCode(r.CodeNo)
}

func FoldCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// IdentityFilter matches records whose folded code number equals CodeNoKey
// or whose Aadhaar number equals AdhaarNo. Empty fields do not take part in
// the disjunction. ExcludeID, when set, removes that record from the match.
type IdentityFilter struct {
	CodeNoKey string
	AdhaarNo  string
	ExcludeID string
}

func (f IdentityFilter) Empty() bool {
	return f.CodeNoKey == "" && f.AdhaarNo == ""
}

// Matches applies the filter to a record in memory.
func (f IdentityFilter) Matches(r Record) bool {
	if f.ExcludeID != "" && r.ID == f.ExcludeID {
		return false
	}
	if f.CodeNoKey != "" && r.CodeNoKey() == f.CodeNoKey {
		return true
	}
	return f.AdhaarNo != "" && r.AdhaarNo == f.AdhaarNo
}
