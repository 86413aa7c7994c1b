package entity

import (
	"fmt"
	"strings"
)

// Priority classifies how urgently a recommendation should be applied
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IndexField is one key of an index with its sort direction, 1 for
// ascending and -1 for descending
type IndexField struct {
	Name      string `json:"name"`
	Direction int    `json:"direction"`
}

// IndexSpec describes an index that exists on a collection
type IndexSpec struct {
	Name   string       `json:"name"`
	Fields []IndexField `json:"fields"`
}

// NamesKey joins the field names in declared order, ignoring direction.
// Two indexes with the same NamesKey cover the same fields in the same
// order even when their sort directions differ.
func (s IndexSpec) NamesKey() string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return strings.Join(names, ",")
}

// ExactKey joins field names and directions in declared order. Two indexes
// are interchangeable for the server only when their ExactKeys match.
func (s IndexSpec) ExactKey() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = fmt.Sprintf("%s:%d", f.Name, f.Direction)
	}
	return strings.Join(parts, ",")
}

// IndexRule declares one index a collection is expected to carry. Rules
// name fields only; the recommended index ascends on every field.
type IndexRule struct {
	Fields   []string `json:"fields"`
	Reason   string   `json:"reason"`
	Priority Priority `json:"priority"`
}

// NamesKey joins the rule's field names in declared order
func (r IndexRule) NamesKey() string {
	return strings.Join(r.Fields, ",")
}

// IndexRecommendation proposes creating one index on a collection
type IndexRecommendation struct {
	Collection string       `json:"collection"`
	Fields     []IndexField `json:"fields"`
	Reason     string       `json:"reason"`
	Priority   Priority     `json:"priority"`
}

// Spec returns the index spec the recommendation would create, named by
// the server's default convention.
func (r IndexRecommendation) Spec() IndexSpec {
	return IndexSpec{
		Name:   DefaultIndexName(r.Fields),
		Fields: r.Fields,
	}
}

// DefaultIndexName builds the server's default name for an index,
// "field_1_other_-1"
func DefaultIndexName(fields []IndexField) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s_%d", f.Name, f.Direction)
	}
	return strings.Join(parts, "_")
}

// AscendingFields converts bare field names into ascending index fields
func AscendingFields(names []string) []IndexField {
	fields := make([]IndexField, len(names))
	for i, name := range names {
		fields[i] = IndexField{Name: name, Direction: 1}
	}
	return fields
}

// CollectionMetadata holds the index and size information read for one
// collection. A non-empty Error means the read failed and the other fields
// are zero values.
type CollectionMetadata struct {
	Collection    string      `json:"collection"`
	Indexes       []IndexSpec `json:"indexes"`
	DocumentCount int64       `json:"document_count"`
	StorageBytes  int64       `json:"storage_bytes"`
	IndexBytes    int64       `json:"index_bytes"`
	Error         string      `json:"error,omitempty"`
}

// RemediationStatus is the outcome of one index creation attempt
type RemediationStatus string

const (
	RemediationCreated RemediationStatus = "created"
	RemediationExists  RemediationStatus = "exists"
	RemediationError   RemediationStatus = "error"
)

// RemediationResult reports the outcome of applying one recommendation
type RemediationResult struct {
	Collection string            `json:"collection"`
	IndexName  string            `json:"index_name"`
	Priority   Priority          `json:"priority"`
	Status     RemediationStatus `json:"status"`
	Error      string            `json:"error,omitempty"`
}
