package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// QueryStatKey identifies one tracked query family by collection and
// operation
type QueryStatKey struct {
	Collection string `json:"collection"`
	Operation  string `json:"operation"`
}

func (k QueryStatKey) String() string {
	return k.Collection + "." + k.Operation
}

// MarshalText lets the key serve as a JSON map key
func (k QueryStatKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a "collection.operation" pair. Collections may
// themselves contain dots, so the operation is everything after the last
// one.
func (k *QueryStatKey) UnmarshalText(text []byte) error {
	s := string(text)
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return fmt.Errorf("invalid query stat key: %q", s)
	}
	k.Collection = s[:idx]
	k.Operation = s[idx+1:]
	return nil
}

// QuerySample is one observed execution of a query family. The query shape
// is serialized at capture time so samples are immutable from then on.
type QuerySample struct {
	Query           string    `json:"query"`
	ExecutionTimeMs float64   `json:"execution_time_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

// QueryStats aggregates the executions observed for one query family
type QueryStats struct {
	Collection    string        `json:"collection"`
	Operation     string        `json:"operation"`
	Count         int64         `json:"count"`
	TotalTimeMs   float64       `json:"total_time_ms"`
	AvgTimeMs     float64       `json:"avg_time_ms"`
	MaxTimeMs     float64       `json:"max_time_ms"`
	RecentSamples []QuerySample `json:"recent_samples"`
}

// Clone returns a deep copy of the stats entry
func (s *QueryStats) Clone() QueryStats {
	out := *s
	out.RecentSamples = make([]QuerySample, len(s.RecentSamples))
	copy(out.RecentSamples, s.RecentSamples)
	return out
}

// SlowQueryRecord captures one execution that exceeded the slow query
// threshold
type SlowQueryRecord struct {
	Collection      string    `json:"collection"`
	Operation       string    `json:"operation"`
	Query           string    `json:"query"`
	ExecutionTimeMs float64   `json:"execution_time_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

// StatsSnapshot is a point-in-time deep copy of the recorder state. Holders
// may read and mutate it freely without affecting the live recorder.
type StatsSnapshot struct {
	TakenAt     time.Time                   `json:"taken_at"`
	Stats       map[QueryStatKey]QueryStats `json:"stats"`
	SlowQueries []SlowQueryRecord           `json:"slow_queries"`
}

// TotalQueries sums the execution counts across all query families
func (s *StatsSnapshot) TotalQueries() int64 {
	var total int64
	for _, stats := range s.Stats {
		total += stats.Count
	}
	return total
}

// SerializeQuery renders a query shape into a stable string form. Ordered
// BSON documents keep their declared field order; maps go through JSON,
// which sorts keys, so the same logical query always serializes
// identically.
func SerializeQuery(query interface{}) string {
	if query == nil {
		return "null"
	}

	switch q := query.(type) {
	case string:
		return q
	case bson.D:
		if data, err := bson.MarshalExtJSON(q, false, false); err == nil {
			return string(data)
		}
	}

	if data, err := json.Marshal(query); err == nil {
		return string(data)
	}

	return fmt.Sprintf("%v", query)
}
