package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name       string
		slow       int
		missing    int
		duplicates int
		want       int
	}{
		{"healthy", 0, 0, 0, 100},
		{"two slow queries", 2, 0, 0, 90},
		{"slow penalty reaches cap at six", 6, 0, 0, 70},
		{"slow penalty stays capped", 10, 0, 0, 70},
		{"missing indexes", 0, 4, 0, 88},
		{"missing penalty capped", 0, 7, 0, 80},
		{"duplicate issues", 0, 0, 3, 94},
		{"duplicate penalty capped", 0, 0, 8, 85},
		{"all classes capped", 10, 7, 8, 35},
		{"extreme counts clamp at caps", 1000, 1000, 1000, 35},
		{"mixed", 1, 2, 1, 87},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeScore(tt.slow, tt.missing, tt.duplicates))
		})
	}
}

func TestComputeScoreNeverLeavesRange(t *testing.T) {
	for slow := 0; slow <= 12; slow += 3 {
		for missing := 0; missing <= 12; missing += 3 {
			for dups := 0; dups <= 12; dups += 3 {
				score := ComputeScore(slow, missing, dups)
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
			}
		}
	}
}
