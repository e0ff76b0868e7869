package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
		ok   bool
	}{
		{"critical", SeverityCritical, true},
		{"unfavorable", SeverityUnfavorable, true},
		{"needs_review", SeverityNeedsReview, true},
		{"catastrophic", SeverityNeedsReview, false},
		{"CRITICAL", SeverityNeedsReview, false},
		{"", SeverityNeedsReview, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSeverity(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestRank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityUnfavorable.Rank())
	assert.Greater(t, SeverityUnfavorable.Rank(), SeverityNeedsReview.Rank())
	assert.Greater(t, SeverityNeedsReview.Rank(), Severity("bogus").Rank())
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "🔴", SeverityCritical.Badge())
	assert.Equal(t, "🟡", SeverityUnfavorable.Badge())
	assert.Equal(t, "🔵", SeverityNeedsReview.Badge())
}
