package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobwatch-automation/internal/filter"
	"go-jobwatch-automation/internal/provider"
)

func TestBuildMessagesGroupsByCompany(t *testing.T) {
	stats := NewStats()
	for i := 0; i < 4; i++ {
		stats.Count(filter.ReasonAccepted)
	}
	stats.Count(filter.ReasonSeen)

	accepted := []provider.Posting{
		{ID: "a/1", Title: "SOC Analyst", Company: "Acme"},
		{ID: "g/1", Title: "Security Engineer", Company: "Globex"},
		{ID: "a/2", Title: "GRC Analyst", Company: "Acme"},
		{ID: "g/2", Title: "Threat Hunter", Company: "Globex"},
	}

	msgs := buildMessages(accepted, stats, 5, time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))

	//header + 2 group headers + 4 postings + trailing total
	require.Len(t, msgs, 8)
	assert.Contains(t, msgs[0], "Total postings processed: 5")
	assert.Contains(t, msgs[0], "Postings delivered: 4")
	assert.Contains(t, msgs[0], "Already seen: 1")

	joined := strings.Join(msgs, "\n")
	acmeIdx := strings.Index(joined, "🏢 *Acme*")
	globexIdx := strings.Index(joined, "🏢 *Globex*")
	require.NotEqual(t, -1, acmeIdx)
	require.NotEqual(t, -1, globexIdx)
	assert.Less(t, acmeIdx, globexIdx, "groups appear in first-acceptance order")

	//both Acme postings sit between the Acme and Globex headers
	acmeBlock := joined[acmeIdx:globexIdx]
	assert.Contains(t, acmeBlock, "SOC Analyst")
	assert.Contains(t, acmeBlock, "GRC Analyst")
	assert.NotContains(t, acmeBlock, "Threat Hunter")

	assert.Contains(t, msgs[len(msgs)-1], "Total postings listed: 4")
}

func TestBuildMessagesEmptyRun(t *testing.T) {
	msgs := buildMessages(nil, NewStats(), 12, time.Now())
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "No new postings")
}

func TestFormatPosting(t *testing.T) {
	posted := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	p := provider.Posting{
		ID:       "https://example.com/job/1",
		Title:    "Security Analyst",
		Location: "Remote, US",
		Source:   "linkedin",
		PostedAt: &posted,
		Compensation: &provider.Compensation{
			MinAmount: 70000,
			MaxAmount: 92500,
			Interval:  "yearly",
		},
	}

	msg := formatPosting(1, p)
	assert.Contains(t, msg, "*Security Analyst*")
	assert.Contains(t, msg, "Remote, US")
	assert.Contains(t, msg, "2026-08-30")
	assert.Contains(t, msg, "$70,000 – $92,500 / yearly")
	assert.Contains(t, msg, "<https://example.com/job/1> via linkedin")
}

func TestFormatPostingMissingFields(t *testing.T) {
	msg := formatPosting(1, provider.Posting{ID: "x", Title: "SOC Analyst"})
	assert.Contains(t, msg, "📍 N/A")
	assert.Contains(t, msg, "Posted: N/A")
	assert.Contains(t, msg, "Not listed")
	assert.Contains(t, msg, "via unknown")
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "500", thousands(500))
	assert.Equal(t, "1,000", thousands(1000))
	assert.Equal(t, "92,500", thousands(92500))
	assert.Equal(t, "1,234,567", thousands(1234567))
}
