package pipeline

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go-jobwatch-automation/internal/filter"
)

// Stats counts classification outcomes per reason. Counters are atomic so
// concurrent filter workers never lose an increment. Built fresh each run,
// never persisted.
type Stats struct {
	counts map[filter.Reason]*atomic.Int64
}

func NewStats() *Stats {
	s := &Stats{counts: make(map[filter.Reason]*atomic.Int64, len(filter.Reasons))}
	for _, r := range filter.Reasons {
		s.counts[r] = &atomic.Int64{}
	}
	return s
}

// Count records one outcome.
func (s *Stats) Count(r filter.Reason) {
	if c, ok := s.counts[r]; ok {
		c.Add(1)
	}
}

// Get returns the count for one reason.
func (s *Stats) Get(r filter.Reason) int64 {
	if c, ok := s.counts[r]; ok {
		return c.Load()
	}
	return 0
}

// Accepted returns the number of postings that passed every stage.
func (s *Stats) Accepted() int64 {
	return s.Get(filter.ReasonAccepted)
}

// Rejected returns the total across all rejection reasons.
func (s *Stats) Rejected() int64 {
	var total int64
	for _, r := range filter.Reasons {
		if r == filter.ReasonAccepted {
			continue
		}
		total += s.Get(r)
	}
	return total
}

// reasonLabels give the stats lines human wording, matching chain order.
var reasonLabels = []struct {
	reason filter.Reason
	label  string
}{
	{filter.ReasonSeen, "Already seen"},
	{filter.ReasonSourceRejected, "Source rejected"},
	{filter.ReasonTitleMissingKeyword, "Title mismatch"},
	{filter.ReasonTitleRejected, "Senior/Manager title"},
	{filter.ReasonDescriptionRejected, "Disqualifying description"},
	{filter.ReasonExperienceExceeded, "Too much experience required"},
	{filter.ReasonEasyApply, "Easy Apply"},
	{filter.ReasonSponsorshipRestricted, "No sponsorship"},
}

// BreakdownLines renders the per-reason rejection counts, one line each.
func (s *Stats) BreakdownLines(indent string) string {
	var b strings.Builder
	for _, rl := range reasonLabels {
		fmt.Fprintf(&b, "%s- %s: %d\n", indent, rl.label, s.Get(rl.reason))
	}
	return strings.TrimRight(b.String(), "\n")
}
