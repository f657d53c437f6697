// Package filter classifies postings through an ordered chain of named
// acceptance stages. The first rejecting stage decides the reason and no
// later stage runs, so each posting is counted exactly once in the stats.
package filter

import (
	"strings"

	"go-jobwatch-automation/internal/provider"
)

// Reason identifies the stage that rejected a posting, or acceptance.
type Reason string

const (
	ReasonSeen                  Reason = "seen"
	ReasonSourceRejected        Reason = "source_rejected"
	ReasonTitleMissingKeyword   Reason = "title_missing_keyword"
	ReasonTitleRejected         Reason = "title_rejected"
	ReasonDescriptionRejected   Reason = "description_rejected"
	ReasonExperienceExceeded    Reason = "experience_exceeded"
	ReasonEasyApply             Reason = "easy_apply"
	ReasonSponsorshipRestricted Reason = "sponsorship_restricted"
	ReasonAccepted              Reason = "accepted"
)

// Reasons lists every rejection reason in chain order, then acceptance.
// Used by the stats summary to print counts in a stable order.
var Reasons = []Reason{
	ReasonSeen,
	ReasonSourceRejected,
	ReasonTitleMissingKeyword,
	ReasonTitleRejected,
	ReasonDescriptionRejected,
	ReasonExperienceExceeded,
	ReasonEasyApply,
	ReasonSponsorshipRestricted,
	ReasonAccepted,
}

// Outcome is the classification of one posting.
type Outcome struct {
	Accepted bool
	Reason   Reason
}

// SeenChecker is the dedup store view the chain needs.
type SeenChecker interface {
	IsSeen(id string) bool
}

// Rules holds the configured match lists. All matching is case-insensitive
// against normalized text.
type Rules struct {
	TitleKeywords      []string //allow-list: at least one must appear in the title
	TitleReject        []string //deny-list: seniority/role terms
	SourceReject       []string //deny-list: low-quality aggregators
	DescriptionReject  []string //deny-list: disqualifying phrases
	EasyApplyMarkers   []string //one-click application markers
	SponsorshipMarkers []string //no-sponsorship / citizenship-only markers
	MaxExperienceYears int      //reject when a required-experience phrase reaches this
}

// stage is one named predicate. match returns true to reject.
type stage struct {
	reason Reason
	match  func(p provider.Posting, text postingText) bool
}

// postingText carries the pre-normalized fields so each stage does not
// re-normalize. description is empty when the posting has none.
type postingText struct {
	title       string
	description string
	source      string
	company     string
}

// Chain is the ordered filter chain. Classify is safe for concurrent use.
type Chain struct {
	rules  Rules
	seen   SeenChecker
	exp    *experienceMatcher
	stages []stage
}

// NewChain builds the chain with the fixed stage order. Rule lists are
// normalized once here instead of on every Classify.
func NewChain(rules Rules, seen SeenChecker) *Chain {
	rules.TitleKeywords = normalizeAll(rules.TitleKeywords)
	rules.TitleReject = normalizeAll(rules.TitleReject)
	rules.SourceReject = normalizeAll(rules.SourceReject)
	rules.DescriptionReject = normalizeAll(rules.DescriptionReject)
	rules.EasyApplyMarkers = normalizeAll(rules.EasyApplyMarkers)
	rules.SponsorshipMarkers = normalizeAll(rules.SponsorshipMarkers)
	c := &Chain{
		rules: rules,
		seen:  seen,
		exp:   newExperienceMatcher(rules.MaxExperienceYears),
	}
	c.stages = []stage{
		{ReasonSeen, c.matchSeen},
		{ReasonSourceRejected, c.matchSourceReject},
		{ReasonTitleMissingKeyword, c.matchTitleMissingKeyword},
		{ReasonTitleRejected, c.matchTitleReject},
		{ReasonDescriptionRejected, c.matchDescriptionReject},
		{ReasonExperienceExceeded, c.matchExperienceExceeded},
		{ReasonEasyApply, c.matchEasyApply},
		{ReasonSponsorshipRestricted, c.matchSponsorship},
	}
	return c
}

// Classify runs the posting through the chain. First matching stage wins.
func (c *Chain) Classify(p provider.Posting) Outcome {
	text := postingText{
		title:       Normalize(p.Title),
		description: Normalize(p.Description),
		source:      Normalize(p.Source),
		company:     Normalize(p.Company),
	}
	for _, s := range c.stages {
		if s.match(p, text) {
			return Outcome{Accepted: false, Reason: s.reason}
		}
	}
	return Outcome{Accepted: true, Reason: ReasonAccepted}
}

func (c *Chain) matchSeen(p provider.Posting, _ postingText) bool {
	return c.seen != nil && c.seen.IsSeen(p.ID)
}

// matchSourceReject checks the source channel, but also the description and
// company fields, since aggregators often only reveal themselves in "via X" text.
func (c *Chain) matchSourceReject(_ provider.Posting, t postingText) bool {
	return containsAny(t.source, c.rules.SourceReject) ||
		containsAny(t.description, c.rules.SourceReject) ||
		containsAny(t.company, c.rules.SourceReject)
}

func (c *Chain) matchTitleMissingKeyword(_ provider.Posting, t postingText) bool {
	if len(c.rules.TitleKeywords) == 0 {
		return false
	}
	return !containsAny(t.title, c.rules.TitleKeywords)
}

func (c *Chain) matchTitleReject(_ provider.Posting, t postingText) bool {
	return containsAny(t.title, c.rules.TitleReject)
}

// matchDescriptionReject: an absent description never rejects.
func (c *Chain) matchDescriptionReject(_ provider.Posting, t postingText) bool {
	if t.description == "" {
		return false
	}
	return containsAny(t.description, c.rules.DescriptionReject)
}

func (c *Chain) matchExperienceExceeded(_ provider.Posting, t postingText) bool {
	if t.description == "" {
		return false
	}
	return c.exp.Exceeds(t.description)
}

// matchEasyApply scans title and description together, the way one-click
// markers show up in apply metadata.
func (c *Chain) matchEasyApply(_ provider.Posting, t postingText) bool {
	full := t.title + " " + t.description
	return containsAny(full, c.rules.EasyApplyMarkers)
}

func (c *Chain) matchSponsorship(_ provider.Posting, t postingText) bool {
	if t.description == "" {
		return false
	}
	return containsAny(t.description, c.rules.SponsorshipMarkers)
}

// containsAny reports whether any needle appears in the haystack. Both sides
// are expected to be normalized already.
func containsAny(haystack string, needles []string) bool {
	if haystack == "" {
		return false
	}
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
