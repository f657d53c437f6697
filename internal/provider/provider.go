// Define the posting model and the provider boundary
// Everything downstream of fetch is provider-agnostic

package provider

import (
	"context"
	"fmt"
	"time"
)

// Compensation is the advertised pay range, when the board exposes one.
type Compensation struct {
	MinAmount float64
	MaxAmount float64
	Interval  string //"yearly", "hourly", ...
}

// Posting is one discovered listing. Immutable once fetched.
type Posting struct {
	ID            string //stable identifier, canonical listing URL
	Title         string
	Company       string
	Location      string
	Description   string //may be empty, description stages must treat empty as non-matching
	Source        string //channel/site that produced the listing, e.g. "linkedin"
	PostedAt      *time.Time
	Compensation  *Compensation
	SearchContext string //label of the query that produced this posting
}

// Query is one discovery request, built once per run from config.
type Query struct {
	Term             string
	Company          string //optional target entity to scope the search to
	Location         string
	Sites            []string
	ExperienceLevels []string
	MaxAgeHours      int
	ResultsWanted    int
}

// Label identifies a query in logs and failure reports.
func (q Query) Label() string {
	if q.Company == "" {
		return q.Term
	}
	return q.Term + " @ " + q.Company
}

// Provider is the external listing provider. A Search call is one attempt;
// retry policy, if any, belongs to the caller.
type Provider interface {
	Search(ctx context.Context, q Query) ([]Posting, error)
	Name() string
}

// ProviderError wraps a network or parse failure from a provider call.
type ProviderError struct {
	Provider string
	Query    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: query %q: %v", e.Provider, e.Query, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
