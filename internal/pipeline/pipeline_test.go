package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobwatch-automation/internal/dedup"
	"go-jobwatch-automation/internal/fetch"
	"go-jobwatch-automation/internal/filter"
	"go-jobwatch-automation/internal/notify"
	"go-jobwatch-automation/internal/provider"
)

// stubProvider returns the same canned postings for every query, failing the
// terms listed in failing.
type stubProvider struct {
	postings map[string][]provider.Posting //term -> postings
	failing  map[string]error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Search(_ context.Context, q provider.Query) ([]provider.Posting, error) {
	if err := s.failing[q.Term]; err != nil {
		return nil, err
	}
	return s.postings[q.Term], nil
}

// recordingSink collects every batch it is given.
type recordingSink struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Post(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, text)
	return nil
}

func (r *recordingSink) all() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.calls, "\n")
}

func testRules() filter.Rules {
	return filter.Rules{
		TitleKeywords:      []string{"security", "soc"},
		TitleReject:        []string{"senior", "manager"},
		SourceReject:       []string{"dice"},
		MaxExperienceYears: 3,
	}
}

func buildPipeline(cacheDir string, sp *stubProvider, sink notify.Sink, terms ...string) (*Pipeline, *dedup.Store) {
	store := dedup.NewStore(cacheDir, 30*24*time.Hour, 1000)
	chain := filter.NewChain(testRules(), store)
	orch := fetch.NewOrchestrator(sp, 4, time.Second)
	disp := notify.NewDispatcher(sink, notify.Options{
		BatchSize:   20,
		MaxRetries:  2,
		Pacing:      time.Millisecond,
		BackoffBase: time.Millisecond,
	})
	var queries []provider.Query
	for _, term := range terms {
		queries = append(queries, provider.Query{Term: term})
	}
	return New(store, orch, chain, disp, queries, Options{FilterWorkers: 4}), store
}

func TestRunIdempotentDelivery(t *testing.T) {
	dir := t.TempDir()
	sp := &stubProvider{postings: map[string][]provider.Posting{
		"q": {
			{ID: "job/1", Title: "Security Analyst", Company: "Acme"},
			{ID: "job/2", Title: "SOC Analyst", Company: "Globex"},
		},
	}}

	//first run delivers both postings
	sink1 := &recordingSink{}
	p1, _ := buildPipeline(dir, sp, sink1, "q")
	r1, err := p1.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, r1.State)
	assert.Len(t, r1.Accepted, 2)
	assert.Contains(t, sink1.all(), "job/1")
	assert.Contains(t, sink1.all(), "job/2")

	//second run with the unchanged provider set delivers nothing new
	sink2 := &recordingSink{}
	p2, _ := buildPipeline(dir, sp, sink2, "q")
	r2, err := p2.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, r2.State)
	assert.Empty(t, r2.Accepted)
	assert.Equal(t, int64(2), r2.Stats.Get(filter.ReasonSeen))
	assert.Contains(t, sink2.all(), "No new postings")
	assert.NotContains(t, sink2.all(), "job/1")
}

func TestRunPartialQueryFailureStillNotifies(t *testing.T) {
	sp := &stubProvider{
		postings: map[string][]provider.Posting{},
		failing:  map[string]error{},
	}
	var terms []string
	for i := 1; i <= 10; i++ {
		term := fmt.Sprintf("q%d", i)
		terms = append(terms, term)
		if i <= 2 {
			sp.failing[term] = errors.New("provider down")
		} else {
			sp.postings[term] = []provider.Posting{
				{ID: term + "/job", Title: "Security Analyst " + term, Company: "Acme"},
			}
		}
	}

	sink := &recordingSink{}
	p, _ := buildPipeline(t.TempDir(), sp, sink, terms...)
	r, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateDone, r.State, "failed queries never fail the run")
	assert.Len(t, r.FailedQueries, 2)
	assert.Len(t, r.Accepted, 8)
	assert.NotEmpty(t, sink.calls, "the run reached Notifying")
}

func TestRunRecordsRejectionStats(t *testing.T) {
	sp := &stubProvider{postings: map[string][]provider.Posting{
		"q": {
			{ID: "job/ok", Title: "Security Analyst"},
			{ID: "job/senior", Title: "Senior Security Manager"},
			{ID: "job/bakery", Title: "Pastry Chef"},
			{ID: "job/dice", Title: "Security Analyst", Source: "via Dice"},
		},
	}}

	sink := &recordingSink{}
	p, _ := buildPipeline(t.TempDir(), sp, sink, "q")
	r, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, r.Fetched)
	assert.Equal(t, int64(1), r.Stats.Accepted())
	assert.Equal(t, int64(1), r.Stats.Get(filter.ReasonTitleRejected))
	assert.Equal(t, int64(1), r.Stats.Get(filter.ReasonTitleMissingKeyword))
	assert.Equal(t, int64(1), r.Stats.Get(filter.ReasonSourceRejected))
	assert.Equal(t, int64(3), r.Stats.Rejected())
}

func TestRunAcceptedPostingsArePersisted(t *testing.T) {
	dir := t.TempDir()
	sp := &stubProvider{postings: map[string][]provider.Posting{
		"q": {{ID: "job/1", Title: "Security Analyst"}},
	}}

	p, _ := buildPipeline(dir, sp, &recordingSink{}, "q")
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	//a fresh store over the same directory sees the delivered posting
	fresh := dedup.NewStore(dir, 30*24*time.Hour, 1000)
	fresh.Load()
	assert.True(t, fresh.IsSeen("job/1"))
}

func TestRunStateProgression(t *testing.T) {
	sp := &stubProvider{postings: map[string][]provider.Posting{}}
	p, _ := buildPipeline(t.TempDir(), sp, &recordingSink{}, "q")

	assert.Equal(t, StateIdle, p.State())
	r, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, p.State())
	assert.Equal(t, StateDone, r.State)
	assert.NotEmpty(t, r.RunID)
	assert.Greater(t, r.Elapsed, time.Duration(0))
}
