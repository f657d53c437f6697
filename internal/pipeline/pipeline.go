// Package pipeline coordinates one discovery run: load the dedup store,
// fetch, filter, persist, notify. The coordinator owns every piece of
// mutable run state; there are no package-level caches or counters.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go-jobwatch-automation/internal/dedup"
	"go-jobwatch-automation/internal/fetch"
	"go-jobwatch-automation/internal/filter"
	"go-jobwatch-automation/internal/notify"
	"go-jobwatch-automation/internal/provider"
)

// State is the coordinator's position in the run.
type State string

const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateFetching   State = "fetching"
	StateFiltering  State = "filtering"
	StatePersisting State = "persisting"
	StateNotifying  State = "notifying"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// notifyTimeout bounds the Notifying stage on its own clock: a run that
// burnt its whole deadline fetching must still deliver what it collected.
const notifyTimeout = 5 * time.Minute

// Options tune the coordinator.
type Options struct {
	FilterWorkers int //concurrent classification budget, defaults to 10
}

// Pipeline wires the components together for one run at a time.
type Pipeline struct {
	store   *dedup.Store
	orch    *fetch.Orchestrator
	chain   *filter.Chain
	disp    *notify.Dispatcher
	queries []provider.Query
	opts    Options

	mu    sync.Mutex
	state State
}

// Report summarizes a finished run.
type Report struct {
	RunID         string
	State         State
	Fetched       int //raw postings returned by the provider
	Accepted      []provider.Posting
	FailedQueries map[string]error
	Stats         *Stats
	Sent          int //batches delivered to the sink
	FailedSends   int
	Elapsed       time.Duration
}

// New constructs a pipeline. The chain must already consult the same store
// for its seen stage.
func New(store *dedup.Store, orch *fetch.Orchestrator, chain *filter.Chain, disp *notify.Dispatcher, queries []provider.Query, opts Options) *Pipeline {
	if opts.FilterWorkers < 1 {
		opts.FilterWorkers = 10
	}
	return &Pipeline{
		store:   store,
		orch:    orch,
		chain:   chain,
		disp:    disp,
		queries: queries,
		opts:    opts,
		state:   StateIdle,
	}
}

// State returns the coordinator's current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) transition(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	log.Printf("▶️ Pipeline → %s", s)
}

// Run executes the whole cycle and reports what happened. The returned
// error is non-nil only for an unrecoverable infrastructure failure; a run
// full of rejections or failed queries still ends in StateDone.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID: uuid.NewString(),
		Stats: NewStats(),
	}
	log.Printf("🚀 Run %s starting with %d queries", report.RunID, len(p.queries))

	//── Loading: dedup load + expiry sweep ──
	p.transition(StateLoading)
	p.store.Load()

	//── Fetching: concurrent fan-out, failures contained per query ──
	p.transition(StateFetching)
	result := p.orch.Run(ctx, p.queries)
	report.Fetched = result.Fetched
	report.FailedQueries = result.Failed
	if len(result.Failed) == len(p.queries) && len(p.queries) > 0 {
		log.Printf("⚠️ All %d queries failed — continuing with empty result set", len(p.queries))
	}

	//── Filtering: classify concurrently, record accepted into the store ──
	p.transition(StateFiltering)
	report.Accepted = p.filterAll(result.Postings, report.Stats)

	//── Persisting: a write failure is fatal only if the load failed too ──
	p.transition(StatePersisting)
	if err := p.store.Save(); err != nil {
		if p.store.LoadFailed() {
			p.transition(StateFailed)
			report.State = StateFailed
			report.Elapsed = time.Since(start)
			return report, fmt.Errorf("dedup store unreadable and unwritable: %w", err)
		}
		log.Printf("⚠️ Failed to persist dedup store: %v — next run resumes from the last good save", err)
	}

	//── Notifying: runs on its own deadline, detached from the fetch one ──
	p.transition(StateNotifying)
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	messages := buildMessages(report.Accepted, report.Stats, report.Fetched, time.Now())
	report.Sent, report.FailedSends = p.disp.Dispatch(nctx, messages)

	p.transition(StateDone)
	report.State = StateDone
	report.Elapsed = time.Since(start)
	p.logSummary(report)
	return report, nil
}

// filterAll classifies every posting through the chain with a bounded worker
// pool. Accepted postings are recorded into the dedup store immediately, so
// a duplicate ID later in the same batch classifies as seen.
func (p *Pipeline) filterAll(postings []provider.Posting, stats *Stats) []provider.Posting {
	var (
		mu       sync.Mutex
		accepted []provider.Posting
	)

	var g errgroup.Group
	g.SetLimit(p.opts.FilterWorkers)
	for _, posting := range postings {
		posting := posting
		g.Go(func() error {
			outcome := p.chain.Classify(posting)
			stats.Count(outcome.Reason)
			if !outcome.Accepted {
				return nil
			}
			p.store.Record(posting.ID)
			mu.Lock()
			accepted = append(accepted, posting)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	log.Printf("🔍 Filtered: %d/%d postings accepted", len(accepted), len(postings))
	return accepted
}

func (p *Pipeline) logSummary(r *Report) {
	log.Printf("📊 Run %s summary:", r.RunID)
	log.Printf("  • fetched: %d, accepted: %d, rejected: %d", r.Fetched, len(r.Accepted), r.Stats.Rejected())
	log.Printf("%s", r.Stats.BreakdownLines("    "))
	if len(r.FailedQueries) > 0 {
		log.Printf("  • failed queries: %d", len(r.FailedQueries))
		for label, err := range r.FailedQueries {
			log.Printf("    - %q: %v", label, err)
		}
	}
	log.Printf("  • sink batches sent: %d, dropped: %d", r.Sent, r.FailedSends)
	log.Printf("  • elapsed: %s", r.Elapsed.Round(time.Millisecond))
}
