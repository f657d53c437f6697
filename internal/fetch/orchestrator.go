// Package fetch fans the configured queries out to the listing provider
// under a bounded worker budget and collects the union of results.
package fetch

import (
	"context"
	"log"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"go-jobwatch-automation/internal/provider"
)

// Result is the outcome of one fetch round.
type Result struct {
	Postings []provider.Posting
	Failed   map[string]error //query label -> error
	Fetched  int              //raw posting count before cross-query dedup
}

// Orchestrator runs one provider query per task, at most workers at a time.
// A failed query is recorded and skipped: it never aborts its siblings and
// is never retried within the run.
type Orchestrator struct {
	provider provider.Provider
	workers  int
	timeout  time.Duration //per-query deadline
}

// NewOrchestrator constructs an orchestrator. workers must be at least 1.
func NewOrchestrator(p provider.Provider, workers int, queryTimeout time.Duration) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{provider: p, workers: workers, timeout: queryTimeout}
}

// Run executes all queries and returns whatever was collected. Postings that
// multiple queries both return are kept once, by ID. No ordering guarantee.
//
// When ctx expires, queries not yet started are skipped and in-flight calls
// are abandoned: Run returns a snapshot of the results collected so far
// instead of waiting for stragglers.
func (o *Orchestrator) Run(ctx context.Context, queries []provider.Query) Result {
	var mu sync.Mutex
	res := Result{Failed: make(map[string]error)}
	ids := mapset.NewSet[string]()

	var g errgroup.Group
	g.SetLimit(o.workers)

	for _, q := range queries {
		if ctx.Err() != nil {
			mu.Lock()
			res.Failed[q.Label()] = ctx.Err()
			mu.Unlock()
			continue
		}
		q := q
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			postings, err := o.provider.Search(qctx, q)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("❌ Query %q failed: %v", q.Label(), err)
				res.Failed[q.Label()] = err
				return nil
			}
			for _, p := range postings {
				res.Fetched++
				if !ids.Add(p.ID) {
					continue //a sibling query already returned this posting
				}
				res.Postings = append(res.Postings, p)
			}
			log.Printf("  ✅ Query %q: %d postings", q.Label(), len(postings))
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("⚠️ Run deadline hit — abandoning in-flight queries")
	}

	//snapshot under the lock: abandoned tasks may still be appending
	mu.Lock()
	defer mu.Unlock()
	out := Result{
		Postings: append([]provider.Posting(nil), res.Postings...),
		Failed:   make(map[string]error, len(res.Failed)),
		Fetched:  res.Fetched,
	}
	for k, v := range res.Failed {
		out.Failed[k] = v
	}
	return out
}
