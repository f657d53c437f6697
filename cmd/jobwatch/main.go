package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go-jobwatch-automation/internal/config"
	"go-jobwatch-automation/internal/dedup"
	"go-jobwatch-automation/internal/fetch"
	"go-jobwatch-automation/internal/filter"
	"go-jobwatch-automation/internal/notify"
	"go-jobwatch-automation/internal/pipeline"
	"go-jobwatch-automation/internal/provider"
	"go-jobwatch-automation/internal/provider/boardapi"
)

func main() {
	//load config
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}
	queries := cfg.BuildQueries()
	log.Printf("🔧 Config loaded. %d queries, sink: %s", len(queries), cfg.Notify.Sink)

	//init sink
	sink, err := buildSink(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to init sink: %v", err)
	}

	//wire the pipeline
	store := dedup.NewStore(cfg.Cache.Path, cfg.TTL(), cfg.Cache.MaxEntries)
	chain := filter.NewChain(filter.Rules{
		TitleKeywords:      cfg.Filters.TitleKeywords,
		TitleReject:        cfg.Filters.TitleReject,
		SourceReject:       cfg.Filters.SourceReject,
		DescriptionReject:  cfg.Filters.DescriptionReject,
		EasyApplyMarkers:   cfg.Filters.EasyApplyMarkers,
		SponsorshipMarkers: cfg.Filters.SponsorshipMarkers,
		MaxExperienceYears: cfg.Filters.MaxExperienceYears,
	}, store)
	client := boardapi.NewClient(cfg.Provider.BaseURL, cfg.Provider.AppID, cfg.Provider.AppKey, cfg.Provider.Country)
	orch := fetch.NewOrchestrator(client, cfg.Fetch.Workers, cfg.QueryTimeout())
	disp := notify.NewDispatcher(sink, notify.Options{
		BatchSize:   cfg.Notify.BatchSize,
		MaxRetries:  cfg.Notify.MaxRetries,
		Pacing:      time.Duration(cfg.Notify.PacingSecs) * time.Second,
		BackoffBase: time.Duration(cfg.Notify.BackoffBaseSecs) * time.Second,
	})
	pipe := pipeline.New(store, orch, chain, disp, queries, pipeline.Options{})

	//whole-run deadline: a hung provider must never block delivery forever
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunDeadline())
	defer cancel()

	report, err := pipe.Run(ctx)
	if err != nil {
		log.Fatalf("❌ Pipeline failed: %v", err)
	}

	savePostings(report.Accepted)
	log.Printf("🏁 Run %s finished in state %s.", report.RunID, report.State)
}

// buildSink picks the sink from config. "none" returns nil, which the
// dispatcher treats as a logged no-op.
func buildSink(cfg *config.Config) (notify.Sink, error) {
	switch cfg.Notify.Sink {
	case "slack":
		if cfg.Notify.SlackWebhookURL == "" {
			log.Println("⚠️ SLACK_WEBHOOK_URL not set — notifications disabled")
			return nil, nil
		}
		return notify.NewSlackSink(cfg.Notify.SlackWebhookURL), nil
	case "telegram":
		return notify.NewTelegramSink(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
	default:
		return nil, nil
	}
}

// savePostings writes the delivered postings to a dated JSON log, handy for
// eyeballing what a run produced.
func savePostings(postings []provider.Posting) {
	if len(postings) == 0 {
		log.Println("ℹ️ No postings to save.")
		return
	}

	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create logs directory: %v", err)
		return
	}

	filename := fmt.Sprintf("job-search-%s.json", time.Now().Format("2006-01-02"))
	filePath := filepath.Join(logDir, filename)

	data, err := json.MarshalIndent(postings, "", " ")
	if err != nil {
		log.Printf("⚠️ Failed to marshal postings to JSON: %v", err)
		return
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.Printf("⚠️ Failed to write logs file: %v", err)
		return
	}
	log.Printf("📁 Results saved to %s", filePath)
}
