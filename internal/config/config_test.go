package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueriesTermsOnly(t *testing.T) {
	cfg := &Config{}
	cfg.Search.Terms = []string{"cybersecurity", "soc analyst"}
	cfg.applyDefaults()

	queries := cfg.BuildQueries()
	require.Len(t, queries, 2)
	assert.Equal(t, "cybersecurity", queries[0].Term)
	assert.Empty(t, queries[0].Company)
	assert.Equal(t, "United States", queries[0].Location)
	assert.Equal(t, []string{"linkedin"}, queries[0].Sites)
}

func TestBuildQueriesTermByCompanyFanOut(t *testing.T) {
	cfg := &Config{}
	cfg.Search.Terms = []string{"security engineer", "soc analyst"}
	cfg.Search.Companies = []string{"Acme", "Globex", "Initech"}
	cfg.applyDefaults()

	queries := cfg.BuildQueries()
	require.Len(t, queries, 6, "one query per term × company pair")
	assert.Equal(t, "security engineer", queries[0].Term)
	assert.Equal(t, "Acme", queries[0].Company)
	assert.Equal(t, "security engineer @ Acme", queries[0].Label())
}

func TestValidateRejectsEmptyTerms(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no search terms")
}

func TestValidateRejectsUnknownSink(t *testing.T) {
	cfg := &Config{}
	cfg.Search.Terms = []string{"x"}
	cfg.applyDefaults()
	cfg.Notify.Sink = "pigeon"

	assert.Error(t, cfg.Validate())
}

func TestValidateTelegramNeedsCredentials(t *testing.T) {
	cfg := &Config{}
	cfg.Search.Terms = []string{"x"}
	cfg.applyDefaults()
	cfg.Notify.Sink = "telegram"

	assert.Error(t, cfg.Validate())

	cfg.Notify.TelegramToken = "token"
	cfg.Notify.TelegramChatID = 42
	assert.NoError(t, cfg.Validate())
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Search.Terms = []string{"x"}
	cfg.applyDefaults()

	assert.Equal(t, 20, cfg.Notify.BatchSize)
	assert.Equal(t, 3, cfg.Notify.MaxRetries)
	assert.Equal(t, 5, cfg.Fetch.Workers)
	assert.Equal(t, 30, cfg.Cache.TTLDays)
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.Equal(t, 3, cfg.Filters.MaxExperienceYears)
}
