package pipeline

import (
	"fmt"
	"time"

	"go-jobwatch-automation/internal/provider"
)

// buildMessages renders the ordered message sequence for the sink: a header
// with the run statistics, one block per target entity with its postings in
// acceptance order, and a trailing total.
func buildMessages(accepted []provider.Posting, stats *Stats, fetched int, now time.Time) []string {
	timestamp := now.Format("2006-01-02 15:04")

	if len(accepted) == 0 {
		return []string{fmt.Sprintf("🔍 No new postings found (as of %s).", timestamp)}
	}

	header := fmt.Sprintf(
		"🔔 *New Postings (fetched at %s):*\n"+
			"📊 *Statistics:*\n"+
			"• Total postings processed: %d\n"+
			"• Postings delivered: %d\n"+
			"• Postings filtered out:\n%s\n"+
			"-------------------",
		timestamp, fetched, len(accepted), stats.BreakdownLines("  "),
	)
	messages := []string{header}

	//group by target entity, groups in first-acceptance order
	var order []string
	groups := make(map[string][]provider.Posting)
	for _, p := range accepted {
		key := p.Company
		if key == "" {
			key = "Unknown"
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	for _, company := range order {
		messages = append(messages, fmt.Sprintf("🏢 *%s*", company))
		for i, p := range groups[company] {
			messages = append(messages, formatPosting(i+1, p))
		}
	}

	messages = append(messages, fmt.Sprintf("✅ *Total postings listed: %d*", len(accepted)))
	return messages
}

func formatPosting(idx int, p provider.Posting) string {
	location := p.Location
	if location == "" {
		location = "N/A"
	}
	posted := "N/A"
	if p.PostedAt != nil {
		posted = p.PostedAt.Format("2006-01-02")
	}
	salary := "Not listed"
	if c := p.Compensation; c != nil && c.MinAmount > 0 && c.MaxAmount > 0 {
		salary = fmt.Sprintf("$%s – $%s / %s", thousands(c.MinAmount), thousands(c.MaxAmount), c.Interval)
	}
	source := p.Source
	if source == "" {
		source = "unknown"
	}
	return fmt.Sprintf(
		"%d. *%s*\n"+
			"📍 %s | 🕐 Posted: %s\n"+
			"💰 %s\n"+
			"🔗 <%s> via %s",
		idx, p.Title, location, posted, salary, p.ID, source,
	)
}

// thousands renders 92500 as "92,500".
func thousands(v float64) string {
	n := int64(v)
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	var parts []string
	for n > 0 {
		if n >= 1000 {
			parts = append([]string{fmt.Sprintf("%03d", n%1000)}, parts...)
		} else {
			parts = append([]string{fmt.Sprintf("%d", n%1000)}, parts...)
		}
		n /= 1000
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "," + p
	}
	return out
}
