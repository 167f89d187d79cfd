// Package doctor runs non-fatal startup diagnostics. Findings are shown as
// warnings in the UI, never as reasons to refuse to start.
package doctor

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"xpipe-browser/internal/appconfig"
	"xpipe-browser/internal/events"
	"xpipe-browser/internal/fuzzy"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Issue struct {
	Severity       Severity `json:"severity"`
	Check          string   `json:"check"`
	Target         string   `json:"target"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

// Warnings renders the report as one line per issue for the UI.
func (r Report) Warnings() []string {
	out := make([]string, 0, len(r.Issues))
	for _, i := range r.Issues {
		out = append(out, fmt.Sprintf("%s: %s (%s)", i.Check, i.Message, i.Recommendation))
	}
	return out
}

// Run executes local diagnostics for the browser.
func Run(cfg appconfig.Config) Report {
	var issues []Issue

	if !fuzzy.New(cfg.Matcher.Command, cfg.Matcher.Args...).Available() {
		issues = append(issues, Issue{
			Severity:       SeverityMedium,
			Check:          "matcher-binary",
			Target:         cfg.Matcher.Command,
			Message:        "fuzzy matcher not found in PATH",
			Recommendation: "install it or change matcher.command in config.yaml; / will be unavailable",
		})
	}

	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "base-url",
			Target:         cfg.BaseURL,
			Message:        "base_url is not a valid http(s) URL",
			Recommendation: "fix base_url in config.yaml",
		})
	}

	if recent, err := events.NewStore().Read(events.Query{
		Kind:  events.KindLaunchFailed,
		Since: time.Now().Add(-24 * time.Hour),
		Limit: 5,
	}); err == nil && len(recent) > 0 {
		last := recent[len(recent)-1]
		issues = append(issues, Issue{
			Severity:       SeverityLow,
			Check:          "recent-launch-failures",
			Target:         last.Target,
			Message:        fmt.Sprintf("%d launch failure(s) in the last 24h", len(recent)),
			Recommendation: "check the daemon's terminal configuration; see events.jsonl",
		})
	}

	sort.Slice(issues, func(i, j int) bool {
		ri := severityRank(issues[i].Severity)
		rj := severityRank(issues[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if issues[i].Check != issues[j].Check {
			return issues[i].Check < issues[j].Check
		}
		return issues[i].Target < issues[j].Target
	})
	return Report{Issues: issues}
}

func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}
