// Package stats aggregates read-only store observability data: memory
// usage, keyspace summary and operational counters, fetched in parallel and
// returned per section. One unreachable section degrades to a per-section
// error instead of failing the whole report.
package stats

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Store is the capability the reporter needs.
type Store interface {
	Info(ctx context.Context, section string) (string, error)
}

// Sections queried by every report.
var Sections = []string{"memory", "keyspace", "stats"}

// Section holds one section's parsed fields, or the error that prevented
// reading it.
type Section struct {
	Fields map[string]string `json:"fields,omitempty"`
	Err    string            `json:"error,omitempty"`
}

// Report maps section name to its result.
type Report map[string]Section

// Reporter fetches store statistics.
type Reporter struct {
	store Store
}

// New creates a stats reporter.
func New(s Store) *Reporter {
	return &Reporter{store: s}
}

// Report queries all sections in parallel. It never mutates store state and
// never returns an error: failures surface inside the affected section.
func (r *Reporter) Report(ctx context.Context) Report {
	results := make([]Section, len(Sections))

	var g errgroup.Group
	for i, name := range Sections {
		i, name := i, name
		g.Go(func() error {
			text, err := r.store.Info(ctx, name)
			if err != nil {
				results[i] = Section{Err: err.Error()}
				return nil
			}
			results[i] = Section{Fields: parseInfo(text)}
			return nil
		})
	}
	g.Wait()

	report := make(Report, len(Sections))
	for i, name := range Sections {
		report[name] = results[i]
	}
	return report
}

// parseInfo splits an INFO text block into key/value pairs. Comment and
// blank lines are dropped; everything before the first colon is the key.
func parseInfo(text string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[key] = value
	}
	return fields
}
