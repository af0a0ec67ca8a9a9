// Command searchcheck runs the reconciler over a beach fixture and a list of
// recorded geocoding responses, and checks the properties callers rely on:
// local matches first, no duplicate beaches, spaced external results and
// stable output across runs.
//
// Usage:
//
//	go run ./cmd/searchcheck \
//	  -beaches data/mock/beaches_recife.json \
//	  -queries data/mock/search_queries.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
)

// queryCase is one search with the provider response recorded for it.
type queryCase struct {
	Query  string                 `json:"query"`
	Places []domain.ExternalPlace `json:"places"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	beachesPath := flag.String("beaches", "data/mock/beaches_recife.json", "JSON array of beaches table rows")
	queriesPath := flag.String("queries", "data/mock/search_queries.json", "JSON array of queries with recorded places")
	flag.Parse()

	if *beachesPath == "" || *queriesPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*beachesPath, *queriesPath); code != 0 {
		os.Exit(code)
	}
}

func run(beachesPath, queriesPath string) int {
	fmt.Println("=== Beach Search Reconciliation Check ===")
	fmt.Println()

	rows, err := loadJSON[domain.BeachRow](beachesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load beaches: %v\n", err)
		return 1
	}
	beaches := make([]domain.BeachRecord, 0, len(rows))
	for i, row := range rows {
		b, err := row.ToRecord()
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: beach row %d: %v\n", i, err)
			return 1
		}
		beaches = append(beaches, b)
	}

	cases, err := loadJSON[queryCase](queriesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load queries: %v\n", err)
		return 1
	}

	phases := checkAll(beaches, cases)

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Fixture: %d beaches, %d queries\n", len(beaches), len(cases))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func checkAll(beaches []domain.BeachRecord, cases []queryCase) []*phase {
	ordering := &phase{name: "Local matches lead the results"}
	unique := &phase{name: "No duplicate records or beaches"}
	external := &phase{name: "External records carry no beach data"}
	spacing := &phase{name: "External records keep dedup spacing"}
	stable := &phase{name: "Reconciliation is deterministic"}
	empty := &phase{name: "Blank queries return nothing"}

	byID := make(map[string]bool, len(beaches))
	for _, b := range beaches {
		byID[b.ID] = true
	}

	for _, c := range cases {
		places := domain.FilterBeachLike(c.Places)
		local := domain.SearchLocal(c.Query, beaches)
		results := domain.Reconcile(local, places, beaches)

		fmt.Printf("  %-20q local=%d places=%d results=%d\n", c.Query, len(local), len(places), len(results))

		checkOrdering(ordering, c.Query, local, results)
		checkUnique(unique, c.Query, results, byID)
		checkExternal(external, c.Query, results)
		checkSpacing(spacing, c.Query, results)

		again := domain.Reconcile(domain.SearchLocal(c.Query, beaches), places, beaches)
		if diff := cmp.Diff(results, again); diff != "" {
			stable.errorf("%q: second run differs (-first +second):\n%s", c.Query, diff)
		}

		if len(local) == 0 && len(places) == 0 && len(results) != 0 {
			empty.errorf("%q: %d results from no inputs", c.Query, len(results))
		}
	}

	for _, q := range []string{"", "   ", "\t"} {
		if got := domain.SearchLocal(q, beaches); len(got) != 0 {
			empty.errorf("%q: matched %d beaches", q, len(got))
		}
	}

	return []*phase{ordering, unique, external, spacing, stable, empty}
}

func checkOrdering(p *phase, query string, local []domain.BeachRecord, results []domain.UnifiedBeachRecord) {
	if len(results) < len(local) {
		p.errorf("%q: %d results for %d local matches", query, len(results), len(local))
		return
	}
	for i, b := range local {
		r := results[i]
		if r.Provenance != domain.ProvenanceLocal || r.BeachID == nil || *r.BeachID != b.ID {
			p.errorf("%q: result %d is %s %q, want local beach %s", query, i, r.Provenance, r.Name, b.ID)
		}
	}
	for i := len(local); i < len(results); i++ {
		if results[i].Provenance == domain.ProvenanceLocal {
			p.errorf("%q: local record %q after external results", query, results[i].Name)
		}
	}
}

func checkUnique(p *phase, query string, results []domain.UnifiedBeachRecord, known map[string]bool) {
	ids := make(map[string]bool, len(results))
	beaches := make(map[string]bool, len(results))
	for _, r := range results {
		if ids[r.ID] {
			p.errorf("%q: duplicate record id %s", query, r.ID)
		}
		ids[r.ID] = true

		if r.BeachID == nil {
			continue
		}
		if !known[*r.BeachID] {
			p.errorf("%q: %q references unknown beach %s", query, r.Name, *r.BeachID)
		}
		if beaches[*r.BeachID] {
			p.errorf("%q: beach %s appears twice", query, *r.BeachID)
		}
		beaches[*r.BeachID] = true
	}
}

func checkExternal(p *phase, query string, results []domain.UnifiedBeachRecord) {
	for _, r := range results {
		if r.Provenance != domain.ProvenanceExternal {
			continue
		}
		if r.HasEnvironmentalData() || r.BeachID != nil {
			p.errorf("%q: external record %q carries beach data", query, r.Name)
		}
	}
}

func checkSpacing(p *phase, query string, results []domain.UnifiedBeachRecord) {
	for i, r := range results {
		if r.Provenance != domain.ProvenanceExternal {
			continue
		}
		for _, earlier := range results[:i] {
			if d := domain.DistanceKm(r.Coordinates, earlier.Coordinates); d < domain.DedupThresholdKm {
				p.errorf("%q: %q is %.3f km from %q", query, r.Name, d, earlier.Name)
			}
		}
	}
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
