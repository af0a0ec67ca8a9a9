// Command seedsnapshot builds the SQLite beach snapshot from a JSON fixture
// of beaches table rows, so the service can start without a database.
//
// Usage:
//
//	go run ./cmd/seedsnapshot \
//	  -fixture data/mock/beaches_recife.json \
//	  -out beaches-snapshot.db
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/beach-safety-search/internal/adapter/sqlite"
	"github.com/couchcryptid/beach-safety-search/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fixture := flag.String("fixture", "data/mock/beaches_recife.json", "JSON array of beaches table rows")
	out := flag.String("out", "beaches-snapshot.db", "output path for the SQLite snapshot")
	savedAt := flag.String("saved-at", "", "snapshot timestamp (RFC 3339), defaults to now")
	flag.Parse()

	if *fixture == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -fixture, -out")
	}

	at := time.Now().UTC()
	if *savedAt != "" {
		parsed, err := time.Parse(time.RFC3339, *savedAt)
		if err != nil {
			return fmt.Errorf("invalid -saved-at: %w", err)
		}
		at = parsed
	}

	beaches, err := loadBeaches(*fixture)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(*out)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(context.Background(), beaches, at); err != nil {
		return err
	}
	log.Printf("wrote %d beaches to %s", len(beaches), *out)
	return nil
}

// loadBeaches reads fixture rows and applies the same NULL defaults as the
// database adapter.
func loadBeaches(path string) ([]domain.BeachRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var rows []domain.BeachRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	beaches := make([]domain.BeachRecord, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		b, err := row.ToRecord()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("row %d: duplicate beach id %s", i, b.ID)
		}
		seen[b.ID] = true
		beaches = append(beaches, b)
	}
	return beaches, nil
}
