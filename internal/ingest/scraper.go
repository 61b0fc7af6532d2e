// Package ingest loads the scraper's SQLite output into the Postgres store,
// normalizing product text along the way so the extended grouping columns are
// populated.
package ingest

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// ScraperDB reads the registry scraper's SQLite database. Only the two tables
// the dashboard consumes are touched: imports_ui (one permit per row, scraped
// key/value payload) and import_products (product entries per permit).
type ScraperDB struct {
	db *sql.DB
}

// OpenScraperDB opens the scraper database read-only.
func OpenScraperDB(path string) (*ScraperDB, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open scraper db")
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "ingest: set busy_timeout")
	}
	return &ScraperDB{db: db}, nil
}

func (s *ScraperDB) Close() error {
	return s.db.Close()
}

// RawPermit is one scraped permit: its stable reference and the loosely keyed
// payload the scraper captured from the portal's detail view.
type RawPermit struct {
	Ref     string
	Payload map[string]any
}

// RawProduct is one scraped product row belonging to a permit.
type RawProduct struct {
	Ref     string
	Payload map[string]any
}

// Permits streams all scraped permits.
func (s *ScraperDB) Permits(ctx context.Context) ([]RawPermit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT import_reference, raw_json FROM imports_ui ORDER BY import_reference`)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: query imports_ui")
	}
	defer rows.Close()

	var permits []RawPermit
	for rows.Next() {
		var ref, raw string
		if err := rows.Scan(&ref, &raw); err != nil {
			return nil, eris.Wrap(err, "ingest: scan imports_ui row")
		}
		payload := map[string]any{}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, eris.Wrapf(err, "ingest: bad payload for %s", ref)
		}
		permits = append(permits, RawPermit{Ref: ref, Payload: payload})
	}
	return permits, eris.Wrap(rows.Err(), "ingest: imports_ui iterate")
}

// Products returns all scraped product rows grouped by permit reference.
func (s *ScraperDB) Products(ctx context.Context) (map[string][]RawProduct, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT import_reference, raw_json FROM import_products ORDER BY import_reference, id`)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: query import_products")
	}
	defer rows.Close()

	products := map[string][]RawProduct{}
	for rows.Next() {
		var ref, raw string
		if err := rows.Scan(&ref, &raw); err != nil {
			return nil, eris.Wrap(err, "ingest: scan import_products row")
		}
		payload := map[string]any{}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, eris.Wrapf(err, "ingest: bad product payload for %s", ref)
		}
		products[ref] = append(products[ref], RawProduct{Ref: ref, Payload: payload})
	}
	return products, eris.Wrap(rows.Err(), "ingest: import_products iterate")
}
