package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"amazon-scraper/models"
)

// PostgresStore is the SQL cache backend. Each Put writes a new generation
// of rows for the query key and deletes older generations afterwards, so a
// reader always sees either the previous complete entry or the new one.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string, ttl time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db, ttl: ttl}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS product_cache (
			id         SERIAL PRIMARY KEY,
			query_key  VARCHAR(255) NOT NULL,
			pos        INT          NOT NULL,
			title      TEXT         NOT NULL,
			price      NUMERIC(12,2),
			rating     NUMERIC(4,2),
			url        TEXT         NOT NULL,
			platform   VARCHAR(50)  NOT NULL,
			scraped_at TIMESTAMPTZ  NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_product_cache_key     ON product_cache(query_key);
		CREATE INDEX IF NOT EXISTS idx_product_cache_created ON product_cache(query_key, created_at);
	`)
	return err
}

// Get returns the newest generation for the query's key if it is younger
// than the TTL.
func (ps *PostgresStore) Get(query string) (*models.QueryResult, bool, error) {
	key := CacheKey(query)

	var createdAt sql.NullTime
	err := ps.db.QueryRow(
		`SELECT MAX(created_at) FROM product_cache WHERE query_key = $1`, key,
	).Scan(&createdAt)
	if err != nil {
		return nil, false, fmt.Errorf("postgres: lookup entry: %w", err)
	}
	if !createdAt.Valid {
		return nil, false, nil
	}
	if time.Since(createdAt.Time) >= ps.ttl {
		return nil, false, nil
	}

	rows, err := ps.db.Query(`
		SELECT title, price, rating, url, platform, scraped_at
		FROM product_cache
		WHERE query_key = $1 AND created_at = $2
		ORDER BY pos
	`, key, createdAt.Time)
	if err != nil {
		return nil, false, fmt.Errorf("postgres: fetch entry: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		var price, rating sql.NullFloat64
		if err := rows.Scan(&p.Title, &price, &rating, &p.URL, &p.Platform, &p.ScrapedAt); err != nil {
			return nil, false, fmt.Errorf("postgres: scan row: %w", err)
		}
		if price.Valid {
			p.Price = &price.Float64
		}
		if rating.Valid {
			p.Rating = &rating.Float64
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return &models.QueryResult{
		Query:     query,
		Products:  products,
		CreatedAt: createdAt.Time,
		Cached:    true,
	}, true, nil
}

// Put inserts a new generation for the key, then deletes older generations
// in the same transaction.
func (ps *PostgresStore) Put(query string, products []*models.Product) error {
	key := CacheKey(query)
	createdAt := time.Now().UTC()

	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	const batchSize = 50
	for i := 0; i < len(products); i += batchSize {
		end := i + batchSize
		if end > len(products) {
			end = len(products)
		}
		if err := insertBatch(tx, key, createdAt, i, products[i:end]); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		`DELETE FROM product_cache WHERE query_key = $1 AND created_at < $2`,
		key, createdAt,
	); err != nil {
		return fmt.Errorf("postgres: delete superseded: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertBatch(tx *sql.Tx, key string, createdAt time.Time, offset int, batch []*models.Product) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*9)

	for idx, p := range batch {
		base := idx * 9
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))

		var price, rating interface{}
		if p.Price != nil {
			price = *p.Price
		}
		if p.Rating != nil {
			rating = *p.Rating
		}
		valueArgs = append(valueArgs,
			key, offset+idx, p.Title, price, rating, p.URL, p.Platform, p.ScrapedAt, createdAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO product_cache (query_key, pos, title, price, rating, url, platform, scraped_at, created_at)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	if _, err := tx.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
