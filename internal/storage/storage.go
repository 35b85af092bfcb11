// Package storage provides a SQLite-backed journal of observed markets and
// delivered alerts. It is write-only from the pipeline's point of view:
// duplicate suppression lives in memory and nothing here feeds back into
// predictions.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rewired-gh/btcsentry/internal/models"
)

// Journal wraps a SQLite database for audit persistence.
type Journal struct {
	db         *sql.DB
	maxMarkets int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/btcsentry/data.db.
func New(maxMarkets int, dbPath string) (*Journal, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "btcsentry", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	j := &Journal{db: db, maxMarkets: maxMarkets}
	if err := j.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS markets (
			id         TEXT PRIMARY KEY,
			slug       TEXT,
			question   TEXT,
			start_time INTEGER NOT NULL,
			close_time INTEGER NOT NULL,
			up_prob    REAL NOT NULL,
			down_prob  REAL NOT NULL,
			volume     REAL NOT NULL,
			first_seen INTEGER NOT NULL,
			last_seen  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id         TEXT PRIMARY KEY,
			market_id  TEXT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
			direction  TEXT NOT NULL,
			confidence INTEGER NOT NULL,
			risky      INTEGER NOT NULL DEFAULT 0,
			btc_price  REAL NOT NULL,
			change_24h REAL NOT NULL,
			payload    TEXT NOT NULL,
			sent_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_sent_at ON alerts(sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_markets_last_seen ON markets(last_seen)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordMarket upserts an observed market snapshot.
func (j *Journal) RecordMarket(market models.Market) error {
	if err := market.Validate(); err != nil {
		return fmt.Errorf("invalid market: %w", err)
	}
	_, err := j.db.Exec(`
		INSERT INTO markets
			(id, slug, question, start_time, close_time, up_prob, down_prob, volume, first_seen, last_seen)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			up_prob=excluded.up_prob,
			down_prob=excluded.down_prob,
			volume=excluded.volume,
			last_seen=excluded.last_seen`,
		market.ID, market.Slug, market.Question,
		market.StartTime.UnixNano(), market.CloseTime.UnixNano(),
		market.UpProbability, market.DownProbability, market.Volume,
		market.FetchedAt.UnixNano(), market.FetchedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record market: %w", err)
	}
	return nil
}

// RecordAlert records a delivered alert with its rendered payload.
func (j *Journal) RecordAlert(market models.Market, pred models.Prediction, price models.PricePoint, payload string, sentAt time.Time) error {
	_, err := j.db.Exec(`
		INSERT INTO alerts
			(id, market_id, direction, confidence, risky, btc_price, change_24h, payload, sent_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		uuid.New().String(), market.ID,
		string(pred.Direction), pred.Confidence, boolToInt(pred.Risky),
		price.Price, price.Change24h, payload, sentAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	return nil
}

// AlertCount reports how many alerts have been journaled for a market.
func (j *Journal) AlertCount(marketID string) (int, error) {
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM alerts WHERE market_id = ?`, marketID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}

// RotateMarkets keeps at most maxMarkets newest markets by last_seen.
// Cascading deletes remove their alerts.
func (j *Journal) RotateMarkets() error {
	_, err := j.db.Exec(`
		DELETE FROM markets WHERE id NOT IN (
			SELECT id FROM markets ORDER BY last_seen DESC LIMIT ?
		)`, j.maxMarkets)
	if err != nil {
		return fmt.Errorf("failed to rotate markets: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
