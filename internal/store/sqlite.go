// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	apperrors "github.com/bob7452/Icarus/internal/errors"
	"github.com/bob7452/Icarus/internal/models"
)

// SQLiteStore implements SnapshotStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based snapshot store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One valued contract per symbol, session, expiration, strike and type
	CREATE TABLE IF NOT EXISTS option_snapshot (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		date DATETIME NOT NULL,
		dte INTEGER NOT NULL,
		expiration DATE NOT NULL,
		strike REAL NOT NULL,
		option_type TEXT NOT NULL,
		iv REAL,
		delta REAL,
		gamma REAL,
		theta REAL,
		vega REAL,
		rho REAL,
		oi INTEGER NOT NULL,
		volume INTEGER NOT NULL,
		last_price REAL NOT NULL,
		underlying_price REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, date, expiration, strike, option_type)
	);

	-- Per-expiration skew summary derived from a committed snapshot
	CREATE TABLE IF NOT EXISTS skew_snapshot (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		snapshot_date DATETIME NOT NULL,
		expiration DATE NOT NULL,
		put_10delta_skew REAL,
		put_25delta_skew REAL,
		call_put_skew REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, snapshot_date, expiration)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshot_symbol_date ON option_snapshot(symbol, date);
	CREATE INDEX IF NOT EXISTS idx_snapshot_expiration ON option_snapshot(expiration);
	CREATE INDEX IF NOT EXISTS idx_skew_symbol_date ON skew_snapshot(symbol, snapshot_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a sqlite unique-constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if apperrors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// ============================================================================
// Contract Snapshot Methods
// ============================================================================

// AppendSnapshots inserts a batch of contract snapshots in one transaction.
// A duplicate key anywhere in the batch rolls the whole call back and returns
// ErrConstraintViolation; nothing is partially written.
func (s *SQLiteStore) AppendSnapshots(ctx context.Context, contracts []models.ContractSnapshot) error {
	if len(contracts) == 0 {
		return nil
	}
	for i := range contracts {
		if err := contracts[i].Validate(); err != nil {
			return apperrors.NewStoreError("append_snapshots", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO option_snapshot (symbol, date, dte, expiration, strike, option_type, iv, delta, gamma, theta, vega, rho, oi, volume, last_price, underlying_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range contracts {
		c := &contracts[i]
		_, err := stmt.ExecContext(ctx,
			c.Symbol, c.Date.UTC(), c.DTE, c.Expiration.Format("2006-01-02"), c.Strike, string(c.OptionType),
			nullFloat(c.IV), nullFloat(c.Delta), nullFloat(c.Gamma), nullFloat(c.Theta), nullFloat(c.Vega), nullFloat(c.Rho),
			c.OpenInterest, c.Volume, c.LastPrice, c.UnderlyingPrice)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.Wrapf(apperrors.ErrConstraintViolation,
					"duplicate contract %s %s %.2f %s", c.Symbol, c.Expiration.Format("2006-01-02"), c.Strike, c.OptionType)
			}
			return fmt.Errorf("failed to insert snapshot row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestCommittedDate returns the greatest session date with at least one row
// for the symbol. The bool is false when no session exists.
func (s *SQLiteStore) LatestCommittedDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	var latest sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(date) FROM option_snapshot WHERE symbol = ?
	`, symbol).Scan(&latest)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, false, fmt.Errorf("failed to get latest committed date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return latest.Time, true, nil
}

// LatestCommittedDateBefore returns the greatest session date strictly
// before cutoff for the symbol. The freshness gate uses this to find the
// previous committed snapshot even when the candidate's session is already
// partially visible elsewhere.
func (s *SQLiteStore) LatestCommittedDateBefore(ctx context.Context, symbol string, cutoff time.Time) (time.Time, bool, error) {
	var latest sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(date) FROM option_snapshot WHERE symbol = ? AND date < ?
	`, symbol, cutoff.UTC()).Scan(&latest)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, false, fmt.Errorf("failed to get latest committed date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return latest.Time, true, nil
}

// RowsForDate retrieves all contract rows for the given symbols at one session.
func (s *SQLiteStore) RowsForDate(ctx context.Context, symbols []string, date time.Time) ([]models.ContractSnapshot, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(symbols))
	args := []interface{}{date.UTC()}
	for i, sym := range symbols {
		placeholders[i] = "?"
		args = append(args, sym)
	}

	query := `
		SELECT symbol, date, dte, expiration, strike, option_type, iv, delta, gamma, theta, vega, rho, oi, volume, last_price, underlying_price
		FROM option_snapshot
		WHERE date = ? AND symbol IN (` + strings.Join(placeholders, ",") + `)
		ORDER BY symbol, expiration, strike
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot rows: %w", err)
	}
	defer rows.Close()

	return scanContracts(rows)
}

// Query retrieves contract rows matching the filter.
func (s *SQLiteStore) Query(ctx context.Context, filter SnapshotFilter) ([]models.ContractSnapshot, error) {
	query := `
		SELECT symbol, date, dte, expiration, strike, option_type, iv, delta, gamma, theta, vega, rho, oi, volume, last_price, underlying_price
		FROM option_snapshot WHERE 1=1`
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if !filter.Date.IsZero() {
		query += " AND date = ?"
		args = append(args, filter.Date.UTC())
	}
	if !filter.Expiration.IsZero() {
		query += " AND expiration = ?"
		args = append(args, filter.Expiration.Format("2006-01-02"))
	}
	if filter.OptionType != "" {
		query += " AND option_type = ?"
		args = append(args, string(filter.OptionType))
	}
	if filter.MaxDTE > 0 {
		query += " AND dte <= ?"
		args = append(args, filter.MaxDTE)
	}
	if filter.RequireIV {
		query += " AND iv IS NOT NULL AND delta IS NOT NULL"
	}

	query += " ORDER BY date, expiration, strike"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	return scanContracts(rows)
}

func scanContracts(rows *sql.Rows) ([]models.ContractSnapshot, error) {
	var contracts []models.ContractSnapshot
	for rows.Next() {
		var c models.ContractSnapshot
		var expiration string
		var optionType string
		var iv, delta, gamma, theta, vega, rho sql.NullFloat64

		if err := rows.Scan(&c.Symbol, &c.Date, &c.DTE, &expiration, &c.Strike, &optionType,
			&iv, &delta, &gamma, &theta, &vega, &rho, &c.OpenInterest, &c.Volume, &c.LastPrice, &c.UnderlyingPrice); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		exp, err := time.ParseInLocation("2006-01-02", expiration, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expiration %q: %w", expiration, err)
		}
		c.Expiration = exp
		c.OptionType = models.OptionType(optionType)
		c.IV = floatPtr(iv)
		c.Delta = floatPtr(delta)
		c.Gamma = floatPtr(gamma)
		c.Theta = floatPtr(theta)
		c.Vega = floatPtr(vega)
		c.Rho = floatPtr(rho)

		contracts = append(contracts, c)
	}

	return contracts, rows.Err()
}

// ============================================================================
// Skew Methods
// ============================================================================

// AppendSkewPoints inserts a batch of skew rows in one transaction.
func (s *SQLiteStore) AppendSkewPoints(ctx context.Context, points []models.SkewPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO skew_snapshot (symbol, snapshot_date, expiration, put_10delta_skew, put_25delta_skew, call_put_skew)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range points {
		p := &points[i]
		_, err := stmt.ExecContext(ctx,
			p.Symbol, p.SnapshotDate.UTC(), p.Expiration.Format("2006-01-02"),
			nullFloat(p.Put10DeltaSkew), nullFloat(p.Put25DeltaSkew), nullFloat(p.CallPutSkew))
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.Wrapf(apperrors.ErrConstraintViolation,
					"duplicate skew row %s %s %s", p.Symbol, p.SnapshotDate.Format("2006-01-02"), p.Expiration.Format("2006-01-02"))
			}
			return fmt.Errorf("failed to insert skew row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestTwoSkewDates returns the two most recent distinct skew dates for a
// symbol, newest first. Returns ErrInsufficientHistory with fewer than two.
func (s *SQLiteStore) LatestTwoSkewDates(ctx context.Context, symbol string) (time.Time, time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT snapshot_date FROM skew_snapshot
		WHERE symbol = ? ORDER BY snapshot_date DESC LIMIT 2
	`, symbol)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to query skew dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("failed to scan skew date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	if len(dates) < 2 {
		return time.Time{}, time.Time{}, apperrors.Wrapf(apperrors.ErrInsufficientHistory,
			"symbol %s has %d skew date(s)", symbol, len(dates))
	}
	return dates[0], dates[1], nil
}

// SkewRowsForDate retrieves all skew rows for one symbol and session.
func (s *SQLiteStore) SkewRowsForDate(ctx context.Context, symbol string, date time.Time) ([]models.SkewPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, snapshot_date, expiration, put_10delta_skew, put_25delta_skew, call_put_skew
		FROM skew_snapshot
		WHERE symbol = ? AND snapshot_date = ?
		ORDER BY expiration
	`, symbol, date.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query skew rows: %w", err)
	}
	defer rows.Close()

	return scanSkewPoints(rows)
}

// AllSkewRows retrieves every skew row for a symbol, oldest first. Used by
// the reporting projection.
func (s *SQLiteStore) AllSkewRows(ctx context.Context, symbol string) ([]models.SkewPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, snapshot_date, expiration, put_10delta_skew, put_25delta_skew, call_put_skew
		FROM skew_snapshot
		WHERE symbol = ?
		ORDER BY snapshot_date, expiration
	`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query skew rows: %w", err)
	}
	defer rows.Close()

	return scanSkewPoints(rows)
}

func scanSkewPoints(rows *sql.Rows) ([]models.SkewPoint, error) {
	var points []models.SkewPoint
	for rows.Next() {
		var p models.SkewPoint
		var expiration string
		var put10, put25, callPut sql.NullFloat64

		if err := rows.Scan(&p.Symbol, &p.SnapshotDate, &expiration, &put10, &put25, &callPut); err != nil {
			return nil, fmt.Errorf("failed to scan skew row: %w", err)
		}

		exp, err := time.ParseInLocation("2006-01-02", expiration, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expiration %q: %w", expiration, err)
		}
		p.Expiration = exp
		p.Put10DeltaSkew = floatPtr(put10)
		p.Put25DeltaSkew = floatPtr(put25)
		p.CallPutSkew = floatPtr(callPut)

		points = append(points, p)
	}

	return points, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
