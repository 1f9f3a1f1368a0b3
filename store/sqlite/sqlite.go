/*
Package sqlite provides the SQLite-backed transaction store.

PURPOSE:
  The single table of record for all reporting: insurance_transactions,
  22 columns, no primary key (duplicates are legal and counted). The
  same patterns apply to PostgreSQL - only minor dialect differences.

LIFECYCLE RULES:
  - Rows are created only by BulkInsert, one atomic transaction per
    batch: the whole row set is applied or none of it.
  - Rows are removed only by DeleteWhere, a filter-scoped bulk delete.
  - Rows are never individually mutated: no UPDATE statements exist.

NORMALIZATION:
  Branch, Class, Insured, Intermediary Type, Intermediary and Marketer
  are upper-cased before storage so that filter matching and grouping
  are case-insensitive in effect.

SCHEMA CONTRACT:
  Column display names are preserved exactly; "Trans Type" and
  "Dr/Cr No" carry special characters and are double-quoted wherever
  referenced.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode:
  multiple readers don't block, a single writer at a time.

USAGE:
  store, err := sqlite.New("./insurance_data.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := analytics.NewEngine(store.DB())

SEE ALSO:
  - analytics/engine.go: report catalog executed over DB()
  - analytics/filter.go: predicate construction for DeleteWhere/Rows
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/insight-engine/analytics"
)

// Store is the SQLite transaction store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// RowMap is one ingest row keyed by schema column display name.
type RowMap map[string]any

// New creates a store with the given database path. Use ":memory:" for
// an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// sidesteps SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for the report engine and the
// statistics tool layer, which execute their own read-only queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates the schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS insurance_transactions (
		"Transaction Date"  TEXT,
		"Policy No"         TEXT,
		"Trans Type"        TEXT,
		"Branch"            TEXT,
		"Class"             TEXT,
		"Dr/Cr No"          TEXT,
		"Risk ID"           TEXT,
		"Insured"           TEXT,
		"Intermediary Type" TEXT,
		"Intermediary"      TEXT,
		"Marketer"          TEXT,
		"WEF"               TEXT,
		"WET"               TEXT,
		"CURRENCY"          TEXT,
		"Sum Insured"       REAL,
		"Premium"           REAL,
		"PAID"              REAL,
		"Year"              INTEGER,
		"Month Name"        TEXT,
		"Month"             INTEGER,
		"Quarter"           INTEGER,
		"Weeks"             INTEGER
	);

	-- Hot paths: every report filters on some subset of these.
	CREATE INDEX IF NOT EXISTS idx_transactions_year_month
		ON insurance_transactions("Year", "Month");
	CREATE INDEX IF NOT EXISTS idx_transactions_intermediary_type
		ON insurance_transactions("Intermediary Type");
	CREATE INDEX IF NOT EXISTS idx_transactions_class
		ON insurance_transactions("Class");
	CREATE INDEX IF NOT EXISTS idx_transactions_branch
		ON insurance_transactions("Branch");
	`

	_, err := s.db.Exec(schema)
	return err
}

// quotedColumns returns the full column list, each name double-quoted.
func quotedColumns() string {
	quoted := make([]string, len(analytics.Columns))
	for i, c := range analytics.Columns {
		quoted[i] = `"` + c + `"`
	}
	return strings.Join(quoted, ", ")
}

// =============================================================================
// BULK INSERT
// =============================================================================

// BulkInsert appends a validated batch of rows in a single transaction.
// The batch is rejected whole if any schema column is missing from the
// row set; designated text fields are upper-cased before storage.
// Returns the number of rows inserted.
func (s *Store) BulkInsert(ctx context.Context, rows []RowMap) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := validateColumns(rows[0]); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO ` + analytics.TableName + ` (` + quotedColumns() + `)
		VALUES (` + strings.TrimSuffix(strings.Repeat("?, ", len(analytics.Columns)), ", ") + `)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, len(analytics.Columns))
		for i, col := range analytics.Columns {
			args[i] = normalizeValue(col, row[col])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return len(rows), nil
}

// validateColumns checks the 22-column contract against the batch's
// column set.
func validateColumns(row RowMap) error {
	var missing []string
	for _, col := range analytics.Columns {
		if _, ok := row[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &analytics.MissingColumnsError{Missing: missing}
	}
	return nil
}

// normalizeValue upper-cases designated text fields at ingestion.
func normalizeValue(col string, v any) any {
	str, ok := v.(string)
	if !ok {
		return v
	}
	for _, u := range analytics.UppercaseColumns {
		if col == u {
			return strings.ToUpper(strings.TrimSpace(str))
		}
	}
	return str
}

// =============================================================================
// BULK DELETE
// =============================================================================

// DeleteWhere removes every row matching the filter selection in one
// atomic statement. Irreversible. Returns the number of rows removed.
func (s *Store) DeleteWhere(ctx context.Context, f analytics.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clause, args := f.Predicate()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM `+analytics.TableName+` WHERE `+clause, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rows: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// ROW BROWSE
// =============================================================================

// Rows returns all transactions matching the filter, in storage order.
// Feeds the data page and the spreadsheet export.
func (s *Store) Rows(ctx context.Context, f analytics.Filter) ([]analytics.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := f.Predicate()
	query := `SELECT ` + quotedColumns() + ` FROM ` + analytics.TableName + ` WHERE ` + clause

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var records []analytics.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (analytics.Record, error) {
	var (
		rec        analytics.Record
		text       [14]sql.NullString
		sumInsured sql.NullFloat64
		premium    sql.NullFloat64
		paid       sql.NullFloat64
		year       sql.NullInt64
		monthName  sql.NullString
		month      sql.NullInt64
		quarter    sql.NullInt64
		weeks      sql.NullInt64
	)

	err := rows.Scan(
		&text[0], &text[1], &text[2], &text[3], &text[4], &text[5], &text[6],
		&text[7], &text[8], &text[9], &text[10], &text[11], &text[12], &text[13],
		&sumInsured, &premium, &paid,
		&year, &monthName, &month, &quarter, &weeks,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan row: %w", err)
	}

	rec.TransactionDate = text[0].String
	rec.PolicyNo = text[1].String
	rec.TransType = text[2].String
	rec.Branch = text[3].String
	rec.Class = text[4].String
	rec.DrCrNo = text[5].String
	rec.RiskID = text[6].String
	rec.Insured = text[7].String
	rec.IntermediaryType = text[8].String
	rec.Intermediary = text[9].String
	rec.Marketer = text[10].String
	rec.WEF = text[11].String
	rec.WET = text[12].String
	rec.Currency = text[13].String
	if sumInsured.Valid {
		rec.SumInsured = &sumInsured.Float64
	}
	if premium.Valid {
		rec.Premium = &premium.Float64
	}
	if paid.Valid {
		rec.Paid = &paid.Float64
	}
	rec.Year = int(year.Int64)
	rec.MonthName = monthName.String
	rec.Month = int(month.Int64)
	rec.Quarter = int(quarter.Int64)
	rec.Weeks = int(weeks.Int64)
	return rec, nil
}

// =============================================================================
// FILTER OPTIONS
// =============================================================================

// MonthOption pairs a month number with its display name for dropdowns.
type MonthOption struct {
	Month int    `json:"month"`
	Name  string `json:"name"`
}

// Options holds the distinct values per filter dimension, each ordered.
type Options struct {
	Years             []int         `json:"years"`
	Months            []MonthOption `json:"months"`
	Weeks             []int         `json:"weeks"`
	TransTypes        []string      `json:"trans_types"`
	Branches          []string      `json:"branches"`
	Classes           []string      `json:"classes"`
	IntermediaryTypes []string      `json:"intermediary_types"`
	Intermediaries    []string      `json:"intermediaries"`
	Marketers         []string      `json:"marketers"`
	Currencies        []string      `json:"currencies"`
}

// FilterOptions gathers the distinct values backing every filter
// dropdown.
func (s *Store) FilterOptions(ctx context.Context) (Options, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var opts Options
	var err error

	if opts.Years, err = s.distinctInts(ctx, `"Year"`); err != nil {
		return opts, err
	}
	if opts.Weeks, err = s.distinctInts(ctx, `"Weeks"`); err != nil {
		return opts, err
	}
	if opts.Months, err = s.distinctMonths(ctx); err != nil {
		return opts, err
	}

	textDims := []struct {
		col  string
		dest *[]string
	}{
		{`"Trans Type"`, &opts.TransTypes},
		{`"Branch"`, &opts.Branches},
		{`"Class"`, &opts.Classes},
		{`"Intermediary Type"`, &opts.IntermediaryTypes},
		{`"Intermediary"`, &opts.Intermediaries},
		{`"Marketer"`, &opts.Marketers},
		{`"CURRENCY"`, &opts.Currencies},
	}
	for _, d := range textDims {
		if *d.dest, err = s.distinctStrings(ctx, d.col); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (s *Store) distinctInts(ctx context.Context, col string) ([]int, error) {
	query := `SELECT DISTINCT ` + col + ` FROM ` + analytics.TableName +
		` WHERE ` + col + ` IS NOT NULL ORDER BY ` + col
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s options: %w", col, err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) distinctStrings(ctx context.Context, col string) ([]string, error) {
	query := `SELECT DISTINCT ` + col + ` FROM ` + analytics.TableName +
		` WHERE ` + col + ` IS NOT NULL ORDER BY ` + col
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s options: %w", col, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) distinctMonths(ctx context.Context) ([]MonthOption, error) {
	query := `SELECT DISTINCT "Month", "Month Name" FROM ` + analytics.TableName +
		` WHERE "Month" IS NOT NULL ORDER BY "Month"`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load month options: %w", err)
	}
	defer rows.Close()

	var out []MonthOption
	for rows.Next() {
		var m MonthOption
		if err := rows.Scan(&m.Month, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
