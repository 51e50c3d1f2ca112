package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrRecordNotFound indicates no price record satisfied the lookup.
	ErrRecordNotFound = errors.New("storage: record not found")
)

const (
	createSchemaSQL = `CREATE TABLE IF NOT EXISTS price_records (
        date        date PRIMARY KEY,
        quotes      jsonb NOT NULL,
        created_at  timestamptz NOT NULL,
        updated_at  timestamptz NOT NULL
    );
    CREATE TABLE IF NOT EXISTS price_alerts (
        id             bigserial PRIMARY KEY,
        alert_type     text NOT NULL,
        field          text NOT NULL,
        percentage     numeric NOT NULL,
        base_price     numeric NOT NULL,
        current_price  numeric NOT NULL,
        date_triggered date NOT NULL,
        period_type    text NOT NULL,
        is_critical    boolean NOT NULL DEFAULT false,
        created_at     timestamptz NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS idx_price_alerts_created_at
        ON price_alerts (created_at DESC);`

	insertRecordSQL = `INSERT INTO price_records (
        date,
        quotes,
        created_at,
        updated_at
    ) VALUES (
        $1,$2,$3,$4
    );`

	updateRecordQuotesSQL = `UPDATE price_records
    SET quotes = $2, updated_at = $3
    WHERE date = $1;`

	selectRecordColumns = `SELECT date, quotes, created_at, updated_at FROM price_records`

	listRecordsByDatesSQL = selectRecordColumns + `
    WHERE date = ANY($1)
    ORDER BY date;`

	listRecordsBetweenSQL = selectRecordColumns + `
    WHERE date >= $1
      AND date <= $2
    ORDER BY date;`

	listRecentRecordsSQL = selectRecordColumns + `
    ORDER BY date DESC
    LIMIT $1;`

	latestRecordSQL = selectRecordColumns + `
    ORDER BY date DESC
    LIMIT 1;`

	latestRecordOnOrBeforeSQL = selectRecordColumns + `
    WHERE date <= $1
    ORDER BY date DESC
    LIMIT 1;`

	countRecordsSQL = `SELECT COUNT(*) FROM price_records;`

	insertAlertSQL = `INSERT INTO price_alerts (
        alert_type,
        field,
        percentage,
        base_price,
        current_price,
        date_triggered,
        period_type,
        is_critical
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    RETURNING id, alert_type, field, percentage, base_price, current_price,
              date_triggered, period_type, is_critical, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        alert_type,
        field,
        percentage,
        base_price,
        current_price,
        date_triggered,
        period_type,
        is_critical,
        created_at
    FROM price_alerts
    ORDER BY created_at DESC
    LIMIT $1;`
)

// RecordStore defines operations for daily price record persistence. The
// record table is keyed by calendar date; inserts and quote updates are the
// only write paths and each touches exactly one row atomically.
type RecordStore interface {
	InsertRecords(ctx context.Context, records []PriceRecord) error
	UpdateRecordQuotes(ctx context.Context, date time.Time, quotes map[string]decimal.Decimal, updatedAt time.Time) error
	ListRecordsByDates(ctx context.Context, dates []time.Time) ([]PriceRecord, error)
	ListRecordsBetween(ctx context.Context, from, to time.Time) ([]PriceRecord, error)
	ListRecentRecords(ctx context.Context, limit int) ([]PriceRecord, error)
	LatestRecord(ctx context.Context) (PriceRecord, error)
	LatestRecordOnOrBefore(ctx context.Context, date time.Time) (PriceRecord, error)
	CountRecords(ctx context.Context) (int64, error)
}

// AlertStore defines operations for the append-only alert log.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
}

// Store aggregates access to price records and alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the record and alert tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createSchemaSQL); execErr != nil {
		return fmt.Errorf("ensure schema: %w", execErr)
	}
	return nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertRecords persists a batch of new price records in a single round trip.
func (s *Store) InsertRecords(ctx context.Context, records []PriceRecord) error {
	if len(records) == 0 {
		return nil
	}
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		quotes, marshalErr := marshalQuotes(record.Quotes)
		if marshalErr != nil {
			return marshalErr
		}
		batch.Queue(insertRecordSQL, record.Date, quotes, record.CreatedAt, record.UpdatedAt)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("insert price record: %w", execErr)
		}
	}
	return nil
}

// UpdateRecordQuotes overwrites the quotes of an existing record.
func (s *Store) UpdateRecordQuotes(ctx context.Context, date time.Time, quotes map[string]decimal.Decimal, updatedAt time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	payload, err := marshalQuotes(quotes)
	if err != nil {
		return err
	}

	cmdTag, execErr := pool.Exec(ctx, updateRecordQuotesSQL, date, payload, updatedAt)
	if execErr != nil {
		return fmt.Errorf("update price record: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListRecordsByDates fetches the records matching any of the given dates.
func (s *Store) ListRecordsByDates(ctx context.Context, dates []time.Time) ([]PriceRecord, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	return s.queryRecords(ctx, listRecordsByDatesSQL, dates)
}

// ListRecordsBetween lists records within an inclusive date range.
func (s *Store) ListRecordsBetween(ctx context.Context, from, to time.Time) ([]PriceRecord, error) {
	return s.queryRecords(ctx, listRecordsBetweenSQL, from, to)
}

// ListRecentRecords lists the most recent records ordered by descending date.
func (s *Store) ListRecentRecords(ctx context.Context, limit int) ([]PriceRecord, error) {
	return s.queryRecords(ctx, listRecentRecordsSQL, limit)
}

// LatestRecord returns the record with the most recent date.
func (s *Store) LatestRecord(ctx context.Context) (PriceRecord, error) {
	return s.queryOneRecord(ctx, latestRecordSQL)
}

// LatestRecordOnOrBefore returns the nearest record at or before the given date.
func (s *Store) LatestRecordOnOrBefore(ctx context.Context, date time.Time) (PriceRecord, error) {
	return s.queryOneRecord(ctx, latestRecordOnOrBeforeSQL, date)
}

// CountRecords counts stored price records.
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countRecordsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count records: %w", scanErr)
	}
	return count, nil
}

func (s *Store) queryRecords(ctx context.Context, sql string, args ...interface{}) ([]PriceRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, sql, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("list price records: %w", queryErr)
	}
	defer rows.Close()

	records := make([]PriceRecord, 0)
	for rows.Next() {
		record, scanErr := scanPriceRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func (s *Store) queryOneRecord(ctx context.Context, sql string, args ...interface{}) (PriceRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return PriceRecord{}, err
	}

	rows, queryErr := pool.Query(ctx, sql, args...)
	if queryErr != nil {
		return PriceRecord{}, fmt.Errorf("query price record: %w", queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil {
			return PriceRecord{}, rows.Err()
		}
		return PriceRecord{}, ErrRecordNotFound
	}
	return scanPriceRecord(rows)
}

// InsertAlert appends an alert to the alert log.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.AlertType,
		alert.Field,
		alert.Percentage.String(),
		alert.BasePrice.String(),
		alert.CurrentPrice.String(),
		alert.DateTriggered,
		alert.PeriodType,
		alert.IsCritical,
	)

	rec, scanErr := scanAlertRecord(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts ordered by persistence time.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanAlertRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

func marshalQuotes(quotes map[string]decimal.Decimal) ([]byte, error) {
	payload, err := json.Marshal(quotes)
	if err != nil {
		return nil, fmt.Errorf("marshal quotes: %w", err)
	}
	return payload, nil
}

func scanPriceRecord(rows pgx.Rows) (PriceRecord, error) {
	var (
		date      time.Time
		payload   []byte
		createdAt time.Time
		updatedAt time.Time
	)

	if err := rows.Scan(&date, &payload, &createdAt, &updatedAt); err != nil {
		return PriceRecord{}, err
	}

	quotes := make(map[string]decimal.Decimal)
	if err := json.Unmarshal(payload, &quotes); err != nil {
		return PriceRecord{}, fmt.Errorf("unmarshal quotes: %w", err)
	}

	return PriceRecord{
		Date:      date.UTC(),
		Quotes:    quotes,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func scanAlertRecord(row pgx.Row) (AlertRecord, error) {
	var (
		rec           AlertRecord
		percentageStr string
		baseStr       string
		currentStr    string
	)

	if err := row.Scan(
		&rec.ID,
		&rec.AlertType,
		&rec.Field,
		&percentageStr,
		&baseStr,
		&currentStr,
		&rec.DateTriggered,
		&rec.PeriodType,
		&rec.IsCritical,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}

	var convErr error
	rec.Percentage, convErr = decimal.NewFromString(percentageStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse percentage: %w", convErr)
	}
	rec.BasePrice, convErr = decimal.NewFromString(baseStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse base price: %w", convErr)
	}
	rec.CurrentPrice, convErr = decimal.NewFromString(currentStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse current price: %w", convErr)
	}

	rec.DateTriggered = rec.DateTriggered.UTC()
	return rec, nil
}
