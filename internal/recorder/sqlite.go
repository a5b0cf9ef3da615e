package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"CoinCast/internal/model"
)

// SQLiteRecorder persists predictions, prices and snapshots to SQLite.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the accuracy sweep read while analysis writes.
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id                  TEXT PRIMARY KEY,
			asset_id            TEXT NOT NULL,
			created_at          INTEGER NOT NULL,
			evaluate_at         INTEGER NOT NULL,
			horizon             TEXT NOT NULL,
			direction           TEXT,
			predicted_direction TEXT NOT NULL,
			probability         REAL,
			confidence          REAL,
			confidence_level    TEXT,
			range_low           REAL,
			range_high          REAL,
			most_likely         REAL,
			current_price       REAL,
			composite_score     REAL,
			breakdown           TEXT,
			evaluated_at        INTEGER,
			actual_direction    TEXT,
			actual_price        REAL,
			was_accurate        INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_pending ON predictions(evaluated_at, evaluate_at)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_asset ON predictions(asset_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS price_history (
			asset_id   TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			price      REAL NOT NULL,
			volume     REAL,
			market_cap REAL,
			UNIQUE(asset_id, timestamp)
		)`,

		`CREATE TABLE IF NOT EXISTS indicator_snapshots (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			asset_id       TEXT NOT NULL,
			bar_time       INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			payload        TEXT NOT NULL,
			created_at     INTEGER NOT NULL,
			UNIQUE(asset_id, bar_time)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) SavePrediction(ctx context.Context, p *model.Prediction) error {
	breakdown, err := json.Marshal(p.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `INSERT INTO predictions
		(id, asset_id, created_at, evaluate_at, horizon, direction, predicted_direction,
		 probability, confidence, confidence_level, range_low, range_high,
		 most_likely, current_price, composite_score, breakdown)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.AssetID, p.CreatedAt.UnixMilli(), p.EvaluateAt().UnixMilli(),
		string(p.Horizon), p.Direction, string(p.PredictedDirection),
		p.Probability, p.Confidence, p.ConfidenceLevel,
		p.PriceRange.Low, p.PriceRange.High,
		p.MostLikely, p.CurrentPrice, p.CompositeScore, string(breakdown),
	)
	if err != nil {
		return fmt.Errorf("insert prediction %s: %w", p.ID, err)
	}
	return nil
}

const predictionColumns = `id, asset_id, created_at, horizon, direction, predicted_direction,
	probability, confidence, confidence_level, range_low, range_high,
	most_likely, current_price, composite_score, breakdown,
	evaluated_at, actual_direction, actual_price, was_accurate`

func (r *SQLiteRecorder) QueryPending(ctx context.Context, now time.Time) ([]*model.Prediction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+predictionColumns+`
		FROM predictions
		WHERE evaluated_at IS NULL AND evaluate_at <= ?
		ORDER BY evaluate_at`, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	var out []*model.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPrediction loads a single prediction by id.
func (r *SQLiteRecorder) GetPrediction(ctx context.Context, id string) (*model.Prediction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+predictionColumns+` FROM predictions WHERE id = ?`, id)
	p, err := scanPrediction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPrediction(s scanner) (*model.Prediction, error) {
	var (
		p                  model.Prediction
		createdAt          int64
		horizon, predicted string
		breakdown          string
		evaluatedAt        sql.NullInt64
		actualDir          sql.NullString
		actualPrice        sql.NullFloat64
		wasAccurate        int
	)
	err := s.Scan(&p.ID, &p.AssetID, &createdAt, &horizon, &p.Direction, &predicted,
		&p.Probability, &p.Confidence, &p.ConfidenceLevel, &p.PriceRange.Low, &p.PriceRange.High,
		&p.MostLikely, &p.CurrentPrice, &p.CompositeScore, &breakdown,
		&evaluatedAt, &actualDir, &actualPrice, &wasAccurate)
	if err != nil {
		return nil, err
	}

	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	if p.Horizon, err = model.ParseHorizon(horizon); err != nil {
		return nil, fmt.Errorf("prediction %s: %w", p.ID, err)
	}
	p.PredictedDirection = model.Direction(predicted)
	if breakdown != "" {
		if err := json.Unmarshal([]byte(breakdown), &p.Breakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown for %s: %w", p.ID, err)
		}
	}
	if evaluatedAt.Valid {
		t := time.UnixMilli(evaluatedAt.Int64).UTC()
		p.EvaluatedAt = &t
		p.ActualDirection = model.Direction(actualDir.String)
		p.ActualPrice = actualPrice.Float64
		p.WasAccurate = wasAccurate == 1
	}
	return &p, nil
}

func (r *SQLiteRecorder) MarkEvaluated(ctx context.Context, id string, o model.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	accurate := 0
	if o.WasAccurate {
		accurate = 1
	}
	res, err := r.db.ExecContext(ctx, `UPDATE predictions
		SET evaluated_at = ?, actual_direction = ?, actual_price = ?, was_accurate = ?
		WHERE id = ? AND evaluated_at IS NULL`,
		o.EvaluatedAt.UnixMilli(), string(o.ActualDirection), o.ActualPrice, accurate, id)
	if err != nil {
		return fmt.Errorf("mark evaluated %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark evaluated %s: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("mark evaluated %s: %w", id, err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrAlreadyEvaluated
}

func (r *SQLiteRecorder) AggregateAccuracy(ctx context.Context, f model.AccuracyFilter) (model.AccuracyStats, error) {
	where := []string{"evaluated_at IS NOT NULL"}
	var args []any
	if f.AssetID != "" {
		where = append(where, "asset_id = ?")
		args = append(args, f.AssetID)
	}
	if f.Horizon != "" {
		where = append(where, "horizon = ?")
		args = append(args, string(f.Horizon))
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UnixMilli())
	}

	var total int
	var accurate sql.NullInt64
	q := `SELECT COUNT(*), SUM(was_accurate) FROM predictions WHERE ` + strings.Join(where, " AND ")
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total, &accurate); err != nil {
		return model.AccuracyStats{}, fmt.Errorf("aggregate accuracy: %w", err)
	}
	return model.NewAccuracyStats(total, int(accurate.Int64)), nil
}

func (r *SQLiteRecorder) SavePrices(ctx context.Context, assetID string, points []model.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO price_history
		(asset_id, timestamp, price, volume, market_cap) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, assetID, p.Time.UnixMilli(), p.Price, nullable(p.Volume), nullable(p.MarketCap)); err != nil {
			return fmt.Errorf("insert price %s@%d: %w", assetID, p.Time.UnixMilli(), err)
		}
	}
	return tx.Commit()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (r *SQLiteRecorder) PriceAtOrBefore(ctx context.Context, assetID string, t time.Time) (float64, error) {
	var price float64
	err := r.db.QueryRowContext(ctx, `SELECT price FROM price_history
		WHERE asset_id = ? AND timestamp <= ?
		ORDER BY timestamp DESC LIMIT 1`, assetID, t.UnixMilli()).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("price at or before: %w", err)
	}
	return price, nil
}

func (r *SQLiteRecorder) LatestPrice(ctx context.Context, assetID string) (float64, time.Time, error) {
	var (
		price float64
		ts    int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT price, timestamp FROM price_history
		WHERE asset_id = ?
		ORDER BY timestamp DESC LIMIT 1`, assetID).Scan(&price, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, ErrNotFound
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("latest price: %w", err)
	}
	return price, time.UnixMilli(ts).UTC(), nil
}

func (r *SQLiteRecorder) SaveSnapshot(ctx context.Context, snap *model.IndicatorSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `INSERT INTO indicator_snapshots
		(asset_id, bar_time, schema_version, payload, created_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT(asset_id, bar_time) DO UPDATE SET
			schema_version = excluded.schema_version,
			payload = excluded.payload,
			created_at = excluded.created_at`,
		snap.AssetID, snap.BarTime.UnixMilli(), snap.SchemaVersion, string(payload), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.AssetID, err)
	}
	return nil
}

func (r *SQLiteRecorder) LatestSnapshot(ctx context.Context, assetID string) (*model.IndicatorSnapshot, error) {
	var (
		version int
		payload string
	)
	err := r.db.QueryRowContext(ctx, `SELECT schema_version, payload FROM indicator_snapshots
		WHERE asset_id = ?
		ORDER BY bar_time DESC LIMIT 1`, assetID).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if version > model.SnapshotSchemaVersion {
		return nil, fmt.Errorf("snapshot schema version %d is newer than supported %d", version, model.SnapshotSchemaVersion)
	}

	var snap model.IndicatorSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
