package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sawpanic/gmofx/internal/candlestore"
	"github.com/sawpanic/gmofx/internal/model"
)

// candleRepo implements candlestore.Persistence against a `candles` table
// keyed by (symbol, timeframe, open_time).
type candleRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCandleRepo builds a candlestore.Persistence backed by db.
func NewCandleRepo(db *sqlx.DB, timeout time.Duration) candlestore.Persistence {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &candleRepo{db: db, timeout: timeout}
}

type candleRow struct {
	OpenTime time.Time `db:"open_time"`
	Open     float64   `db:"open"`
	High     float64   `db:"high"`
	Low      float64   `db:"low"`
	Close    float64   `db:"close"`
	Volume   float64   `db:"volume"`
	Filled   bool      `db:"filled"`
}

// Append upserts one closed candle. Conflicting (symbol, timeframe,
// open_time) rows are overwritten — the aggregator only ever emits a
// given open_time once, but replay after a crash can re-send the same
// bar, so this stays idempotent rather than erroring on the duplicate key.
func (r *candleRepo) Append(ctx context.Context, symbol model.Symbol, tf model.Timeframe, c model.Candle) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		INSERT INTO candles (symbol, timeframe, open_time, open, high, low, close, volume, filled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol, timeframe, open_time) DO UPDATE SET
			open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
			close = EXCLUDED.close, volume = EXCLUDED.volume, filled = EXCLUDED.filled`

	_, err := r.db.ExecContext(ctx, query,
		string(symbol), string(tf), c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume, c.Filled)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("postgres: append candle (%s): %w", pqErr.Code, err)
		}
		return fmt.Errorf("postgres: append candle: %w", err)
	}
	return nil
}

// Load returns the most recent n candles for (symbol, tf), oldest first.
func (r *candleRepo) Load(ctx context.Context, symbol model.Symbol, tf model.Timeframe, n int) ([]model.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if n <= 0 {
		n = candlestore.MinCapacity
	}

	const query = `
		SELECT open_time, open, high, low, close, volume, filled
		FROM candles
		WHERE symbol = $1 AND timeframe = $2
		ORDER BY open_time DESC
		LIMIT $3`

	rows, err := r.db.QueryxContext(ctx, query, string(symbol), string(tf), n)
	if err != nil {
		return nil, fmt.Errorf("postgres: load candles: %w", err)
	}
	defer rows.Close()

	var out []candleRow
	for rows.Next() {
		var row candleRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("postgres: scan candle: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate candles: %w", err)
	}

	candles := make([]model.Candle, len(out))
	for i := range out {
		row := out[len(out)-1-i] // reverse: query came back newest-first
		candles[i] = model.Candle{
			OpenTime: row.OpenTime,
			Open:     row.Open, High: row.High, Low: row.Low, Close: row.Close,
			Volume: row.Volume, Filled: row.Filled,
		}
	}
	return candles, nil
}
