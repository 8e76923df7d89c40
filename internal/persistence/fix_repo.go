package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TrackPoint is one recorded navigation solution.
type TrackPoint struct {
	Time     time.Time
	Lat      float64
	Lon      float64
	HeightMM int32
	FixType  uint8
	FixOK    bool
	NumSV    uint8
	HAccMM   uint32
	VAccMM   uint32
}

type FixRepo struct {
	db *sql.DB
}

func NewFixRepo(db *sql.DB) *FixRepo {
	return &FixRepo{db: db}
}

func (r *FixRepo) Insert(ctx context.Context, p TrackPoint) error {
	fixOK := int64(0)
	if p.FixOK {
		fixOK = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fixes(fixed_at, lat, lon, height_mm, fix_type, fix_ok, num_sv, h_acc_mm, v_acc_mm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, toUnixMillis(p.Time), p.Lat, p.Lon, p.HeightMM, p.FixType, fixOK, p.NumSV, p.HAccMM, p.VAccMM)
	if err != nil {
		return fmt.Errorf("insert fix: %w", err)
	}

	return nil
}

// ListRange returns the recorded points with from <= time < to, oldest
// first.
func (r *FixRepo) ListRange(ctx context.Context, from, to time.Time) ([]TrackPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fixed_at, lat, lon, height_mm, fix_type, fix_ok, num_sv, h_acc_mm, v_acc_mm
		FROM fixes
		WHERE fixed_at >= ? AND fixed_at < ?
		ORDER BY fixed_at ASC
	`, toUnixMillis(from), toUnixMillis(to))
	if err != nil {
		return nil, fmt.Errorf("list fixes: %w", err)
	}
	defer rows.Close()

	var out []TrackPoint
	for rows.Next() {
		var (
			p       TrackPoint
			fixedMs int64
			fixOK   int64
		)
		if err := rows.Scan(&fixedMs, &p.Lat, &p.Lon, &p.HeightMM, &p.FixType, &fixOK, &p.NumSV, &p.HAccMM, &p.VAccMM); err != nil {
			return nil, fmt.Errorf("scan fix: %w", err)
		}
		p.Time = fromUnixMillis(fixedMs)
		p.FixOK = fixOK != 0
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixes: %w", err)
	}

	return out, nil
}

// PruneOlderThan deletes points recorded before the cutoff and reports
// how many rows were removed.
func (r *FixRepo) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fixes WHERE fixed_at < ?`, toUnixMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune fixes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned fixes: %w", err)
	}

	return n, nil
}
