package db

import (
	"database/sql"
	"fmt"
	"math"
)

// DetailedRun contains all joined information for a run
type DetailedRun struct {
	ID    int64
	RunID string

	// Image info
	ImagePath string
	Width     int
	Height    int
	K         int

	// Parameters
	Mode       string
	Value      float64
	Components int

	// Metrics
	Energy float64
	RMSE   float64
	PSNR   float64
	SSIM   float64
	Ratio  float64

	OutputPath string
}

// QueryDetailed executes a query on the runs_detailed view
func (d *DB) QueryDetailed(query string, args ...any) ([]*DetailedRun, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var runs []*DetailedRun
	for rows.Next() {
		var (
			r    DetailedRun
			psnr sql.NullFloat64
		)
		err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.ImagePath,
			&r.Width,
			&r.Height,
			&r.K,
			&r.Mode,
			&r.Value,
			&r.Components,
			&r.Energy,
			&r.RMSE,
			&psnr,
			&r.SSIM,
			&r.Ratio,
			&r.OutputPath,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		r.PSNR = math.Inf(1)
		if psnr.Valid {
			r.PSNR = psnr.Float64
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// GetRunsAboveSSIM returns runs of an image whose SSIM reaches minSSIM, cheapest first
func (d *DB) GetRunsAboveSSIM(imageID int64, minSSIM float64) ([]*DetailedRun, error) {
	return d.QueryDetailed(`
		SELECT runs_detailed.* FROM runs_detailed
		JOIN runs ON runs.id = runs_detailed.id
		WHERE runs.image_id = ? AND runs_detailed.ssim >= ?
		ORDER BY runs_detailed.components, runs_detailed.ssim DESC
	`, imageID, minSSIM)
}

// ModeStats holds statistics for one mode of an image
type ModeStats struct {
	Mode          string
	Runs          int
	AvgComponents float64
	AvgSSIM       float64
	AvgRatio      float64
}

// GetModeStats returns statistics grouped by mode
func (d *DB) GetModeStats(imageID int64) ([]*ModeStats, error) {
	rows, err := d.db.Query(`
		SELECT
			mode,
			COUNT(*) as runs,
			AVG(components) as avg_components,
			AVG(ssim) as avg_ssim,
			AVG(ratio) as avg_ratio
		FROM runs
		WHERE image_id = ?
		GROUP BY mode
		ORDER BY mode
	`, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mode stats: %w", err)
	}
	defer rows.Close()

	var stats []*ModeStats
	for rows.Next() {
		var s ModeStats
		if err := rows.Scan(&s.Mode, &s.Runs, &s.AvgComponents, &s.AvgSSIM, &s.AvgRatio); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		stats = append(stats, &s)
	}
	return stats, rows.Err()
}
