package db

import (
	"database/sql"
	"fmt"
	"math"
	"time"
)

// InsertImage inserts or gets an existing image by path
func (d *DB) InsertImage(img *Image) (int64, error) {
	// Try to get existing
	var id int64
	err := d.db.QueryRow("SELECT id FROM images WHERE path = ?", img.Path).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to query image: %w", err)
	}

	// Insert new
	result, err := d.db.Exec(
		"INSERT INTO images (path, width, height, k) VALUES (?, ?, ?, ?)",
		img.Path, img.Width, img.Height, img.K,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}
	return result.LastInsertId()
}

// InsertRun inserts a run (or updates if the same parameters already exist)
func (d *DB) InsertRun(run *Run) (int64, error) {
	psnr := sql.NullFloat64{Float64: run.PSNR, Valid: !math.IsInf(run.PSNR, 0) && !math.IsNaN(run.PSNR)}
	createdAt := run.CreatedAt.UTC().Format(time.RFC3339Nano)

	// Check if run already exists
	var existingID int64
	err := d.db.QueryRow(
		"SELECT id FROM runs WHERE image_id = ? AND mode = ? AND value = ?",
		run.ImageID, run.Mode, run.Value,
	).Scan(&existingID)

	if err == nil {
		// Update existing
		_, err = d.db.Exec(`
			UPDATE runs SET
				run_id = ?,
				components = ?,
				energy = ?,
				frobenius = ?,
				rmse = ?,
				psnr = ?,
				ssim = ?,
				ratio = ?,
				output_path = ?,
				created_at = ?
			WHERE id = ?`,
			run.RunID,
			run.Components,
			run.Energy,
			run.Frobenius,
			run.RMSE,
			psnr,
			run.SSIM,
			run.Ratio,
			run.OutputPath,
			createdAt,
			existingID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update run: %w", err)
		}
		return existingID, nil
	}

	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to query existing run: %w", err)
	}

	// Insert new
	res, err := d.db.Exec(`
		INSERT INTO runs (
			run_id, image_id,
			mode, value, components,
			energy, frobenius, rmse, psnr, ssim, ratio,
			output_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.ImageID,
		run.Mode,
		run.Value,
		run.Components,
		run.Energy,
		run.Frobenius,
		run.RMSE,
		psnr,
		run.SSIM,
		run.Ratio,
		run.OutputPath,
		createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return res.LastInsertId()
}

// GetImage retrieves an image by ID
func (d *DB) GetImage(id int64) (*Image, error) {
	var img Image
	err := d.db.QueryRow(
		"SELECT id, path, width, height, k FROM images WHERE id = ?", id,
	).Scan(&img.ID, &img.Path, &img.Width, &img.Height, &img.K)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

const runColumns = `id, run_id, image_id,
	mode, value, components,
	energy, frobenius, rmse, psnr, ssim, ratio,
	output_path, created_at`

// ListRuns retrieves the runs of an image, fewest components first
func (d *DB) ListRuns(imageID int64) ([]*Run, error) {
	rows, err := d.db.Query(`
		SELECT `+runColumns+`
		FROM runs
		WHERE image_id = ?
		ORDER BY components, mode, value
	`, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CountRuns counts total runs
func (d *DB) CountRuns() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		r         Run
		psnr      sql.NullFloat64
		createdAt string
	)
	err := s.Scan(
		&r.ID, &r.RunID, &r.ImageID,
		&r.Mode, &r.Value, &r.Components,
		&r.Energy, &r.Frobenius, &r.RMSE, &psnr, &r.SSIM, &r.Ratio,
		&r.OutputPath, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	r.PSNR = math.Inf(1)
	if psnr.Valid {
		r.PSNR = psnr.Float64
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &r, nil
}
